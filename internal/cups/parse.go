package cups

import (
	"strconv"
	"strings"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

const (
	requestIDMarker      = "request id is "
	defaultDestMarker    = "system default destination: "
	printerLinePrefix    = "printer "
	sidesLongEdgeOption  = "two-sided-long-edge"
	sidesShortEdgeOption = "two-sided-short-edge"
)

// ParseJobID extracts the numeric job id from lp's acknowledgment, e.g.
// "request id is HP_LaserJet-142 (1 file(s))" -> 142.
func ParseJobID(output string) (uint32, bool) {
	idx := strings.Index(output, requestIDMarker)
	if idx == -1 {
		return 0, false
	}
	fields := strings.Fields(output[idx+len(requestIDMarker):])
	if len(fields) == 0 {
		return 0, false
	}
	token := fields[0]
	suffix := token[strings.LastIndex(token, "-")+1:]

	id, err := strconv.ParseUint(suffix, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}

// ParsePrinters reads `lpstat -p` output. Status precedence is
// disabled > printing > idle.
func ParsePrinters(output, defaultName string) []printer.PrinterInfo {
	printers := make([]printer.PrinterInfo, 0)
	for _, line := range strings.Split(output, "\n") {
		rest, ok := strings.CutPrefix(line, printerLinePrefix)
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]

		status := printer.StatusIdle
		switch {
		case strings.Contains(line, "disabled"):
			status = printer.StatusDisabled
		case strings.Contains(line, "printing"):
			status = printer.StatusPrinting
		}

		printers = append(printers, printer.PrinterInfo{
			Name:      name,
			IsDefault: defaultName != "" && name == defaultName,
			Status:    status,
		})
	}
	return printers
}

// ParseDefaultPrinter reads `lpstat -d` output.
func ParseDefaultPrinter(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if name, ok := strings.CutPrefix(line, defaultDestMarker); ok {
			name = strings.TrimSpace(name)
			return name, name != ""
		}
	}
	return "", false
}

// ParseMediaOptions reads `lpoptions -l` output and returns the options of
// the first media/page-size line that yields any token. Tokens look like
// [*]id[/label]; a leading * marks the default.
func ParseMediaOptions(output string) []printer.MediaOption {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if !isMediaLine(line) {
			continue
		}
		_, values, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		var options []printer.MediaOption
		for _, token := range strings.Fields(values) {
			isDefault := strings.HasPrefix(token, "*")
			raw := strings.TrimLeft(token, "*")
			id, label, hasLabel := strings.Cut(raw, "/")
			if !hasLabel {
				label = raw
			}
			options = append(options, printer.MediaOption{
				ID:        id,
				Label:     label,
				IsDefault: isDefault,
			})
		}
		if len(options) > 0 {
			return options
		}
	}
	return []printer.MediaOption{}
}

func isMediaLine(line string) bool {
	return strings.HasPrefix(line, "media/") ||
		strings.HasPrefix(line, "PageSize/") ||
		strings.HasPrefix(line, "PageSize") ||
		strings.HasPrefix(line, "Media")
}

// SidesOption maps a duplex mode onto the lp sides= value. Unknown modes
// are dropped rather than rejected.
func SidesOption(duplex printer.Duplex) (string, bool) {
	switch duplex {
	case printer.DuplexLong:
		return sidesLongEdgeOption, true
	case printer.DuplexShort:
		return sidesShortEdgeOption, true
	default:
		return "", false
	}
}

// LpArgs builds the lp argument list for a request
func LpArgs(req printer.PrintRequest) []string {
	var args []string
	if req.PrinterName != "" {
		args = append(args, "-d", req.PrinterName)
	}
	if req.JobName != "" {
		args = append(args, "-t", req.JobName)
	}
	if req.Copies > 1 {
		args = append(args, "-n", strconv.FormatUint(uint64(req.Copies), 10))
	}
	if sides, ok := SidesOption(req.Duplex); ok {
		args = append(args, "-o", "sides="+sides)
	}
	if req.PaperSize != "" {
		args = append(args, "-o", "media="+req.PaperSize)
	}
	return append(args, req.Path)
}
