package gdi

import "github.com/adcondev/pdf-print-daemon/internal/printer"

// PRINTER_INFO_2 Status bits
const (
	printerStatusPaused    = 0x00000001
	printerStatusOffline   = 0x00000080
	printerStatusPrinting  = 0x00000400
	printerStatusWarmingUp = 0x00010000
)

// FallbackForms are offered when the driver enumerates no forms
var FallbackForms = []string{"Letter", "Legal", "A4", "A3", "A5", "Tabloid", "Executive"}

// MapStatus normalizes spooler status flags
func MapStatus(flags uint32) printer.Status {
	switch {
	case flags == 0:
		return printer.StatusIdle
	case flags&printerStatusPaused != 0:
		return printer.StatusStopped
	case flags&printerStatusOffline != 0:
		return printer.StatusOffline
	case flags&printerStatusPrinting != 0:
		return printer.StatusPrinting
	case flags&printerStatusWarmingUp != 0:
		return printer.StatusWarming
	default:
		return printer.StatusUnknown
	}
}

// MediaFromForms builds media options from driver form names. Windows forms
// carry no default marker. An empty list yields FallbackForms.
func MediaFromForms(forms []string) []printer.MediaOption {
	media := make([]printer.MediaOption, 0, len(forms))
	for _, name := range forms {
		if name == "" {
			continue
		}
		media = append(media, printer.MediaOption{ID: name, Label: name})
	}
	if len(media) == 0 {
		for _, name := range FallbackForms {
			media = append(media, printer.MediaOption{ID: name, Label: name})
		}
	}
	return media
}
