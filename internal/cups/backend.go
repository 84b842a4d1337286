// Package cups submits PDF jobs and reads printer capabilities through the
// CUPS command-line tools (lp, lpstat, lpoptions).
package cups

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// Output holds what a finished command wrote
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes a spooler command. A non-nil error with a populated
// Output means the command ran and exited non-zero.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecRunner runs real binaries from PATH
type ExecRunner struct{}

// Run executes name with args and captures both streams
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}

// Backend implements printer.Backend on top of CUPS
type Backend struct {
	runner Runner
}

// NewBackend creates a CUPS backend. A nil runner uses ExecRunner.
func NewBackend(runner Runner) *Backend {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Backend{runner: runner}
}

// Print submits the file with lp and returns once lp has acknowledged it.
func (b *Backend) Print(ctx context.Context, req printer.PrintRequest) (printer.PrintResult, error) {
	start := time.Now()
	if !isRegularFile(req.Path) {
		return printer.PrintResult{}, printer.PrintCommandFailed("PDF path does not exist")
	}

	args := LpArgs(req)
	log.Printf("[CUPS] 🖨️ lp %s", strings.Join(args, " "))

	out, err := b.runner.Run(ctx, "lp", args...)
	if err != nil {
		return printer.PrintResult{}, printer.PrintCommandFailed("%s", commandFailure(out, err))
	}

	stdout := string(out.Stdout)
	result := printer.PrintResult{
		Printer: req.PrinterName,
		Message: strings.TrimSpace(stdout),
	}
	if id, ok := ParseJobID(stdout); ok {
		result.JobID = printer.JobID(id)
	}
	if result.Printer == "" {
		if name, ok, _ := b.DefaultPrinter(ctx); ok {
			result.Printer = name
		} else {
			result.Printer = "unknown"
		}
	}

	if req.RemoveAfterPrint {
		if err := os.Remove(req.Path); err != nil {
			log.Printf("[CUPS] ⚠️ Could not remove %s: %v", req.Path, err)
		}
	}

	log.Printf("[CUPS] ✅ Submitted to %s (job: %s, elapsed: %v)", result.Printer, formatJobID(result.JobID), time.Since(start))
	return result, nil
}

// ListPrinters parses `lpstat -p`
func (b *Backend) ListPrinters(ctx context.Context) ([]printer.PrinterInfo, error) {
	out, err := b.runner.Run(ctx, "lpstat", "-p")
	if err != nil {
		return nil, printer.PrinterLookupFailed("%s", commandFailure(out, err))
	}

	defaultName, _, _ := b.DefaultPrinter(ctx)
	return ParsePrinters(string(out.Stdout), defaultName), nil
}

// DefaultPrinter parses `lpstat -d`. A failing lpstat means no default, not an error;
// only a missing binary is reported.
func (b *Backend) DefaultPrinter(ctx context.Context) (string, bool, error) {
	out, err := b.runner.Run(ctx, "lpstat", "-d")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) || len(out.Stderr) > 0 {
			return "", false, nil
		}
		return "", false, printer.PrinterLookupFailed("%v", err)
	}

	name, ok := ParseDefaultPrinter(string(out.Stdout))
	return name, ok, nil
}

// ListMedia parses `lpoptions -l` for the named printer, or the default
// destination when printerName is empty.
func (b *Backend) ListMedia(ctx context.Context, printerName string) ([]printer.MediaOption, error) {
	var args []string
	if printerName != "" {
		args = append(args, "-p", printerName)
	}
	args = append(args, "-l")

	out, err := b.runner.Run(ctx, "lpoptions", args...)
	if err != nil {
		return nil, printer.PrinterLookupFailed("%s", commandFailure(out, err))
	}
	return ParseMediaOptions(string(out.Stdout)), nil
}

func commandFailure(out Output, err error) string {
	if msg := strings.TrimSpace(string(out.Stderr)); msg != "" {
		return msg
	}
	return err.Error()
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func formatJobID(id *uint32) string {
	if id == nil {
		return "n/a"
	}
	return strconv.FormatUint(uint64(*id), 10)
}
