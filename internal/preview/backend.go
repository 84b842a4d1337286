// Package preview prints on macOS by scripting Preview through osascript.
// Printer and media discovery are not available on this path.
package preview

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

const printScript = `tell application "Preview"
	set theDoc to open (POSIX file "%s")
	delay 0.3
	activate

	try
		print theDoc with print dialog
	end try

	delay 0.5

	try
		close theDoc saving no
	on error
		try
			close window 1 saving no
		end try
	end try

	delay 0.2

	if (count of windows) is 0 then
		quit
	end if
end tell`

// Starter launches a process without waiting for it to exit
type Starter func(ctx context.Context, name string, args ...string) error

// StartProcess is the default Starter. The osascript child is not bound to
// ctx because it blocks on the user's dialog interaction.
func StartProcess(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("[PREVIEW] ⚠️ osascript exited: %v", err)
		}
	}()
	return nil
}

// Backend implements printer.Backend for macOS
type Backend struct {
	start Starter
}

// NewBackend creates a Preview backend. A nil starter uses StartProcess.
func NewBackend(start Starter) *Backend {
	if start == nil {
		start = StartProcess
	}
	return &Backend{start: start}
}

// Script renders the AppleScript for a file path
func Script(path string) string {
	escaped := strings.ReplaceAll(path, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return fmt.Sprintf(printScript, escaped)
}

// Print opens the print dialog for the file. It returns once osascript has
// been spawned; no job id is observable.
func (b *Backend) Print(ctx context.Context, req printer.PrintRequest) (printer.PrintResult, error) {
	info, err := os.Stat(req.Path)
	if err != nil || !info.Mode().IsRegular() {
		return printer.PrintResult{}, printer.PrintCommandFailed("PDF path does not exist")
	}

	if err := b.start(ctx, "osascript", "-e", Script(req.Path)); err != nil {
		return printer.PrintResult{}, printer.PrintCommandFailed("Failed to execute AppleScript: %v", err)
	}
	log.Printf("[PREVIEW] 🖨️ Print dialog opened for %s", req.Path)

	if req.RemoveAfterPrint {
		log.Printf("[PREVIEW] ⚠️ removeAfterPrint ignored, Preview still holds %s", req.Path)
	}

	name := req.PrinterName
	if name == "" {
		name = "Preview"
	}
	return printer.PrintResult{
		Printer: name,
		Message: "Print dialog opened",
	}, nil
}

// ListPrinters is not available through Preview
func (b *Backend) ListPrinters(context.Context) ([]printer.PrinterInfo, error) {
	return []printer.PrinterInfo{}, nil
}

// DefaultPrinter is not available through Preview
func (b *Backend) DefaultPrinter(context.Context) (string, bool, error) {
	return "", false, nil
}

// ListMedia is not available through Preview
func (b *Backend) ListMedia(context.Context, string) ([]printer.MediaOption, error) {
	return []printer.MediaOption{}, nil
}
