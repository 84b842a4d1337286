//go:build windows

package pdfprint

import (
	"github.com/adcondev/pdf-print-daemon/internal/gdi"
	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// NewPlatformBackend returns the WinRT + GDI backend
func NewPlatformBackend(opts Options) printer.Backend {
	return gdi.NewBackend(gdi.Options{
		Policy:      opts.Render,
		SnapshotDir: opts.SnapshotDir,
		Verbose:     opts.Verbose,
		Wait:        opts.Wait,
	})
}
