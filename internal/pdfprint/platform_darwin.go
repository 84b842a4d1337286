//go:build darwin

package pdfprint

import (
	"github.com/adcondev/pdf-print-daemon/internal/preview"
	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// NewPlatformBackend returns the Preview backend
func NewPlatformBackend(Options) printer.Backend {
	return preview.NewBackend(nil)
}
