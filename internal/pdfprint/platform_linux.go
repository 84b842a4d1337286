//go:build linux

package pdfprint

import (
	"github.com/adcondev/pdf-print-daemon/internal/cups"
	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// NewPlatformBackend returns the CUPS backend
func NewPlatformBackend(Options) printer.Backend {
	return cups.NewBackend(cups.ExecRunner{})
}
