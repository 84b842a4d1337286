//go:build !linux && !darwin && !windows

package pdfprint

import "github.com/adcondev/pdf-print-daemon/internal/printer"

// NewPlatformBackend returns a backend that fails every call with
// UnsupportedPlatform.
func NewPlatformBackend(Options) printer.Backend {
	return unsupportedBackend{}
}
