package workererrors

import (
	"errors"
	"testing"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

func TestExtractUserFriendlyError(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		expected string
	}{
		// Specific Error Mappings
		{
			name:     "Missing file",
			input:    printer.PrintCommandFailed("PDF path does not exist"),
			expected: "FILE: PDF not found at the given path",
		},
		{
			name:     "No default printer",
			input:    printer.PrinterLookupFailed("No default printer configured"),
			expected: "PRINTER: No printer specified and no default printer configured",
		},
		{
			name:     "CUPS unknown destination",
			input:    printer.PrintCommandFailed("lp: The printer or class does not exist."),
			expected: "PRINTER: Cannot connect - check if printer is installed",
		},
		{
			name:     "DC creation",
			input:    printer.PrintCommandFailed("Failed to create printer DC"),
			expected: "PRINTER: Cannot connect - check if printer is installed",
		},
		{
			name:     "Render chain exhausted",
			input:    printer.PrintCommandFailed("Render failed after retries: a; b; c"),
			expected: "RENDER: Page could not be rasterized",
		},
		{
			name:     "StartDoc rejected",
			input:    printer.PrintCommandFailed("Failed to start GDI print job (error %d)", 5),
			expected: "SPOOLER: Print job was rejected",
		},
		{
			name:     "StretchDIBits failure",
			input:    printer.PrintCommandFailed("Failed to render page to printer (error %d)", 87),
			expected: "SPOOLER: Page could not be sent to the printer",
		},

		// Categorization Logic
		{
			name:     "Malformed payload",
			input:    printer.ReadFailed("illegal base64 data at input byte 3"),
			expected: "INPUT: illegal base64 data at input byte 3",
		},
		{
			name:     "Staging failure",
			input:    printer.WriteFailed("open /tmp/x.pdf: permission denied"),
			expected: "STAGING: permission denied",
		},
		{
			name:     "Lookup failure",
			input:    printer.PrinterLookupFailed("lpstat: scheduler not running"),
			expected: "PRINTER: scheduler not running",
		},
		{
			name:     "Unsupported platform",
			input:    printer.ErrUnsupportedPlatform,
			expected: "PLATFORM: Printing is not supported on this system",
		},

		// Fallback Logic
		{
			name:     "Foreign error",
			input:    errors.New("some random error"),
			expected: "ERROR: some random error",
		},
		{
			name:     "Fallback with prefix removal",
			input:    printer.PrintCommandFailed("lp: Unsupported document-format"),
			expected: "ERROR: Unsupported document-format",
		},
		{
			name:     "Panic",
			input:    errors.New("panic recovered in executePrint: nil map"),
			expected: "ERROR: nil map",
		},
		{
			name:     "Nested error",
			input:    errors.New("outer error: inner error"),
			expected: "ERROR: outer error: inner error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractUserFriendlyError(tt.input)
			if got != tt.expected {
				t.Errorf("ExtractUserFriendlyError() = %v, want %v", got, tt.expected)
			}
		})
	}
}
