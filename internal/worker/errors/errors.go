package workererrors

import (
	"fmt"
	"strings"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// ExtractUserFriendlyError creates a clean error message for the UI
func ExtractUserFriendlyError(err error) string {
	perr := printer.AsError(err, printer.KindPrintCommandFailed)

	// Common error patterns and their friendly messages
	errorMappings := []struct {
		pattern string
		message string
	}{
		{"PDF path does not exist", "FILE: PDF not found at the given path"},
		{"No default printer configured", "PRINTER: No printer specified and no default printer configured"},
		{"printer or class does not exist", "PRINTER: Cannot connect - check if printer is installed"},
		{"Failed to create printer DC", "PRINTER: Cannot connect - check if printer is installed"},
		{"Failed to enumerate printers", "PRINTER: Printer list unavailable - check the print spooler"},
		{"Render failed after retries", "RENDER: Page could not be rasterized"},
		{"Failed to start GDI print job", "SPOOLER: Print job was rejected"},
		{"Failed to finalize GDI print job", "SPOOLER: Print job could not be completed"},
		{"Failed to start GDI page", "SPOOLER: Page could not be started"},
		{"Failed to end GDI page", "SPOOLER: Page could not be completed"},
		{"Failed to render page to printer", "SPOOLER: Page could not be sent to the printer"},
		{"Failed to execute AppleScript", "PREVIEW: Could not open the print dialog"},
		{"Failed to init COM", "SYSTEM: Windows runtime unavailable"},
	}

	// Check for matching patterns
	for _, mapping := range errorMappings {
		if strings.Contains(strings.ToLower(perr.Message), strings.ToLower(mapping.pattern)) {
			return mapping.message
		}
	}

	// Categorize by error kind
	switch perr.Kind {
	case printer.KindReadFailed:
		return fmt.Sprintf("INPUT: %s", extractInnerError(perr.Message))
	case printer.KindWriteFailed:
		return fmt.Sprintf("STAGING: %s", extractInnerError(perr.Message))
	case printer.KindPrinterLookupFailed:
		return fmt.Sprintf("PRINTER: %s", extractInnerError(perr.Message))
	case printer.KindUnsupportedPlatform:
		return "PLATFORM: Printing is not supported on this system"
	}

	// Fallback:  return cleaned error
	return fmt.Sprintf("ERROR: %s", cleanErrorMessage(perr.Message))
}

// extractInnerError gets the innermost error message
func extractInnerError(errStr string) string {
	// Find the last colon-separated segment
	parts := strings.Split(errStr, ": ")
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return errStr
}

// cleanErrorMessage removes verbose prefixes
func cleanErrorMessage(errStr string) string {
	prefixes := []string{
		"panic recovered in executePrint: ",
		"lp: ",
		"lpstat: ",
	}
	result := errStr
	for _, prefix := range prefixes {
		result = strings.TrimPrefix(result, prefix)
	}
	if result == "" {
		return "unknown failure"
	}
	return result
}
