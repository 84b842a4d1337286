package printer

import (
	"errors"
	"fmt"
)

// Kind classifies an Error
type Kind string

// Error kinds surfaced to callers
const (
	KindPrintCommandFailed  Kind = "PrintCommandFailed"
	KindReadFailed          Kind = "ReadFailed"
	KindWriteFailed         Kind = "WriteFailed"
	KindPrinterLookupFailed Kind = "PrinterLookupFailed"
	KindUnsupportedPlatform Kind = "UnsupportedPlatform"
)

// Error is the only error type that crosses the backend boundary.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message,omitempty"`
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindPrintCommandFailed:
		return "Print command failed: " + e.Message
	case KindReadFailed:
		return "Failed to read file: " + e.Message
	case KindWriteFailed:
		return "Failed to write file: " + e.Message
	case KindPrinterLookupFailed:
		return "Failed to resolve printer: " + e.Message
	case KindUnsupportedPlatform:
		return "Unsupported platform"
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// PrintCommandFailed reports a rendering or job lifecycle failure.
func PrintCommandFailed(format string, args ...any) *Error {
	return &Error{Kind: KindPrintCommandFailed, Message: fmt.Sprintf(format, args...)}
}

// ReadFailed reports malformed input.
func ReadFailed(format string, args ...any) *Error {
	return &Error{Kind: KindReadFailed, Message: fmt.Sprintf(format, args...)}
}

// WriteFailed reports a staging failure.
func WriteFailed(format string, args ...any) *Error {
	return &Error{Kind: KindWriteFailed, Message: fmt.Sprintf(format, args...)}
}

// PrinterLookupFailed reports an enumeration or capability query failure.
func PrinterLookupFailed(format string, args ...any) *Error {
	return &Error{Kind: KindPrinterLookupFailed, Message: fmt.Sprintf(format, args...)}
}

// ErrUnsupportedPlatform is returned by every operation on targets without a backend.
var ErrUnsupportedPlatform = &Error{Kind: KindUnsupportedPlatform}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// AsError converts any error into an *Error, using fallback as kind for
// errors that did not originate in a backend.
func AsError(err error, fallback Kind) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{Kind: fallback, Message: err.Error()}
}
