package pdfprint

import (
	"context"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// unsupportedBackend is linked on targets without a native print path
type unsupportedBackend struct{}

func (unsupportedBackend) Print(context.Context, printer.PrintRequest) (printer.PrintResult, error) {
	return printer.PrintResult{}, printer.ErrUnsupportedPlatform
}

func (unsupportedBackend) ListPrinters(context.Context) ([]printer.PrinterInfo, error) {
	return nil, printer.ErrUnsupportedPlatform
}

func (unsupportedBackend) DefaultPrinter(context.Context) (string, bool, error) {
	return "", false, printer.ErrUnsupportedPlatform
}

func (unsupportedBackend) ListMedia(context.Context, string) ([]printer.MediaOption, error) {
	return nil, printer.ErrUnsupportedPlatform
}
