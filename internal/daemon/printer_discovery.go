package daemon

import (
	"context"
	"log"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// PrinterDirectory is the lookup surface needed for startup diagnostics
type PrinterDirectory interface {
	RefreshPrinters(ctx context.Context) ([]printer.PrinterInfo, error)
	GetPrinterMedia(ctx context.Context, printerName string) ([]printer.MediaOption, error)
}

// LogStartupDiagnostics logs printer info at service start. It also warms
// the printer cache so the first client request is served from memory.
func LogStartupDiagnostics(ctx context.Context, dir PrinterDirectory, verbose bool) {
	printers, err := dir.RefreshPrinters(ctx)
	if err != nil {
		log.Printf("[PRINTERS] ⚠️ Error enumerating printers: %v", err)
		return
	}

	log.Println("[PRINTERS] ══════════════════════════════════════════════════")
	log.Printf("[PRINTERS] 🖨️ Detected %d installed printer(s)", len(printers))

	var defaultName string
	for _, p := range printers {
		mark := ""
		if p.IsDefault {
			mark = " ⭐"
			defaultName = p.Name
		}
		log.Printf("[PRINTERS]    • %s (%s)%s", p.Name, p.Status, mark)
	}

	switch {
	case len(printers) == 0:
		log.Println("[PRINTERS] ⚠️ No printers detected!")
	case defaultName == "":
		log.Println("[PRINTERS] ⚠️ No default printer configured, requests must name a printer")
	}

	if verbose && defaultName != "" {
		media, err := dir.GetPrinterMedia(ctx, defaultName)
		if err != nil {
			log.Printf("[PRINTERS] ⚠️ Media query for %s failed: %v", defaultName, err)
		} else {
			log.Printf("[PRINTERS]    %d media option(s) on %s", len(media), defaultName)
		}
	}
	log.Println("[PRINTERS] ══════════════════════════════════════════════════")
}
