// Command PdfPrintServicio runs the PDF print daemon. It receives PDFs over
// WebSocket and prints them through the platform's native print facility.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/judwhite/go-svc"

	"github.com/adcondev/pdf-print-daemon/internal/daemon"
	"github.com/adcondev/pdf-print-daemon/internal/pdfprint"
	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

func main() {
	// Parse flags
	consoleMode := flag.Bool("console", false, "Run in console mode (not as service)")
	listPrinters := flag.Bool("list", false, "List installed printers as JSON and exit")
	listMedia := flag.Bool("media", false, "List media of -printer (or the default) as JSON and exit")
	printPath := flag.String("print", "", "Print a PDF file and exit")
	printerName := flag.String("printer", "", "Printer for -print and -media (default printer when empty)")
	copies := flag.Uint("copies", 0, "Copies for -print")
	duplex := flag.String("duplex", "", "Duplex for -print: none, long or short")
	paper := flag.String("paper", "", "Paper size for -print")
	flag.Parse()

	if *listPrinters || *listMedia || *printPath != "" {
		req := printer.PrintRequest{
			Path:        *printPath,
			PrinterName: *printerName,
			Copies:      uint32(*copies),
			Duplex:      printer.Duplex(*duplex),
			PaperSize:   *paper,
		}
		os.Exit(runOnce(*listPrinters, *listMedia, req))
	}

	prg := &daemon.Program{}

	// Check if running interactively (console mode)
	if *consoleMode || isInteractive() {
		runConsole(prg)
	} else {
		// Run as Windows Service
		if err := svc.Run(prg, syscall.SIGINT, syscall.SIGTERM); err != nil {
			log.Fatal(err)
		}
	}
}

// runOnce answers a single CLI query without starting the daemon
func runOnce(list, media bool, req printer.PrintRequest) int {
	opts := daemon.ServiceOptions(daemon.GetEnvConfig())
	opts.Wait = true
	service := pdfprint.NewPlatform(opts)
	ctx := context.Background()

	var (
		out any
		err error
	)
	switch {
	case list:
		out, err = service.GetPrinters(ctx)
	case media:
		out, err = service.GetPrinterMedia(ctx, req.PrinterName)
	default:
		out, err = service.PrintPDF(ctx, req)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err != nil {
		_ = enc.Encode(struct {
			Error *printer.Error `json:"error"`
		}{printer.AsError(err, printer.KindPrintCommandFailed)})
		return 1
	}
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// runConsole runs the program in console mode
func runConsole(prg *daemon.Program) {
	// Initialize
	if err := prg.Init(nil); err != nil {
		log.Fatalf("Init failed: %v", err)
	}

	// Start
	if err := prg.Start(); err != nil {
		log.Fatalf("Start failed: %v", err)
	}

	log.Println("═══════════════════════════════════════════════════════")
	log.Println("  📄 PDF PRINT SERVICIO - Modo Consola")
	log.Println("  Presiona Ctrl+C para detener...")
	log.Println("═══════════════════════════════════════════════════════")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("🛑 Shutting down...")
	if err := prg.Stop(); err != nil {
		log.Printf("Stop failed: %v", err)
	}
}

// isInteractive checks if running from a terminal (not as service)
func isInteractive() bool {
	// Check if stdin is a terminal
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	// If stdin is a character device (terminal), we're interactive
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
