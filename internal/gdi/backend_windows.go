//go:build windows

package gdi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-ole/go-ole"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

const sFalse = 1

// Backend implements printer.Backend with the WinRT + GDI raster pipeline
type Backend struct {
	policy      Policy
	snapshotDir string
	verbose     bool
	wait        bool
}

// NewBackend creates the Windows backend
func NewBackend(opts Options) *Backend {
	return &Backend{
		policy:      opts.Policy.normalized(),
		snapshotDir: opts.SnapshotDir,
		verbose:     opts.Verbose,
		wait:        opts.Wait,
	}
}

func (b *Backend) resolvePrinter(req printer.PrintRequest) (string, error) {
	if req.PrinterName != "" {
		return req.PrinterName, nil
	}
	name, err := defaultPrinter()
	if err != nil {
		return "", printer.PrinterLookupFailed("%v", err)
	}
	if name == "" {
		return "", printer.PrinterLookupFailed("No default printer configured")
	}
	return name, nil
}

// Print validates the request, then runs the pipeline on a detached
// goroutine. The caller only learns that the job was submitted, unless the
// backend was built with Wait.
func (b *Backend) Print(_ context.Context, req printer.PrintRequest) (printer.PrintResult, error) {
	if !isRegularFile(req.Path) {
		return printer.PrintResult{}, printer.PrintCommandFailed("PDF path does not exist")
	}
	name, err := b.resolvePrinter(req)
	if err != nil {
		return printer.PrintResult{}, err
	}
	if b.wait {
		return b.PrintSync(req, name)
	}

	log.Printf("[GDI] 📥 Print queued (path: %s, printer: %s)", req.Path, name)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[GDI] 💥 Panic in print job (printer: %s): %v\nStack:  %s", name, r, debug.Stack())
			}
		}()
		result, err := b.PrintSync(req, name)
		if err != nil {
			log.Printf("[GDI] ❌ Print job failed (printer: %s): %v", name, err)
			return
		}
		log.Printf("[GDI] ✅ Print job completed (printer: %s, job: %d, path: %s)", name, *result.JobID, req.Path)
	}()

	return printer.PrintResult{
		Printer: name,
		Message: "Print job submitted (async)",
	}, nil
}

// PrintSync runs the full pipeline on the calling goroutine and reports the
// spooler job id.
func (b *Backend) PrintSync(req printer.PrintRequest, printerName string) (printer.PrintResult, error) {
	start := time.Now()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		// S_FALSE: apartment already initialized on this thread
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return printer.PrintResult{}, printer.PrintCommandFailed("Failed to init COM: %v", err)
		}
	}
	defer ole.CoUninitialize()

	jobName := req.JobName
	if jobName == "" {
		jobName = filepath.Base(req.Path)
	}

	doc, err := loadDocument(req.Path)
	if err != nil {
		return printer.PrintResult{}, err
	}
	defer doc.close()

	pages, err := doc.pageCount()
	if err != nil {
		return printer.PrintResult{}, err
	}
	log.Printf("[GDI] 📄 PDF loaded (pages: %d, elapsed: %v)", pages, time.Since(start))

	var devmode []byte
	if ticket := TicketFrom(req); !ticket.Empty() {
		devmode, err = buildDevmode(printerName, ticket)
		if err != nil {
			log.Printf("[GDI] ⚠️ Job settings ignored, using driver defaults: %v", err)
			devmode = nil
		}
	}

	dc, err := createPrinterDC(printerName, devmode)
	if err != nil {
		return printer.PrintResult{}, printer.PrintCommandFailed("Failed to create printer DC")
	}
	defer dc.delete()

	caps := dc.caps()
	if b.verbose {
		log.Printf("[GDI] Printer caps printable %dx%d, offset %dx%d, physical %dx%d, dpi %dx%d",
			caps.PrintableWidth, caps.PrintableHeight, caps.OffsetX, caps.OffsetY,
			caps.PhysicalWidth, caps.PhysicalHeight, caps.DPIX, caps.DPIY)
	}

	jobID, err := dc.startDoc(jobName)
	if err != nil {
		return printer.PrintResult{}, printer.PrintCommandFailed("Failed to start GDI print job (error %d)", errno(err))
	}
	dc.setHalftone()

	for i := uint32(0); i < pages; i++ {
		if err := b.printPage(dc, doc, i, caps, jobName); err != nil {
			_ = dc.endDoc()
			return printer.PrintResult{}, err
		}
		log.Printf("[GDI] 🖨️ Page %d/%d sent (elapsed: %v)", i+1, pages, time.Since(start))
	}

	if err := dc.endDoc(); err != nil {
		return printer.PrintResult{}, printer.PrintCommandFailed("Failed to finalize GDI print job (error %d)", errno(err))
	}

	if req.RemoveAfterPrint {
		if err := os.Remove(req.Path); err != nil {
			log.Printf("[GDI] ⚠️ Could not remove %s: %v", req.Path, err)
		}
	}

	log.Printf("[GDI] ✅ EndDoc ok (job: %d, elapsed: %v)", jobID, time.Since(start))
	return printer.PrintResult{
		JobID:   printer.JobID(uint32(jobID)),
		Printer: printerName,
		Message: "GDI print submitted",
	}, nil
}

func (b *Backend) printPage(dc deviceContext, doc *pdfDocument, index uint32, caps Caps, jobName string) error {
	page, err := doc.page(index)
	if err != nil {
		return err
	}
	defer page.release()

	w, h, err := pageSize(page)
	if err != nil {
		return err
	}
	targetW, targetH := b.policy.TargetSize(w, h, caps.DPIX, caps.DPIY)

	raster, err := renderPage(page, targetW, targetH)
	if err != nil {
		return err
	}
	if b.verbose {
		log.Printf("[GDI] Page %d rasterized %s (target %dx%d)", index+1, raster, targetW, targetH)
	}

	if b.snapshotDir != "" {
		if path, err := WriteSnapshot(b.snapshotDir, jobName, int(index)+1, raster.Pixels, raster.Width, raster.Height); err != nil {
			log.Printf("[GDI] ⚠️ Snapshot failed: %v", err)
		} else {
			log.Printf("[GDI] 📸 Snapshot written: %s", path)
		}
	}

	dest := FitRect(caps, raster.Width, raster.Height)

	if !dc.startPage() {
		return printer.PrintCommandFailed("Failed to start GDI page")
	}
	if err := dc.stretch(raster, dest); err != nil {
		dc.endPage()
		return printer.PrintCommandFailed("Failed to render page to printer (error %d)", errno(err))
	}
	if !dc.endPage() {
		return printer.PrintCommandFailed("Failed to end GDI page")
	}
	return nil
}

// ListPrinters enumerates printers with PRINTER_INFO_2 status
func (b *Backend) ListPrinters(context.Context) ([]printer.PrinterInfo, error) {
	return enumPrinters()
}

// DefaultPrinter reads the user's default printer
func (b *Backend) DefaultPrinter(context.Context) (string, bool, error) {
	name, err := defaultPrinter()
	if err != nil {
		return "", false, printer.PrinterLookupFailed("%v", err)
	}
	return name, name != "", nil
}

// ListMedia enumerates driver forms
func (b *Backend) ListMedia(_ context.Context, printerName string) ([]printer.MediaOption, error) {
	forms, err := enumForms(printerName)
	if err != nil {
		return nil, err
	}
	return MediaFromForms(forms), nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

var _ printer.Backend = (*Backend)(nil)

// String names the backend in diagnostics
func (b *Backend) String() string {
	return fmt.Sprintf("gdi (max %d dpi, %d px)", b.policy.MaxRenderDPI, b.policy.MaxRenderDim)
}
