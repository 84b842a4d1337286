// Package pdfprint is the platform-agnostic entry point: it stages inline
// payloads, caches printer and media enumeration and forwards to the single
// backend linked for the target OS.
package pdfprint

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/adcondev/pdf-print-daemon/internal/cache"
	"github.com/adcondev/pdf-print-daemon/internal/gdi"
	"github.com/adcondev/pdf-print-daemon/internal/printer"
	"github.com/adcondev/pdf-print-daemon/internal/staging"
)

// DefaultCacheTTL is the lifetime of printer and media lookups
const DefaultCacheTTL = 30 * time.Second

const printersKey = "printers"

// Options configures the service and the platform backend
type Options struct {
	CacheTTL    time.Duration
	TempDir     string
	TempPrefix  string
	Render      gdi.Policy
	SnapshotDir string
	Verbose     bool
	// Wait blocks Windows submissions until the spooler holds the job
	Wait        bool
}

// Service exposes the five print operations
type Service struct {
	backend  printer.Backend
	stager   *staging.Stager
	printers *cache.TTL[string, []printer.PrinterInfo]
	media    *cache.TTL[string, []printer.MediaOption]
}

// New wraps a backend with caching and staging
func New(backend printer.Backend, opts Options) *Service {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		backend:  backend,
		stager:   staging.NewStager(opts.TempDir, opts.TempPrefix),
		printers: cache.New[string, []printer.PrinterInfo](ttl),
		media:    cache.New[string, []printer.MediaOption](ttl),
	}
}

// NewPlatform creates a service on the backend linked for this OS
func NewPlatform(opts Options) *Service {
	return New(NewPlatformBackend(opts), opts)
}

// PrintPDF submits an existing file. RemoveAfterPrint is honored only for
// files staged by this service; caller-owned paths are never deleted.
func (s *Service) PrintPDF(ctx context.Context, req printer.PrintRequest) (printer.PrintResult, error) {
	start := time.Now()
	if req.RemoveAfterPrint && !s.stager.Owns(req.Path) {
		log.Printf("[PRINT] ⚠️ Ignoring removeAfterPrint for unstaged path %s", req.Path)
		req.RemoveAfterPrint = false
	}
	log.Printf("[PRINT] 🖨️ print_pdf (path: %s, printer: %q, copies: %d, duplex: %q, paper: %q)",
		req.Path, req.PrinterName, req.Copies, req.Duplex, req.PaperSize)

	result, err := s.backend.Print(ctx, req)
	if err != nil {
		log.Printf("[PRINT] ❌ print_pdf failed after %v: %v", time.Since(start), err)
		return printer.PrintResult{}, printer.AsError(err, printer.KindPrintCommandFailed)
	}
	log.Printf("[PRINT] ✅ %s (printer: %s, elapsed: %v)", result.Message, result.Printer, time.Since(start))
	return result, nil
}

// PrintPDFBytes stages the base64 payload to a temp file and prints it.
// Malformed input fails with ReadFailed before anything touches the disk.
func (s *Service) PrintPDFBytes(ctx context.Context, req printer.PrintBytesRequest) (printer.PrintResult, error) {
	log.Printf("[PRINT] 📦 print_pdf_bytes (base64_len: %d, printer: %q)", len(req.DataBase64), req.PrinterName)

	path, err := s.stager.StageBytes(req.DataBase64)
	if err != nil {
		return printer.PrintResult{}, err
	}

	result, err := s.PrintPDF(ctx, req.WithPath(path))
	if err != nil && req.RemoveAfterPrint {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Printf("[STAGE] ⚠️ Could not remove %s: %v", path, rmErr)
		}
	}
	return result, err
}

// GetPrinters returns installed printers, cached for the configured TTL
func (s *Service) GetPrinters(ctx context.Context) ([]printer.PrinterInfo, error) {
	printers, cached, err := s.printers.GetOrFetch(printersKey, func() ([]printer.PrinterInfo, error) {
		return s.backend.ListPrinters(ctx)
	})
	if err != nil {
		log.Printf("[CACHE] ⚠️ Printer enumeration failed: %v", err)
		return nil, printer.AsError(err, printer.KindPrinterLookupFailed)
	}
	if !cached {
		log.Printf("[CACHE] 🔄 Printers refreshed (%d)", len(printers))
	}
	return clonePrinters(printers), nil
}

// RefreshPrinters drops the cached list and enumerates again
func (s *Service) RefreshPrinters(ctx context.Context) ([]printer.PrinterInfo, error) {
	s.printers.Invalidate(printersKey)
	return s.GetPrinters(ctx)
}

// GetDefaultPrinter reports the OS default printer; ok is false when none is set
func (s *Service) GetDefaultPrinter(ctx context.Context) (string, bool, error) {
	name, ok, err := s.backend.DefaultPrinter(ctx)
	if err != nil {
		return "", false, printer.AsError(err, printer.KindPrinterLookupFailed)
	}
	return name, ok, nil
}

// GetPrinterMedia lists paper sizes. An empty name means the default
// printer; with no default the result is an empty list, not an error.
func (s *Service) GetPrinterMedia(ctx context.Context, printerName string) ([]printer.MediaOption, error) {
	name := printerName
	if name == "" {
		def, ok, err := s.GetDefaultPrinter(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []printer.MediaOption{}, nil
		}
		name = def
	}

	media, cached, err := s.media.GetOrFetch(name, func() ([]printer.MediaOption, error) {
		return s.backend.ListMedia(ctx, name)
	})
	if err != nil {
		log.Printf("[CACHE] ⚠️ Media enumeration failed for %s: %v", name, err)
		return nil, printer.AsError(err, printer.KindPrinterLookupFailed)
	}
	if !cached {
		log.Printf("[CACHE] 🔄 Media refreshed for %s (%d)", name, len(media))
	}
	return cloneMedia(media), nil
}

// Summary provides a lightweight overview for health checks
func (s *Service) Summary(ctx context.Context) printer.Summary {
	printers, err := s.GetPrinters(ctx)
	if err != nil {
		return printer.Summary{Status: "error", CachedMedia: s.media.Len()}
	}

	summary := printer.Summary{Status: "ok", DetectedCount: len(printers), CachedMedia: s.media.Len()}
	for _, p := range printers {
		if p.IsDefault {
			summary.DefaultName = p.Name
		}
		switch p.Status {
		case printer.StatusOffline, printer.StatusStopped, printer.StatusDisabled:
		default:
			summary.OnlineCount++
		}
	}

	switch {
	case len(printers) == 0:
		summary.Status = "error"
	case summary.OnlineCount == 0 || summary.DefaultName == "":
		summary.Status = "warning"
	}
	return summary
}

// Callers get copies so cached slices are never mutated
func clonePrinters(in []printer.PrinterInfo) []printer.PrinterInfo {
	out := make([]printer.PrinterInfo, len(in))
	copy(out, in)
	return out
}

func cloneMedia(in []printer.MediaOption) []printer.MediaOption {
	out := make([]printer.MediaOption, len(in))
	copy(out, in)
	return out
}
