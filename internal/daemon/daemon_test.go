package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adcondev/pdf-print-daemon/internal/config"
	"github.com/adcondev/pdf-print-daemon/internal/pdfprint"
	"github.com/adcondev/pdf-print-daemon/internal/printer"
	"github.com/adcondev/pdf-print-daemon/internal/server"
	"github.com/adcondev/pdf-print-daemon/internal/worker"
)

type stubBackend struct {
	printers []printer.PrinterInfo
}

func (s stubBackend) Print(context.Context, printer.PrintRequest) (printer.PrintResult, error) {
	return printer.PrintResult{}, nil
}

func (s stubBackend) ListPrinters(context.Context) ([]printer.PrinterInfo, error) {
	return s.printers, nil
}

func (s stubBackend) DefaultPrinter(context.Context) (string, bool, error) {
	return "", false, nil
}

func (s stubBackend) ListMedia(context.Context, string) ([]printer.MediaOption, error) {
	return nil, nil
}

func newTestProgram(t *testing.T, backend printer.Backend) *Program {
	t.Helper()
	svc := pdfprint.New(backend, pdfprint.Options{TempDir: t.TempDir()})
	ws := server.NewServer(server.Config{QueueSize: 8}, svc, nil)
	t.Cleanup(ws.Shutdown)
	return &Program{
		wsServer:    ws,
		printWorker: worker.NewWorker(ws.JobQueue(), ws, svc, worker.Config{}),
		service:     svc,
		startTime:   time.Now().Add(-90 * time.Second),
	}
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name        string
		printers    []printer.PrinterInfo
		wantStatus  string
		wantPrinter string
	}{
		{
			name:        "healthy",
			printers:    []printer.PrinterInfo{{Name: "Office", IsDefault: true, Status: printer.StatusIdle}},
			wantStatus:  "ok",
			wantPrinter: "ok",
		},
		{
			name:        "no printers",
			wantStatus:  "degraded",
			wantPrinter: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProgram(t, stubBackend{printers: tt.printers})

			rec := httptest.NewRecorder()
			p.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			var got HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Status != tt.wantStatus || got.Printers.Status != tt.wantPrinter {
				t.Errorf("status = %q, printers = %+v", got.Status, got.Printers)
			}
			if got.Queue.Capacity != 8 || got.Queue.Current != 0 {
				t.Errorf("queue = %+v", got.Queue)
			}
			if got.Uptime < 90 {
				t.Errorf("uptime = %d", got.Uptime)
			}
			if got.Build.Env != config.BuildEnvironment {
				t.Errorf("build = %+v", got.Build)
			}
		})
	}
}

func TestServiceOptions(t *testing.T) {
	cfg := config.GetEnvironment("remote")
	cfg.Print.MaxRenderDPI = 300
	cfg.Print.RasterSnapshotDir = "/tmp/raster"

	opts := ServiceOptions(cfg)
	if opts.Render.MaxRenderDPI != 300 || opts.Render.MaxRenderDim != cfg.Print.MaxRenderDim {
		t.Errorf("render policy = %+v", opts.Render)
	}
	if opts.SnapshotDir != "/tmp/raster" || opts.CacheTTL != cfg.Print.CacheTTL || opts.Verbose != cfg.Verbose {
		t.Errorf("options = %+v", opts)
	}
}
