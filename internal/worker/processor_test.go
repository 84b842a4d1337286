package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/adcondev/pdf-print-daemon/internal/pdfprint"
	"github.com/adcondev/pdf-print-daemon/internal/printer"
	"github.com/adcondev/pdf-print-daemon/internal/server"
)

// mockSlowNotifier simulates a slow network connection
type mockSlowNotifier struct {
	delay time.Duration
}

func (m *mockSlowNotifier) NotifyClient(_ *websocket.Conn, _ server.Response) error {
	time.Sleep(m.delay)
	return nil
}

// recordingNotifier keeps every response it is handed
type recordingNotifier struct {
	mu        sync.Mutex
	responses []server.Response
}

func (r *recordingNotifier) NotifyClient(_ *websocket.Conn, response server.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, response)
	return nil
}

func (r *recordingNotifier) snapshot() []server.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]server.Response(nil), r.responses...)
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingObserver) ObserveJob(source, status, kind string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, source+"/"+status+"/"+kind)
}

type mockPrinter struct {
	err   error
	panic bool
	delay time.Duration
}

func (m *mockPrinter) PrintPDF(_ context.Context, req printer.PrintRequest) (printer.PrintResult, error) {
	time.Sleep(m.delay)
	if m.panic {
		panic("renderer exploded")
	}
	if m.err != nil {
		return printer.PrintResult{}, m.err
	}
	return printer.PrintResult{JobID: printer.JobID(12), Printer: req.PrinterName, Message: "GDI print submitted"}, nil
}

func (m *mockPrinter) PrintPDFBytes(ctx context.Context, req printer.PrintBytesRequest) (printer.PrintResult, error) {
	return m.PrintPDF(ctx, req.WithPath("staged.pdf"))
}

func waitForJobs(t *testing.T, w *Worker, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		stats := w.Stats()
		if stats.JobsProcessed+stats.JobsFailed >= int64(n) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Timeout waiting for jobs to process. Processed: %d, Failed: %d", stats.JobsProcessed, stats.JobsFailed)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func waitForResponses(t *testing.T, n *recordingNotifier, count int) []server.Response {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if got := n.snapshot(); len(got) >= count {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("Timeout waiting for %d notifications", count)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWorkerNonBlockingNotification(t *testing.T) {
	jobCount := 5
	notifier := &mockSlowNotifier{delay: 200 * time.Millisecond} // 200ms delay per notification

	jobQueue := make(chan *server.PrintJob, jobCount)
	w := NewWorker(jobQueue, notifier, &mockPrinter{}, Config{})
	w.Start()
	defer w.Stop()

	// Create dummy connection (we need a non-nil pointer)
	dummyConn := &websocket.Conn{}

	for j := 0; j < jobCount; j++ {
		jobQueue <- &server.PrintJob{
			ID:         "test-job",
			ClientConn: dummyConn,
			Request:    &printer.PrintRequest{Path: "a.pdf"},
			ReceivedAt: time.Now(),
		}
	}

	start := time.Now()
	waitForJobs(t, w, jobCount)
	duration := time.Since(start)

	// Blocking notification would take 5 * 200ms
	if duration > 500*time.Millisecond {
		t.Errorf("Expected duration < 500ms (async), got %v", duration)
	}
}

func TestWorkerResults(t *testing.T) {
	tests := []struct {
		name       string
		printer    *mockPrinter
		job        *server.PrintJob
		wantStatus string
		wantKind   printer.Kind
	}{
		{
			name:       "path job",
			printer:    &mockPrinter{},
			job:        &server.PrintJob{ID: "a", Request: &printer.PrintRequest{Path: "a.pdf", PrinterName: "Office"}},
			wantStatus: "success",
		},
		{
			name:       "bytes job",
			printer:    &mockPrinter{},
			job:        &server.PrintJob{ID: "b", Bytes: &printer.PrintBytesRequest{DataBase64: "JVBERg==", PrinterName: "Office"}},
			wantStatus: "success",
		},
		{
			name:       "backend error",
			printer:    &mockPrinter{err: printer.PrintCommandFailed("PDF path does not exist")},
			job:        &server.PrintJob{ID: "c", Request: &printer.PrintRequest{Path: "missing.pdf"}},
			wantStatus: "error",
			wantKind:   printer.KindPrintCommandFailed,
		},
		{
			name:       "foreign error",
			printer:    &mockPrinter{err: errors.New("boom")},
			job:        &server.PrintJob{ID: "d", Request: &printer.PrintRequest{Path: "a.pdf"}},
			wantStatus: "error",
			wantKind:   printer.KindPrintCommandFailed,
		},
		{
			name:       "panic",
			printer:    &mockPrinter{panic: true},
			job:        &server.PrintJob{ID: "e", Request: &printer.PrintRequest{Path: "a.pdf"}},
			wantStatus: "error",
			wantKind:   printer.KindPrintCommandFailed,
		},
		{
			name:       "empty job",
			printer:    &mockPrinter{},
			job:        &server.PrintJob{ID: "f"},
			wantStatus: "error",
			wantKind:   printer.KindReadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			jobQueue := make(chan *server.PrintJob, 1)
			w := NewWorker(jobQueue, notifier, tt.printer, Config{})
			w.Start()
			defer w.Stop()

			tt.job.ClientConn = &websocket.Conn{}
			tt.job.ReceivedAt = time.Now()
			jobQueue <- tt.job

			got := waitForResponses(t, notifier, 1)[0]
			if got.Type != "result" || got.ID != tt.job.ID || got.Status != tt.wantStatus {
				t.Fatalf("response = %+v", got)
			}
			if tt.wantStatus == "success" {
				if got.Result == nil || got.Result.JobID == nil || *got.Result.JobID != 12 || got.Result.Printer != "Office" {
					t.Errorf("result = %+v", got.Result)
				}
				return
			}
			if got.Error == nil || got.Error.Kind != tt.wantKind || got.Message == "" {
				t.Errorf("error = %+v, message = %q", got.Error, got.Message)
			}
		})
	}
}

func TestWorkerStats(t *testing.T) {
	jobQueue := make(chan *server.PrintJob, 3)
	w := NewWorker(jobQueue, nil, &mockPrinter{}, Config{})
	w.Start()

	jobQueue <- &server.PrintJob{ID: "1", Request: &printer.PrintRequest{Path: "a.pdf"}}
	jobQueue <- &server.PrintJob{ID: "2"}
	jobQueue <- &server.PrintJob{ID: "3", Request: &printer.PrintRequest{Path: "b.pdf"}}
	waitForJobs(t, w, 3)
	w.Stop()

	stats := w.Stats()
	if stats.IsRunning || stats.JobsProcessed != 2 || stats.JobsFailed != 1 || stats.LastJobTime.IsZero() {
		t.Errorf("stats = %+v", stats)
	}
}

func TestWorkerObserver(t *testing.T) {
	obs := &recordingObserver{}
	jobQueue := make(chan *server.PrintJob, 2)
	w := NewWorker(jobQueue, nil, &mockPrinter{}, Config{Observer: obs})
	w.Start()

	jobQueue <- &server.PrintJob{ID: "1", Bytes: &printer.PrintBytesRequest{DataBase64: "JVBERg=="}}
	jobQueue <- &server.PrintJob{ID: "2"}
	waitForJobs(t, w, 2)
	w.Stop()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	want := []string{"print_bytes/success/", "print/error/ReadFailed"}
	if len(obs.seen) != len(want) {
		t.Fatalf("observed %v", obs.seen)
	}
	for i := range want {
		if obs.seen[i] != want[i] {
			t.Errorf("observation %d = %q, want %q", i, obs.seen[i], want[i])
		}
	}
}

// recordingBackend is a platform backend that only records submissions
type recordingBackend struct {
	mu    sync.Mutex
	calls []printer.PrintRequest
}

func (b *recordingBackend) Print(_ context.Context, req printer.PrintRequest) (printer.PrintResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, req)
	if req.RemoveAfterPrint {
		_ = os.Remove(req.Path)
	}
	return printer.PrintResult{JobID: printer.JobID(1), Printer: "Office", Message: "submitted"}, nil
}

func (b *recordingBackend) ListPrinters(context.Context) ([]printer.PrinterInfo, error) {
	return nil, nil
}

func (b *recordingBackend) DefaultPrinter(context.Context) (string, bool, error) {
	return "Office", true, nil
}

func (b *recordingBackend) ListMedia(context.Context, string) ([]printer.MediaOption, error) {
	return nil, nil
}

func TestWorkerNeverDeletesClientPaths(t *testing.T) {
	backend := &recordingBackend{}
	svc := pdfprint.New(backend, pdfprint.Options{TempDir: t.TempDir()})

	target := filepath.Join(t.TempDir(), "thesis.txt")
	if err := os.WriteFile(target, []byte("not a pdf"), 0600); err != nil {
		t.Fatal(err)
	}

	jobQueue := make(chan *server.PrintJob, 1)
	w := NewWorker(jobQueue, nil, svc, Config{})
	w.Start()

	jobQueue <- &server.PrintJob{
		ID:      "remote",
		Request: &printer.PrintRequest{Path: target, RemoveAfterPrint: true},
	}
	waitForJobs(t, w, 1)
	w.Stop()

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("client file was removed: %v", err)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.calls) != 1 || backend.calls[0].RemoveAfterPrint {
		t.Errorf("backend calls = %+v", backend.calls)
	}
}
