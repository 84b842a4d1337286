// Package worker drains the print job queue.
package worker

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
	"github.com/adcondev/pdf-print-daemon/internal/server"
	workererrors "github.com/adcondev/pdf-print-daemon/internal/worker/errors"
)

// JobObserver records the outcome of every processed job
type JobObserver interface {
	ObserveJob(source, status, kind string, d time.Duration)
}

// Config holds worker configuration
type Config struct {
	// JobTimeout bounds a single submission; zero means no limit.
	JobTimeout time.Duration
	Observer   JobObserver
}

// ClientNotifier interface for sending results back to clients
type ClientNotifier interface {
	NotifyClient(conn *websocket.Conn, response server.Response) error
}

// Printer submits staged or path-based PDF jobs
type Printer interface {
	PrintPDF(ctx context.Context, req printer.PrintRequest) (printer.PrintResult, error)
	PrintPDFBytes(ctx context.Context, req printer.PrintBytesRequest) (printer.PrintResult, error)
}

// Worker consumes print jobs from the queue and submits them to the print service
type Worker struct {
	jobQueue      <-chan *server.PrintJob
	notifier      ClientNotifier
	printer       Printer
	config        Config
	stopChan      chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	isRunning     bool
	jobsProcessed int64
	jobsFailed    int64
	lastJobTime   time.Time
}

// NewWorker creates a new print worker
func NewWorker(jobQueue <-chan *server.PrintJob, notifier ClientNotifier, p Printer, config Config) *Worker {
	return &Worker{
		jobQueue: jobQueue,
		notifier: notifier,
		printer:  p,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Start begins the worker goroutine
func (w *Worker) Start() {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run()

	log.Println("[WORKER] ✅ Print worker started and ready")
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()

	stats := w.Stats()
	log.Printf("[WORKER] 🛑 Print worker stopped (processed: %d, failed: %d)", stats.JobsProcessed, stats.JobsFailed)
}

// run is the main worker loop
func (w *Worker) run() {
	defer w.wg.Done()

	log.Println("[WORKER] 👂 Waiting for print jobs...")

	for {
		select {
		case <-w.stopChan:
			log.Println("[WORKER] 📴 Received stop signal")
			return

		case job, ok := <-w.jobQueue:
			if !ok {
				log.Println("[WORKER] 📴 Job channel closed, exiting")
				return
			}
			w.processJob(job)
		}
	}
}

// processJob handles a single print job
func (w *Worker) processJob(job *server.PrintJob) {
	startTime := time.Now()
	log.Printf("[WORKER] 🔄 Processing job: %s (waited %v)", job.ID, startTime.Sub(job.ReceivedAt).Round(time.Millisecond))

	result, err := w.executePrint(job)

	duration := time.Since(startTime)

	// Update statistics
	w.mu.Lock()
	w.lastJobTime = time.Now()
	if err != nil {
		w.jobsFailed++
	} else {
		w.jobsProcessed++
	}
	w.mu.Unlock()

	response := buildResponse(job.ID, result, err, duration)
	w.observe(job, response, duration)

	// Notify client (async to not block worker loop)
	if job.ClientConn != nil && w.notifier != nil {
		go func() {
			if err := w.notifier.NotifyClient(job.ClientConn, response); err != nil {
				log.Printf("[WORKER] ⚠️ Failed to notify client for job %s: %v", job.ID, err)
			}
		}()
	}
}

func (w *Worker) observe(job *server.PrintJob, response server.Response, d time.Duration) {
	if w.config.Observer == nil {
		return
	}
	source := server.TypePrint
	if job.Bytes != nil {
		source = server.TypePrintBytes
	}
	var kind string
	if response.Error != nil {
		kind = string(response.Error.Kind)
	}
	w.config.Observer.ObserveJob(source, response.Status, kind, d)
}

// buildResponse turns the submission outcome into the "result" message
func buildResponse(id string, result printer.PrintResult, err error, duration time.Duration) server.Response {
	if err != nil {
		// Log detailed error to file for debugging
		log.Printf("[WORKER] ❌ Job %s FAILED after %v: %v", id, duration, err)

		return server.Response{
			Type:    "result",
			ID:      id,
			Status:  "error",
			Message: workererrors.ExtractUserFriendlyError(err),
			Error:   printer.AsError(err, printer.KindPrintCommandFailed),
		}
	}

	log.Printf("[WORKER] ✅ Job %s submitted to %q in %v", id, result.Printer, duration)
	res := result
	return server.Response{
		Type:    "result",
		ID:      id,
		Status:  "success",
		Message: fmt.Sprintf("%s (%v)", result.Message, duration.Round(time.Millisecond)),
		Result:  &res,
	}
}

// executePrint hands the job to the print service
func (w *Worker) executePrint(job *server.PrintJob) (result printer.PrintResult, err error) {
	// Panics become job errors
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered in executePrint: %v", r)
			log.Printf("[WORKER] 💥 Panic in job %s: %v\nStack: %s",
				job.ID, r, debug.Stack())
		}
	}()

	ctx := context.Background()
	if w.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.JobTimeout)
		defer cancel()
	}

	switch {
	case job.Bytes != nil:
		log.Printf("[WORKER] 🖨️ Job %s -> Printer: %s (inline PDF)", job.ID, printerLabel(job.Bytes.PrinterName))
		return w.printer.PrintPDFBytes(ctx, *job.Bytes)
	case job.Request != nil:
		log.Printf("[WORKER] 🖨️ Job %s -> Printer: %s (%s)", job.ID, printerLabel(job.Request.PrinterName), job.Request.Path)
		return w.printer.PrintPDF(ctx, *job.Request)
	default:
		return printer.PrintResult{}, printer.ReadFailed("job %s carries no PDF", job.ID)
	}
}

func printerLabel(name string) string {
	if name == "" {
		return "<default>"
	}
	return name
}

// Stats returns current worker statistics
func (w *Worker) Stats() Statistics {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Statistics{
		IsRunning:     w.isRunning,
		JobsProcessed: w.jobsProcessed,
		JobsFailed:    w.jobsFailed,
		LastJobTime:   w.lastJobTime,
	}
}

// Statistics holds worker runtime statistics
type Statistics struct {
	IsRunning     bool      `json:"is_running"`
	JobsProcessed int64     `json:"jobs_processed"`
	JobsFailed    int64     `json:"jobs_failed"`
	LastJobTime   time.Time `json:"last_job_time,omitempty"`
}
