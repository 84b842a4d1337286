// Package server handles WebSocket connections and print job queueing.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// Message types accepted from clients
const (
	TypePrint             = "print"
	TypePrintBytes        = "print_bytes"
	TypeGetPrinters       = "get_printers"
	TypeGetDefaultPrinter = "get_default_printer"
	TypeGetPrinterMedia   = "get_printer_media"
	TypeStatus            = "status"
	TypePing              = "ping"
)

// Directory answers printer lookups synchronously; results are cached by
// the service so these calls do not go through the job queue.
type Directory interface {
	GetPrinters(ctx context.Context) ([]printer.PrinterInfo, error)
	RefreshPrinters(ctx context.Context) ([]printer.PrinterInfo, error)
	GetDefaultPrinter(ctx context.Context) (string, bool, error)
	GetPrinterMedia(ctx context.Context, printerName string) ([]printer.MediaOption, error)
}

// TokenChecker validates the per-message token for a client
type TokenChecker interface {
	Enabled() bool
	Check(client, token string) bool
}

// RejectionObserver counts requests refused before reaching the queue
type RejectionObserver interface {
	ObserveRejection(reason string)
}

// Config holds server configuration
type Config struct {
	QueueSize        int
	AllowedOrigins   []string
	MaxJobsPerMinute int
	Rejections       RejectionObserver
}

// PrintJob represents a queued print request. Exactly one of Request and
// Bytes is set.
type PrintJob struct {
	ID         string                     `json:"id"`
	ClientConn *websocket.Conn            `json:"-"`
	Request    *printer.PrintRequest      `json:"request,omitempty"`
	Bytes      *printer.PrintBytesRequest `json:"-"`
	ReceivedAt time.Time                  `json:"received_at"`
}

// Message represents incoming WebSocket message
type Message struct {
	Type  string          `json:"type"`
	ID    string          `json:"id,omitempty"`
	Token string          `json:"token,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Response represents outgoing WebSocket message
type Response struct {
	Type     string               `json:"type"`
	ID       string               `json:"id,omitempty"`
	Status   string               `json:"status,omitempty"`
	Message  string               `json:"message,omitempty"`
	Result   *printer.PrintResult `json:"result,omitempty"`
	Error    *printer.Error       `json:"error,omitempty"`
	Current  int                  `json:"current,omitempty"`
	Capacity int                  `json:"capacity,omitempty"`
}

type printersResponse struct {
	Type     string                `json:"type"`
	ID       string                `json:"id,omitempty"`
	Status   string                `json:"status"`
	Printers []printer.PrinterInfo `json:"printers"`
}

type defaultPrinterResponse struct {
	Type    string  `json:"type"`
	ID      string  `json:"id,omitempty"`
	Status  string  `json:"status"`
	Printer *string `json:"printer"`
}

type mediaResponse struct {
	Type    string                `json:"type"`
	ID      string                `json:"id,omitempty"`
	Status  string                `json:"status"`
	Printer string                `json:"printer,omitempty"`
	Media   []printer.MediaOption `json:"media"`
}

type printersRequest struct {
	Refresh bool `json:"refresh"`
}

type mediaRequest struct {
	PrinterName string `json:"printerName"`
}

// Server manages WebSocket connections and job queue
type Server struct {
	clients      *ClientRegistry
	jobQueue     chan *PrintJob
	queueSize    int
	shutdownOnce sync.Once
	shutdownChan chan struct{}
	directory    Directory
	tokens       TokenChecker
	limiter      *JobRateLimiter
	acceptOpts   *websocket.AcceptOptions
	rejections   RejectionObserver
}

// NewServer creates a new WebSocket server. tokens may be nil.
func NewServer(cfg Config, directory Directory, tokens TokenChecker) *Server {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.MaxJobsPerMinute <= 0 {
		cfg.MaxJobsPerMinute = 60
	}

	return &Server{
		clients:      NewClientRegistry(),
		jobQueue:     make(chan *PrintJob, cfg.QueueSize),
		queueSize:    cfg.QueueSize,
		shutdownChan: make(chan struct{}),
		directory:    directory,
		tokens:       tokens,
		limiter:      NewJobRateLimiter(cfg.MaxJobsPerMinute),
		acceptOpts:   acceptOptions(cfg.AllowedOrigins),
		rejections:   cfg.Rejections,
	}
}

// acceptOptions maps the allowed origins to the websocket origin check.
// No origins means same-origin only; "*" disables the check.
func acceptOptions(origins []string) *websocket.AcceptOptions {
	for _, o := range origins {
		if o == "*" {
			return &websocket.AcceptOptions{InsecureSkipVerify: true}
		}
	}
	return &websocket.AcceptOptions{OriginPatterns: origins}
}

// QueueStatus returns current and max queue size
func (s *Server) QueueStatus() (current, capacity int) {
	return len(s.jobQueue), cap(s.jobQueue)
}

// JobQueue returns the job queue channel (for worker consumption)
func (s *Server) JobQueue() <-chan *PrintJob {
	return s.jobQueue
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	return s.clients.Count()
}

// HandleWebSocket handles WebSocket connections
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, s.acceptOpts)
	if err != nil {
		log.Printf("[WS] ❌ Error accepting client: %v", err)
		return
	}

	// Register client
	client := clientID(r)
	s.clients.Add(conn, client)
	log.Printf("[WS] ➕ Client connected (total: %d) from %s", s.clients.Count(), r.RemoteAddr)

	ctx := r.Context()
	welcome := Response{
		Type:    "info",
		Status:  "connected",
		Message: "PDF print service ready",
	}
	_ = wsjson.Write(ctx, conn, welcome)

	s.handleMessages(ctx, conn, client)

	// Cleanup on disconnect
	stayed, jobs := s.clients.Remove(conn)
	_ = conn.Close(websocket.StatusNormalClosure, "disconnected")
	log.Printf("[WS] ➖ Client disconnected after %v, %d job(s) (remaining: %d)",
		stayed.Round(time.Second), jobs, s.clients.Count())
}

// clientID identifies a client by host, ignoring the ephemeral port
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// handleMessages processes incoming messages from a client
func (s *Server) handleMessages(ctx context.Context, conn *websocket.Conn, client string) {
	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}

		var msg Message
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			// Normal closure or context cancelled
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway ||
				ctx.Err() != nil {
				return
			}
			log.Printf("[WS] ⚠️ Error reading message: %v", err)
			return
		}

		s.routeMessage(ctx, conn, client, &msg)
	}
}

// routeMessage routes message to appropriate handler
func (s *Server) routeMessage(ctx context.Context, conn *websocket.Conn, client string, msg *Message) {
	if msg.Type == TypePing {
		s.handlePing(ctx, conn, msg)
		return
	}

	if s.tokens != nil && s.tokens.Enabled() && !s.tokens.Check(client, msg.Token) {
		log.Printf("[AUDIT] TOKEN_REJECTED | client=%s | type=%s", client, msg.Type)
		s.reject("unauthorized")
		s.sendError(ctx, conn, msg.ID, printer.PrintCommandFailed("Unauthorized: invalid or missing token"))
		return
	}

	switch msg.Type {
	case TypePrint, TypePrintBytes:
		s.handlePrint(ctx, conn, client, msg)
	case TypeGetPrinters:
		s.handleGetPrinters(ctx, conn, msg)
	case TypeGetDefaultPrinter:
		s.handleGetDefaultPrinter(ctx, conn, msg)
	case TypeGetPrinterMedia:
		s.handleGetPrinterMedia(ctx, conn, msg)
	case TypeStatus:
		s.handleStatus(ctx, conn, msg)
	default:
		log.Printf("[WS] ⚠️ Unknown message type: %s", msg.Type)
		s.sendError(ctx, conn, msg.ID, printer.PrintCommandFailed("Unknown message type: %s", msg.Type))
	}
}

// decodeJob validates the payload of a print message
func decodeJob(jobID string, msg *Message) (*PrintJob, *printer.Error) {
	if len(msg.Data) == 0 {
		return nil, printer.ReadFailed("Field 'data' is required for type '%s'", msg.Type)
	}

	job := &PrintJob{ID: jobID, ReceivedAt: time.Now()}
	if msg.Type == TypePrintBytes {
		var req printer.PrintBytesRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return nil, printer.ReadFailed("invalid print_bytes payload: %v", err)
		}
		if req.DataBase64 == "" {
			return nil, printer.ReadFailed("Field 'dataBase64' is required")
		}
		job.Bytes = &req
		return job, nil
	}

	var req printer.PrintRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return nil, printer.ReadFailed("invalid print payload: %v", err)
	}
	if req.Path == "" {
		return nil, printer.ReadFailed("Field 'path' is required")
	}
	job.Request = &req
	return job, nil
}

// handlePrint validates and enqueues a print job
func (s *Server) handlePrint(ctx context.Context, conn *websocket.Conn, client string, msg *Message) {
	// Generate ID if not provided
	jobID := msg.ID
	if jobID == "" {
		jobID = uuid.New().String()
	}

	job, perr := decodeJob(jobID, msg)
	if perr != nil {
		log.Printf("[QUEUE] ❌ Job %s rejected: %v", jobID, perr)
		s.reject("invalid")
		s.sendError(ctx, conn, jobID, perr)
		return
	}

	if ok, retryAfter := s.limiter.Reserve(client); !ok {
		log.Printf("[QUEUE] 🚫 Job %s rejected: rate limit for %s", jobID, client)
		s.reject("rate_limited")
		s.sendError(ctx, conn, jobID, printer.PrintCommandFailed(
			"Too many print jobs, please retry in %ds", int(retryAfter.Seconds())+1))
		return
	}
	job.ClientConn = conn

	// Try to enqueue (non-blocking)
	select {
	case s.jobQueue <- job:
		s.clients.RecordJob(conn)
		current, capacity := s.QueueStatus()
		log.Printf("[QUEUE] 📥 Job queued: %s (queue: %d/%d)", jobID, current, capacity)

		_ = wsjson.Write(ctx, conn, Response{
			Type:     "ack",
			ID:       jobID,
			Status:   "queued",
			Current:  current,
			Capacity: capacity,
			Message:  "Job queued for printing",
		})

	default:
		// Queue full
		current, capacity := s.QueueStatus()
		log.Printf("[QUEUE] 🚫 Queue full, rejecting job: %s (%d/%d)", jobID, current, capacity)
		s.reject("queue_full")
		s.sendError(ctx, conn, jobID, printer.PrintCommandFailed("Queue full, please retry in a few seconds"))
	}
}

// handleStatus sends queue status
func (s *Server) handleStatus(ctx context.Context, conn *websocket.Conn, msg *Message) {
	current, capacity := s.QueueStatus()

	response := Response{
		Type:     "status",
		ID:       msg.ID,
		Status:   "ok",
		Current:  current,
		Capacity: capacity,
		Message:  formatStatus(current, capacity),
	}
	_ = wsjson.Write(ctx, conn, response)
}

// handlePing responds to ping
func (s *Server) handlePing(ctx context.Context, conn *websocket.Conn, msg *Message) {
	response := Response{
		Type:   "pong",
		ID:     msg.ID,
		Status: "ok",
	}
	_ = wsjson.Write(ctx, conn, response)
}

// handleGetPrinters handles printer enumeration requests
func (s *Server) handleGetPrinters(ctx context.Context, conn *websocket.Conn, msg *Message) {
	var req printersRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.sendError(ctx, conn, msg.ID, printer.ReadFailed("invalid get_printers payload: %v", err))
			return
		}
	}

	lookup := s.directory.GetPrinters
	if req.Refresh {
		lookup = s.directory.RefreshPrinters
	}
	printers, err := lookup(ctx)
	if err != nil {
		s.sendError(ctx, conn, msg.ID, printer.AsError(err, printer.KindPrinterLookupFailed))
		return
	}

	_ = wsjson.Write(ctx, conn, printersResponse{
		Type:     "printers",
		ID:       msg.ID,
		Status:   "ok",
		Printers: printers,
	})
}

func (s *Server) handleGetDefaultPrinter(ctx context.Context, conn *websocket.Conn, msg *Message) {
	name, ok, err := s.directory.GetDefaultPrinter(ctx)
	if err != nil {
		s.sendError(ctx, conn, msg.ID, printer.AsError(err, printer.KindPrinterLookupFailed))
		return
	}

	response := defaultPrinterResponse{Type: "default_printer", ID: msg.ID, Status: "ok"}
	if ok {
		response.Printer = &name
	}
	_ = wsjson.Write(ctx, conn, response)
}

func (s *Server) handleGetPrinterMedia(ctx context.Context, conn *websocket.Conn, msg *Message) {
	var req mediaRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.sendError(ctx, conn, msg.ID, printer.ReadFailed("invalid get_printer_media payload: %v", err))
			return
		}
	}

	media, err := s.directory.GetPrinterMedia(ctx, req.PrinterName)
	if err != nil {
		s.sendError(ctx, conn, msg.ID, printer.AsError(err, printer.KindPrinterLookupFailed))
		return
	}

	_ = wsjson.Write(ctx, conn, mediaResponse{
		Type:    "media",
		ID:      msg.ID,
		Status:  "ok",
		Printer: req.PrinterName,
		Media:   media,
	})
}

func (s *Server) reject(reason string) {
	if s.rejections != nil {
		s.rejections.ObserveRejection(reason)
	}
}

// sendError sends error response to client
func (s *Server) sendError(ctx context.Context, conn *websocket.Conn, id string, perr *printer.Error) {
	response := Response{
		Type:    "error",
		ID:      id,
		Status:  "error",
		Message: perr.Error(),
		Error:   perr,
	}
	_ = wsjson.Write(ctx, conn, response)
}

// NotifyClient sends a result back to a specific client
func (s *Server) NotifyClient(conn *websocket.Conn, response Response) error {
	if conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return wsjson.Write(ctx, conn, response)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)

		clientCount := s.clients.Count()
		log.Printf("[WS] 🛑 Shutting down, disconnecting %d clients %v", clientCount, s.clients.Hosts())

		// Notify all clients
		s.clients.ForEach(func(conn *websocket.Conn) {
			_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		})
	})
}

func formatStatus(current, capacity int) string {
	return "Queue: " + strconv.Itoa(current) + "/" + strconv.Itoa(capacity)
}
