package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/judwhite/go-svc"

	"github.com/adcondev/pdf-print-daemon/internal/auth"
	"github.com/adcondev/pdf-print-daemon/internal/config"
	"github.com/adcondev/pdf-print-daemon/internal/gdi"
	"github.com/adcondev/pdf-print-daemon/internal/metrics"
	"github.com/adcondev/pdf-print-daemon/internal/pdfprint"
	"github.com/adcondev/pdf-print-daemon/internal/server"
	"github.com/adcondev/pdf-print-daemon/internal/worker"
)

// GetEnvConfig returns the current environment configuration
func GetEnvConfig() config.Environment {
	return config.GetEnvironment(config.BuildEnvironment)
}

// ServiceOptions maps the environment print policy onto the print service
func ServiceOptions(cfg config.Environment) pdfprint.Options {
	return pdfprint.Options{
		CacheTTL:   cfg.Print.CacheTTL,
		TempDir:    cfg.Print.TempDir,
		TempPrefix: cfg.Print.TempPrefix,
		Render: gdi.Policy{
			MaxRenderDPI: cfg.Print.MaxRenderDPI,
			MaxRenderDim: cfg.Print.MaxRenderDim,
		},
		SnapshotDir: cfg.Print.RasterSnapshotDir,
		Verbose:     cfg.Verbose,
	}
}

// Program implements svc.Service interface
type Program struct {
	wg          sync.WaitGroup
	quit        chan struct{}
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
	wsServer    *server.Server
	printWorker *worker.Worker
	authMgr     *auth.Manager
	service     *pdfprint.Service
	metrics     *metrics.Exporter
	startTime   time.Time
}

// Init initializes the service. env is nil in console mode.
func (p *Program) Init(env svc.Environment) error {
	envConfig := GetEnvConfig()

	console := env == nil || !env.IsWindowsService()
	if err := initLogging(envConfig, console); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║   📄 PDF PRINT DAEMON - Native PDF Print Service           ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")
	log.Printf("[INIT] 🚀 Starting service - Environment: %s", envConfig.Name)
	log.Printf("[INIT] 📅 Build: %s %s", config.BuildDate, config.BuildTime)

	return nil
}

// Start starts the service
func (p *Program) Start() error {
	p.quit = make(chan struct{})
	p.startTime = time.Now()
	p.ctx, p.cancel = context.WithCancel(context.Background())
	cfg := GetEnvConfig()

	// Initialize auth manager (bound to service context for clean shutdown)
	p.authMgr = auth.NewManager(p.ctx, config.AuthTokenHashB64)

	p.service = pdfprint.NewPlatform(ServiceOptions(cfg))
	LogStartupDiagnostics(p.ctx, p.service, GetVerbose())

	p.metrics = metrics.NewExporter()

	// Initialize WebSocket server
	p.wsServer = server.NewServer(server.Config{
		QueueSize:      cfg.QueueCapacity,
		AllowedOrigins: cfg.AllowedOrigins,
		Rejections:     p.metrics,
	}, p.service, p.authMgr)
	p.registerGauges()

	// Initialize print worker
	p.printWorker = worker.NewWorker(
		p.wsServer.JobQueue(),
		p.wsServer,
		p.service,
		worker.Config{Observer: p.metrics},
	)
	p.printWorker.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", p.wsServer.HandleWebSocket) // token validates inside per-message
	mux.HandleFunc("/health", p.handleHealth)         // Health is public for monitoring tools
	mux.Handle("/metrics", p.metrics.Handler())

	p.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		log.Println("┌─────────────────────────────────────────────────────────────┐")
		log.Printf("│ 📄 PDF PRINT DAEMON READY - Environment: %-19s│", cfg.Name)
		log.Printf("│ 🔌 WebSocket: ws://%s/ws%-25s│", cfg.ListenAddr, "")
		log.Printf("│ 💚 Health:     http://%s/health%-20s│", cfg.ListenAddr, "")
		log.Printf("│ 📊 Metrics:    http://%s/metrics%-19s│", cfg.ListenAddr, "")
		log.Printf("│ 🔐 Auth:       %-43v│", p.authMgr.Enabled())
		log.Println("└─────────────────────────────────────────────────────────────┘")

		if err := p.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[HTTP] ❌ Error starting HTTP server: %v", err)
		}
	}()

	return nil
}

func (p *Program) registerGauges() {
	p.metrics.RegisterGauge("queue_depth", "Print jobs waiting for the worker.", func() float64 {
		current, _ := p.wsServer.QueueStatus()
		return float64(current)
	})
	p.metrics.RegisterGauge("queue_capacity", "Size of the print job queue.", func() float64 {
		_, capacity := p.wsServer.QueueStatus()
		return float64(capacity)
	})
	p.metrics.RegisterGauge("websocket_clients", "Connected WebSocket clients.", func() float64 {
		return float64(p.wsServer.ClientCount())
	})
}

// handleHealth reports queue, worker and printer state
func (p *Program) handleHealth(w http.ResponseWriter, r *http.Request) {
	current, capacity := p.wsServer.QueueStatus()
	stats := p.printWorker.Stats()

	var utilization float64
	if capacity > 0 {
		utilization = float64(current) / float64(capacity) * 100
	}

	response := HealthResponse{
		Status: "ok",
		Queue: QueueStatus{
			Current:     current,
			Capacity:    capacity,
			Utilization: utilization,
		},
		Worker: WorkerStatus{
			Running:       stats.IsRunning,
			JobsProcessed: stats.JobsProcessed,
			JobsFailed:    stats.JobsFailed,
		},
		Printers: p.service.Summary(r.Context()),
		Clients:  p.wsServer.ClientCount(),
		Build: BuildInfo{
			Env:  config.BuildEnvironment,
			Date: config.BuildDate,
			Time: config.BuildTime,
		},
		LogSize: GetLogFileSize(),
		Uptime:  int(time.Since(p.startTime).Seconds()),
	}

	if response.Printers.Status == "error" {
		response.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_ = json.NewEncoder(w).Encode(response)
}

// Stop stops the service gracefully
func (p *Program) Stop() error {
	log.Println("[STOP] 🛑 Service shutting down...")

	// 1. Cancel context (stops auth cleanup goroutine)
	p.cancel()

	// 2. Stop print worker
	if p.printWorker != nil {
		p.printWorker.Stop()
	}

	// 3. Graceful HTTP shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if p.httpServer != nil {
		if err := p.httpServer.Shutdown(ctx); err != nil {
			log.Printf("[STOP] ⚠️ HTTP shutdown error: %v", err)
		}
	}

	// 4. Shutdown WebSocket server
	if p.wsServer != nil {
		p.wsServer.Shutdown()
	}

	close(p.quit)
	p.wg.Wait()

	uptime := time.Since(p.startTime)
	log.Printf("[STOP] ✅ Service stopped (uptime: %v)", uptime.Round(time.Second))
	return nil
}

func initLogging(envConfig config.Environment, console bool) error {
	logPath := envConfig.LogPath(programDataDir())
	logDir := filepath.Dir(logPath)

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return err
	}

	var mirror io.Writer
	if console {
		mirror = os.Stdout
	}
	if err := InitLogger(logPath, envConfig.Verbose, mirror); err != nil {
		return err
	}

	log.Printf("[INIT] 📁 Log file: %s", logPath)
	return nil
}

// programDataDir returns %PROGRAMDATA% on Windows and the user cache dir elsewhere
func programDataDir() string {
	if dir := os.Getenv("PROGRAMDATA"); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
