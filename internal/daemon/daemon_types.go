package daemon

import (
	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status   string          `json:"status"`
	Queue    QueueStatus     `json:"queue"`
	Worker   WorkerStatus    `json:"worker"`
	Printers printer.Summary `json:"printers"`
	Clients  int             `json:"clients"`
	Build    BuildInfo       `json:"build"`
	LogSize  int64           `json:"log_size_bytes"`
	Uptime   int             `json:"uptime_seconds"`
}

// QueueStatus reports job queue occupancy.
type QueueStatus struct {
	Current     int     `json:"current"`
	Capacity    int     `json:"capacity"`
	Utilization float64 `json:"utilization"`
}

// WorkerStatus reports worker counters.
type WorkerStatus struct {
	Running       bool  `json:"running"`
	JobsProcessed int64 `json:"jobs_processed"`
	JobsFailed    int64 `json:"jobs_failed"`
}

// BuildInfo describes the running build.
type BuildInfo struct {
	Env  string `json:"env"`
	Date string `json:"date"`
	Time string `json:"time"`
}
