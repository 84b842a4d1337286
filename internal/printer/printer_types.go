// Package printer contains shared types to avoid import cycles between the
// print service and the platform backends.
package printer

import "context"

// Duplex is the requested double-sided mode.
type Duplex string

// Duplex modes understood by the backends
const (
	DuplexNone  Duplex = "none"
	DuplexLong  Duplex = "long"
	DuplexShort Duplex = "short"
)

// Status is the normalized state of a printer queue.
type Status string

// Printer states reported by the backends
const (
	StatusIdle     Status = "idle"
	StatusPrinting Status = "printing"
	StatusDisabled Status = "disabled"
	StatusOffline  Status = "offline"
	StatusWarming  Status = "warming"
	StatusStopped  Status = "stopped"
	StatusUnknown  Status = "unknown"
)

// PrintRequest is the canonical path-based print submission.
type PrintRequest struct {
	Path             string `json:"path"`
	PrinterName      string `json:"printerName,omitempty"`
	JobName          string `json:"jobName,omitempty"`
	Copies           uint32 `json:"copies,omitempty"`
	Duplex           Duplex `json:"duplex,omitempty"`
	PaperSize        string `json:"paperSize,omitempty"`
	RemoveAfterPrint bool   `json:"removeAfterPrint"`
}

// PrintBytesRequest carries the PDF inline as base64 instead of a path.
type PrintBytesRequest struct {
	DataBase64       string `json:"dataBase64"`
	PrinterName      string `json:"printerName,omitempty"`
	JobName          string `json:"jobName,omitempty"`
	Copies           uint32 `json:"copies,omitempty"`
	Duplex           Duplex `json:"duplex,omitempty"`
	PaperSize        string `json:"paperSize,omitempty"`
	RemoveAfterPrint bool   `json:"removeAfterPrint"`
}

// WithPath converts the bytes request into a path request once the payload
// has been staged.
func (r PrintBytesRequest) WithPath(path string) PrintRequest {
	return PrintRequest{
		Path:             path,
		PrinterName:      r.PrinterName,
		JobName:          r.JobName,
		Copies:           r.Copies,
		Duplex:           r.Duplex,
		PaperSize:        r.PaperSize,
		RemoveAfterPrint: r.RemoveAfterPrint,
	}
}

// PrintResult is returned by every successful submission.
// JobID is nil when the backend cannot observe a native job identifier.
type PrintResult struct {
	JobID   *uint32 `json:"jobId"`
	Printer string  `json:"printer"`
	Message string  `json:"message"`
}

// PrinterInfo describes one installed printer
type PrinterInfo struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
	Status    Status `json:"status"`
}

// MediaOption is a paper size offered by a printer
type MediaOption struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	IsDefault bool   `json:"isDefault"`
}

// Backend is the capability set every platform implementation provides.
// Exactly one implementation is linked per target OS.
type Backend interface {
	Print(ctx context.Context, req PrintRequest) (PrintResult, error)
	ListPrinters(ctx context.Context) ([]PrinterInfo, error)
	// DefaultPrinter reports the configured default; ok is false when there is none.
	DefaultPrinter(ctx context.Context) (name string, ok bool, err error)
	ListMedia(ctx context.Context, printerName string) ([]MediaOption, error)
}

// Summary provides lightweight overview for health checks
type Summary struct {
	Status        string `json:"status"` // "ok", "warning", "error"
	DetectedCount int    `json:"detected_count"`
	OnlineCount   int    `json:"online_count"`
	DefaultName   string `json:"default_name,omitempty"`
	CachedMedia   int    `json:"cached_media"` // media lists held by the directory cache
}

// JobID is a helper to build the optional job identifier of a PrintResult.
func JobID(id uint32) *uint32 {
	return &id
}
