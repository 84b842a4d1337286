// Package gdi prints PDFs on Windows by rasterizing each page with the
// Windows.Data.Pdf API and blitting the bitmap into a printer device context.
//
// Geometry, job ticket and status helpers live in platform-neutral files so
// they are exercised by tests on every OS; the syscalls are windows-only.
package gdi

import (
	"log"
	"math"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// Default render caps. Printer DCs do not need source-resolution bitmaps and
// uncapped DPI x page size products reach hundreds of megabytes.
const (
	DefaultMaxRenderDPI = 150
	DefaultMaxRenderDim = 2000
	pointsPerInch       = 72.0
	minFitScale         = 0.01
)

// Policy bounds the rasterization cost per page
type Policy struct {
	MaxRenderDPI uint32
	MaxRenderDim uint32
}

// DefaultPolicy returns the standard caps
func DefaultPolicy() Policy {
	return Policy{MaxRenderDPI: DefaultMaxRenderDPI, MaxRenderDim: DefaultMaxRenderDim}
}

func (p Policy) normalized() Policy {
	if p.MaxRenderDPI == 0 {
		p.MaxRenderDPI = DefaultMaxRenderDPI
	}
	if p.MaxRenderDim == 0 {
		p.MaxRenderDim = DefaultMaxRenderDim
	}
	return p
}

// Options configures the Windows backend
type Options struct {
	Policy Policy
	// SnapshotDir receives a BMP per rasterized page when set
	SnapshotDir string
	// Verbose logs device caps and raster sizes
	Verbose bool
	// Wait makes Print block until the spooler accepted the job
	Wait bool
}

// Caps are the device capabilities read once per job
type Caps struct {
	DPIX, DPIY                      uint32
	PrintableWidth, PrintableHeight int32
	OffsetX, OffsetY                int32
	PhysicalWidth, PhysicalHeight   int32
}

// Rect is a destination rectangle in device pixels
type Rect struct {
	X, Y, Width, Height int32
}

// RenderDPI returns the effective render resolution per axis
func (p Policy) RenderDPI(dpiX, dpiY uint32) (uint32, uint32) {
	p = p.normalized()
	return min(dpiX, p.MaxRenderDPI), min(dpiY, p.MaxRenderDPI)
}

// TargetSize converts a page size in points into raster dimensions at the
// capped DPI, then downscales uniformly so neither axis exceeds MaxRenderDim.
func (p Policy) TargetSize(widthPt, heightPt float32, dpiX, dpiY uint32) (uint32, uint32) {
	p = p.normalized()
	rx, ry := p.RenderDPI(dpiX, dpiY)

	w := atLeastOne(math.Round(float64(widthPt) / pointsPerInch * float64(rx)))
	h := atLeastOne(math.Round(float64(heightPt) / pointsPerInch * float64(ry)))

	limit := float64(p.MaxRenderDim)
	if w > limit || h > limit {
		scale := math.Min(limit/w, limit/h)
		w = atLeastOne(math.Round(w * scale))
		h = atLeastOne(math.Round(h * scale))
	}
	return uint32(w), uint32(h)
}

// HalfSize is the second render attempt size
func HalfSize(width, height uint32) (uint32, uint32) {
	return max(width/2, 1), max(height/2, 1)
}

// RenderWithFallback renders at the target size, then at HalfSize, then at
// the page's natural size. Only rasterization retries; when all three
// attempts fail the errors are joined in order.
func RenderWithFallback[T any](width, height uint32, sized func(w, h uint32) (T, error), natural func() (T, error)) (T, error) {
	out, firstErr := sized(width, height)
	if firstErr == nil {
		return out, nil
	}
	log.Printf("[GDI] ⚠️ Render at %dx%d failed: %v", width, height, firstErr)

	halfW, halfH := HalfSize(width, height)
	out, secondErr := sized(halfW, halfH)
	if secondErr == nil {
		return out, nil
	}
	log.Printf("[GDI] ⚠️ Render retry at %dx%d failed: %v", halfW, halfH, secondErr)

	out, thirdErr := natural()
	if thirdErr == nil {
		return out, nil
	}
	var zero T
	return zero, printer.PrintCommandFailed("Render failed after retries: %v; %v; %v",
		firstErr, secondErr, thirdErr)
}

// FitRect letterboxes a bitmap into the printable area and centers it on
// the physical page. The bitmap is never stretched non-uniformly.
func FitRect(caps Caps, bitmapWidth, bitmapHeight uint32) Rect {
	bw := float64(max(bitmapWidth, 1))
	bh := float64(max(bitmapHeight, 1))

	scale := math.Min(float64(caps.PrintableWidth)/bw, float64(caps.PrintableHeight)/bh)
	scale = math.Max(scale, minFitScale)

	destW := int32(math.Round(bw * scale))
	destH := int32(math.Round(bh * scale))
	return Rect{
		X:      caps.OffsetX + (caps.PrintableWidth-destW)/2,
		Y:      caps.OffsetY + (caps.PrintableHeight-destH)/2,
		Width:  destW,
		Height: destH,
	}
}

func atLeastOne(v float64) float64 {
	return math.Max(v, 1)
}
