package gdi

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
)

// BGRAToRGBA converts top-down BGRA8 rows, as copied out of a SoftwareBitmap,
// into an image.RGBA.
func BGRAToRGBA(pixels []byte, width, height uint32) (*image.RGBA, error) {
	need := int(width) * int(height) * 4
	if len(pixels) < need {
		return nil, fmt.Errorf("pixel buffer too small: %d < %d", len(pixels), need)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	for i := 0; i < need; i += 4 {
		img.Pix[i+0] = pixels[i+2]
		img.Pix[i+1] = pixels[i+1]
		img.Pix[i+2] = pixels[i+0]
		img.Pix[i+3] = pixels[i+3]
	}
	return img, nil
}

// SnapshotName builds the file name for one rasterized page
func SnapshotName(jobName string, page int) string {
	base := jobName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*', ' ':
			return '_'
		}
		return r
	}, base)
	if base == "" {
		base = "page"
	}
	return fmt.Sprintf("%s-p%03d.bmp", base, page)
}

// WriteSnapshot stores the raster of a page as BMP in dir
func WriteSnapshot(dir, jobName string, page int, pixels []byte, width, height uint32) (string, error) {
	img, err := BGRAToRGBA(pixels, width, height)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, SnapshotName(jobName, page))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := bmp.Encode(f, img); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
