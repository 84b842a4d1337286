// Package staging materializes inline PDF payloads to temporary files so
// every backend works on filesystem paths.
package staging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

// DefaultPrefix is used for staged file names when none is configured
const DefaultPrefix = "native-pdf-print"

// Stager writes decoded payloads into Dir
type Stager struct {
	Dir    string
	Prefix string
	now    func() time.Time
}

// NewStager creates a stager; empty values fall back to the OS temp dir and DefaultPrefix.
func NewStager(dir, prefix string) *Stager {
	if dir == "" {
		dir = os.TempDir()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Stager{Dir: dir, Prefix: prefix, now: time.Now}
}

// Decode strips an optional data URL header and decodes standard base64.
func Decode(dataBase64 string) ([]byte, error) {
	payload := strings.TrimSpace(dataBase64)
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx != -1 {
			payload = payload[idx+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, printer.ReadFailed("%v", err)
	}
	return data, nil
}

// StageBytes decodes the payload and writes it to a new file, returning its path.
// Nothing is written when decoding fails. The caller owns the file.
func (s *Stager) StageBytes(dataBase64 string) (string, error) {
	start := time.Now()
	data, err := Decode(dataBase64)
	if err != nil {
		return "", err
	}
	log.Printf("[STAGE] 📦 Decoded base64 (bytes: %d, elapsed: %v)", len(data), time.Since(start))

	path, err := s.write(data)
	if err != nil {
		return "", err
	}
	log.Printf("[STAGE] 💾 Wrote temp PDF (path: %s, bytes: %d, elapsed: %v)", path, len(data), time.Since(start))
	return path, nil
}

// Owns reports whether path names a file this stager could have written:
// directly inside Dir, named <Prefix>-*.pdf.
func (s *Stager) Owns(path string) bool {
	if path == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	dir, err := filepath.Abs(s.Dir)
	if err != nil {
		return false
	}
	name := filepath.Base(abs)
	return filepath.Dir(abs) == dir &&
		strings.HasPrefix(name, s.Prefix+"-") &&
		strings.HasSuffix(name, ".pdf")
}

// write creates the file exclusively so two payloads staged within the same
// millisecond never share a name.
func (s *Stager) write(data []byte) (string, error) {
	base := fmt.Sprintf("%s-%d", s.Prefix, s.now().UnixMilli())

	for attempt := 0; attempt < 100; attempt++ {
		name := base + ".pdf"
		if attempt > 0 {
			name = fmt.Sprintf("%s-%d.pdf", base, attempt)
		}
		path := filepath.Join(s.Dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) //nolint:gosec
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", printer.WriteFailed("%v", err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", printer.WriteFailed("%v", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", printer.WriteFailed("%v", err)
		}
		return path, nil
	}

	return "", printer.WriteFailed("no free temp file name for %s", base)
}
