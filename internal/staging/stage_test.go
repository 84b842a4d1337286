package staging

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

func TestStageBytesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"pdf header", []byte("%PDF-1.7\n%âãÏÓ\n")},
		{"binary", []byte{0x00, 0xff, 0x10, 0x80, 0x7f}},
		{"empty", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStager(t.TempDir(), "")
			path, err := s.StageBytes(base64.StdEncoding.EncodeToString(tt.data))
			if err != nil {
				t.Fatalf("StageBytes() error = %v", err)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("staged content = %v, want %v", got, tt.data)
			}
			if !strings.HasPrefix(filepath.Base(path), DefaultPrefix+"-") {
				t.Errorf("unexpected file name %s", path)
			}
		})
	}
}

func TestStageBytesMalformedCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	s := NewStager(dir, "job")

	_, err := s.StageBytes("this is !!! not base64")
	if !printer.IsKind(err, printer.KindReadFailed) {
		t.Fatalf("expected ReadFailed, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("malformed payload left %d files behind", len(entries))
	}
}

func TestStageBytesSameMillisecond(t *testing.T) {
	s := NewStager(t.TempDir(), "job")
	fixed := time.UnixMilli(1_700_000_000_123)
	s.now = func() time.Time { return fixed }

	payload := base64.StdEncoding.EncodeToString([]byte("%PDF"))
	first, err := s.StageBytes(payload)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.StageBytes(payload)
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Fatalf("two stagings produced the same path %s", first)
	}
	if filepath.Base(first) != "job-1700000000123.pdf" {
		t.Errorf("first name = %s", filepath.Base(first))
	}
	if filepath.Base(second) != "job-1700000000123-1.pdf" {
		t.Errorf("second name = %s", filepath.Base(second))
	}
}

func TestStageBytesWriteFailure(t *testing.T) {
	s := NewStager(filepath.Join(t.TempDir(), "missing", "dir"), "")
	_, err := s.StageBytes(base64.StdEncoding.EncodeToString([]byte("%PDF")))
	if !printer.IsKind(err, printer.KindWriteFailed) {
		t.Fatalf("expected WriteFailed, got %v", err)
	}
}

func TestDecodeDataURL(t *testing.T) {
	data, err := Decode("data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("Decode() = %q", data)
	}
}
