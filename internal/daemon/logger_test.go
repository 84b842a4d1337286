package daemon

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func initTestLogger(t *testing.T, verbose bool, mirror *bytes.Buffer) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svc.log")
	prev, prevFlags := log.Writer(), log.Flags()
	if err := InitLogger(path, verbose, mirror); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		log.SetOutput(prev)
		log.SetFlags(prevFlags)
		logFileMu.Lock()
		_ = logFile.Close()
		logFile, logMirror, logFilePath = nil, nil, ""
		logFileMu.Unlock()
	})
	return path
}

func TestFilteredLoggerVerbosity(t *testing.T) {
	tests := []struct {
		verbose  bool
		wantKept bool
	}{
		{verbose: true, wantKept: true},
		{verbose: false, wantKept: false},
	}

	for _, tt := range tests {
		var mirror bytes.Buffer
		path := initTestLogger(t, tt.verbose, &mirror)

		log.Printf("[WS] ➕ Client connected (total: 1) from 127.0.0.1")
		log.Printf("[WORKER] ❌ Job x FAILED")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		out := string(data)
		if !strings.Contains(out, "Job x FAILED") {
			t.Errorf("verbose=%v: critical line dropped:\n%s", tt.verbose, out)
		}
		if got := strings.Contains(out, "Client connected"); got != tt.wantKept {
			t.Errorf("verbose=%v: non-critical kept = %v", tt.verbose, got)
		}
		if mirror.String() != out {
			t.Errorf("mirror diverged from file:\n%q\n%q", mirror.String(), out)
		}
		if GetLogFileSize() != int64(len(data)) {
			t.Errorf("GetLogFileSize() = %d, want %d", GetLogFileSize(), len(data))
		}
	}
}

func TestRotateLogIfNeeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.log")
	line := strings.Repeat("x", 99) + "\n"
	content := strings.Repeat(line, maxLogSize/len(line)+10)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if err := rotateLogIfNeeded(path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) == 0 || len(lines) > 1000 {
		t.Errorf("rotated log kept %d lines", len(lines))
	}
	if lines[len(lines)-1] != strings.TrimSuffix(line, "\n") {
		t.Errorf("last line corrupted: %q", lines[len(lines)-1])
	}
}

func TestRotateLogMissingFile(t *testing.T) {
	if err := rotateLogIfNeeded(filepath.Join(t.TempDir(), "none.log")); err != nil {
		t.Errorf("missing log should not fail: %v", err)
	}
}
