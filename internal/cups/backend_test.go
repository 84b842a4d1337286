package cups

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/adcondev/pdf-print-daemon/internal/printer"
)

type call struct {
	name string
	args []string
}

// scriptedRunner answers commands by their name + args key
type scriptedRunner struct {
	responses map[string]Output
	failures  map[string]error
	calls     []call
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) (Output, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	key := strings.TrimSpace(name + " " + strings.Join(args, " "))
	if err, ok := r.failures[key]; ok {
		return r.responses[key], err
	}
	return r.responses[key], nil
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.7"), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPrintParsesJobAndRemovesFile(t *testing.T) {
	path := writePDF(t)
	runner := &scriptedRunner{
		responses: map[string]Output{
			"lp -d HP_LaserJet " + path: {Stdout: []byte("request id is HP_LaserJet-142 (1 file(s))\n")},
		},
	}
	b := NewBackend(runner)

	result, err := b.Print(context.Background(), printer.PrintRequest{
		Path:             path,
		PrinterName:      "HP_LaserJet",
		RemoveAfterPrint: true,
	})
	if err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	if result.JobID == nil || *result.JobID != 142 {
		t.Errorf("JobID = %v, want 142", result.JobID)
	}
	if result.Printer != "HP_LaserJet" {
		t.Errorf("Printer = %q", result.Printer)
	}
	if result.Message != "request id is HP_LaserJet-142 (1 file(s))" {
		t.Errorf("Message = %q", result.Message)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file should be removed after print")
	}
}

func TestPrintFallsBackToDefaultPrinterName(t *testing.T) {
	path := writePDF(t)
	runner := &scriptedRunner{
		responses: map[string]Output{
			"lp " + path: {Stdout: []byte("request id is Office-9 (1 file(s))")},
			"lpstat -d":  {Stdout: []byte("system default destination: Office\n")},
		},
	}

	result, err := NewBackend(runner).Print(context.Background(), printer.PrintRequest{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if result.Printer != "Office" {
		t.Errorf("Printer = %q, want Office", result.Printer)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("file must be kept when RemoveAfterPrint is false")
	}
}

func TestPrintUnknownPrinterWhenNoDefault(t *testing.T) {
	path := writePDF(t)
	runner := &scriptedRunner{
		responses: map[string]Output{
			"lpstat -d": {Stderr: []byte("lpstat: No destinations added.")},
		},
		failures: map[string]error{
			"lpstat -d": errors.New("exit status 1"),
		},
	}

	result, err := NewBackend(runner).Print(context.Background(), printer.PrintRequest{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if result.Printer != "unknown" || result.JobID != nil {
		t.Errorf("result = %+v", result)
	}
}

func TestPrintMissingFile(t *testing.T) {
	runner := &scriptedRunner{}
	_, err := NewBackend(runner).Print(context.Background(), printer.PrintRequest{Path: "/nope/missing.pdf"})
	if !printer.IsKind(err, printer.KindPrintCommandFailed) {
		t.Fatalf("expected PrintCommandFailed, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Error("lp must not run for a missing file")
	}
}

func TestPrintLpFailureUsesStderr(t *testing.T) {
	path := writePDF(t)
	key := "lp -d Ghost " + path
	runner := &scriptedRunner{
		responses: map[string]Output{key: {Stderr: []byte("lp: The printer or class does not exist.\n")}},
		failures:  map[string]error{key: errors.New("exit status 1")},
	}

	_, err := NewBackend(runner).Print(context.Background(), printer.PrintRequest{Path: path, PrinterName: "Ghost"})
	var pe *printer.Error
	if !errors.As(err, &pe) || pe.Kind != printer.KindPrintCommandFailed {
		t.Fatalf("expected PrintCommandFailed, got %v", err)
	}
	if pe.Message != "lp: The printer or class does not exist." {
		t.Errorf("Message = %q", pe.Message)
	}
}

func TestListPrinters(t *testing.T) {
	runner := &scriptedRunner{
		responses: map[string]Output{
			"lpstat -p": {Stdout: []byte("printer A is idle.\nprinter B disabled since today\n")},
			"lpstat -d": {Stdout: []byte("system default destination: A\n")},
		},
	}

	got, err := NewBackend(runner).ListPrinters(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []printer.PrinterInfo{
		{Name: "A", IsDefault: true, Status: printer.StatusIdle},
		{Name: "B", Status: printer.StatusDisabled},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListPrinters() = %+v, want %+v", got, want)
	}
}

func TestListPrintersFailure(t *testing.T) {
	runner := &scriptedRunner{
		failures: map[string]error{"lpstat -p": errors.New("exec: \"lpstat\": executable file not found in $PATH")},
	}
	_, err := NewBackend(runner).ListPrinters(context.Background())
	if !printer.IsKind(err, printer.KindPrinterLookupFailed) {
		t.Fatalf("expected PrinterLookupFailed, got %v", err)
	}
}

func TestListMediaArgs(t *testing.T) {
	runner := &scriptedRunner{
		responses: map[string]Output{
			"lpoptions -p Office -l": {Stdout: []byte("PageSize/Media Size: *Letter A4\n")},
		},
	}

	got, err := NewBackend(runner).ListMedia(context.Background(), "Office")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[0].IsDefault || got[1].ID != "A4" {
		t.Errorf("ListMedia() = %+v", got)
	}
	if !reflect.DeepEqual(runner.calls[0].args, []string{"-p", "Office", "-l"}) {
		t.Errorf("lpoptions args = %q", runner.calls[0].args)
	}
}
