package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestPrinterErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true, false)

	p.Error(NewStateError("cache.json is corrupt", nil))

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got["error"] != "cache.json is corrupt" {
		t.Errorf("error field = %v", got["error"])
	}
	if got["code"] != float64(ExitConflict) {
		t.Errorf("code field = %v, want %d", got["code"], ExitConflict)
	}
	if got["kind"] != string(KindState) {
		t.Errorf("kind field = %v, want %q", got["kind"], KindState)
	}
}

func TestPrinterErrorHuman(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, false, false).WithStderr(&errOut)

	p.Error(errors.New("boom"))

	if out.Len() != 0 {
		t.Errorf("stdout = %q, want empty", out.String())
	}
	if !strings.Contains(errOut.String(), "Error: boom") {
		t.Errorf("stderr = %q, want error message", errOut.String())
	}
}

func TestPrinterWarn(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, false, false).WithStderr(&errOut)

	p.Warn("branch %s skipped", "dev")

	if !strings.Contains(errOut.String(), "Warning: branch dev skipped") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestPrinterSuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true, false)

	if err := p.Success(map[string]any{"written": 3}); err != nil {
		t.Fatalf("Success() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if got["written"] != float64(3) {
		t.Errorf("written = %v, want 3", got["written"])
	}
}

func TestPrinterSuccessHumanMessage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false, false)

	if err := p.Success(map[string]any{"message": "synced 3 notes"}); err != nil {
		t.Fatalf("Success() error = %v", err)
	}
	if !strings.Contains(buf.String(), "synced 3 notes") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false, false)

	p.Table([]string{"ID", "BRANCH"}, [][]string{
		{"proj", "main"},
		{"other", "develop"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "other  develop") {
		t.Errorf("row = %q", lines[2])
	}
}

func TestIsJSON(t *testing.T) {
	if !NewPrinter(&bytes.Buffer{}, true, false).IsJSON() {
		t.Error("IsJSON() = false for JSON printer")
	}
	if NewPrinter(&bytes.Buffer{}, false, false).IsJSON() {
		t.Error("IsJSON() = true for human printer")
	}
}
