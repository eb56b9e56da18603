package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScene(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	body := "title: Poster\nboards:\n  - name: Cover\n    width: 100\n    height: 100\n    nodes:\n      - type: ellipse\n        width: 10\n        height: 10\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}
	return path
}

func noConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestRunNoArgs(t *testing.T) {
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run(nil, &out, &errOut)
	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Fatalf("expected usage in stdout, got: %s", out.String())
	}
	if errOut.Len() != 0 {
		t.Fatalf("expected empty stderr, got: %s", errOut.String())
	}
}

func TestRunHelp(t *testing.T) {
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"help"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "canvas-snap - design document snapshots") {
		t.Fatalf("expected help text, got: %s", out.String())
	}
	if errOut.Len() != 0 {
		t.Fatalf("expected empty stderr, got: %s", errOut.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"wat"}, &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "unknown command: wat") {
		t.Fatalf("unexpected stderr: %s", errOut.String())
	}
}

func TestRunExportRequiresName(t *testing.T) {
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"export", "--doc", writeScene(t), "--name", " "}, &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "export requires --name") {
		t.Fatalf("unexpected stderr: %s", errOut.String())
	}
}

func TestRunServeRequiresDocument(t *testing.T) {
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"serve", "--config", noConfig(t)}, &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "scene file is required") {
		t.Fatalf("unexpected stderr: %s", errOut.String())
	}
}

func TestRunExportMissingScene(t *testing.T) {
	var out bytes.Buffer
	var errOut bytes.Buffer
	t.Setenv("CANVAS_SNAP_LOGGER_LEVEL", "error")

	missing := filepath.Join(t.TempDir(), "nope.yaml")
	code := run([]string{"export", "--config", noConfig(t), "--doc", missing, "--name", "x"}, &out, &errOut)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(errOut.String(), "not found") {
		t.Fatalf("unexpected stderr: %s", errOut.String())
	}
}

func TestRunExportThenInspect(t *testing.T) {
	var out bytes.Buffer
	var errOut bytes.Buffer
	t.Setenv("CANVAS_SNAP_LOGGER_LEVEL", "error")
	dir := t.TempDir()

	code := run([]string{"export", "--config", noConfig(t), "--doc", writeScene(t), "--name", "First Draft", "--out", dir, "--compress"}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d, stderr=%s", code, errOut.String())
	}
	path := strings.TrimSpace(out.String())
	if !strings.HasPrefix(filepath.Base(path), "snapshot_first_draft_") || !strings.HasSuffix(path, ".json.zst") {
		t.Fatalf("unexpected export path %q", path)
	}

	out.Reset()
	code = run([]string{"inspect", path}, &out, &errOut)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d, stderr=%s", code, errOut.String())
	}
	text := out.String()
	if !strings.Contains(text, "First Draft") || !strings.Contains(text, "elements: 1") {
		t.Fatalf("unexpected inspect output:\n%s", text)
	}
}

func TestRunInspectArgs(t *testing.T) {
	var out bytes.Buffer
	var errOut bytes.Buffer

	code := run([]string{"inspect"}, &out, &errOut)
	if code != 1 || !strings.Contains(errOut.String(), "exactly one export file") {
		t.Fatalf("unexpected result %d: %s", code, errOut.String())
	}
}
