package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"picvault/internal/api"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"config", "init", "--output", target})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Fatalf("sample config missing [paths] section:\n%s", data)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	cmd := newRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"config", "init", "--output", target})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only-a"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "only-a") {
		t.Fatalf("row missing from table:\n%s", out)
	}
}

func TestUploadStatusClassification(t *testing.T) {
	if got := uploadStatus(api.Image{}); got != "stored" {
		t.Fatalf("expected stored, got %s", got)
	}
	if got := uploadStatus(api.Image{Duplicate: true}); got != "duplicate" {
		t.Fatalf("expected duplicate, got %s", got)
	}
	if got := uploadStatus(api.Image{Error: "unsupported_extension: .gif"}); got != "failed" {
		t.Fatalf("expected failed, got %s", got)
	}
}
