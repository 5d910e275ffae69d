package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"picvault/internal/logging"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("upload accepted", logging.String(logging.FieldUploadID, "abc123"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, buf.String())
	}
	if record["msg"] != "upload accepted" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["upload_id"] != "abc123" {
		t.Fatalf("unexpected upload_id: %v", record["upload_id"])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Fatal("info line should have been filtered")
	}
	if !strings.Contains(out, "should appear") {
		t.Fatal("warn line missing")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestComponentLoggerNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "ingest")
	// Must not panic; no-op base discards output.
	logger.Info("noop")
}
