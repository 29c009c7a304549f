package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerInitWithRejectsBadInput(t *testing.T) {
	if err := InitWith(nil, FormatText); err == nil {
		t.Error("expected error for nil writer")
	}
	if err := InitWith(&bytes.Buffer{}, Format("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWith(&buf, FormatJSON); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("predictor").Info(context.Background(), "batch done",
		Int("rows", 3),
		Bool("partitioned", false),
		Duration("took", 2*time.Millisecond),
		Error(errors.New("none")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "batch done" {
		t.Errorf("unexpected msg %v", rec["msg"])
	}
	if rec["logger"] != "predictor" {
		t.Errorf("expected logger name, got %v", rec["logger"])
	}
	if rec["rows"] != float64(3) {
		t.Errorf("expected rows=3, got %v", rec["rows"])
	}
	if src, _ := rec["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("expected caller in source, got %q", src)
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWith(&buf, FormatText); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().With(String("batch_id", "abc")).Warn(context.Background(), "slow batch")
	if !strings.Contains(buf.String(), "batch_id=abc") {
		t.Errorf("expected bound field in output, got %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWith(&buf, FormatText); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	for _, level := range []string{"debug", "info", "warn", "warning", "error", "", " INFO "} {
		if err := SetLevelString(level); err != nil {
			t.Errorf("unexpected error for %q: %v", level, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}

	if err := SetLevelString("error"); err != nil {
		t.Fatal(err)
	}
	Get().Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at error level, got %q", buf.String())
	}
	_ = SetLevelString("info")
}
