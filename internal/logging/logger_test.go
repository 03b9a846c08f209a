package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/randysalars/dreamweaving-sub000/internal/logging"
	"github.com/randysalars/dreamweaving-sub000/internal/services"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "render.log")
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("render started", logging.String("stage", "mix"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"render started"`) {
		t.Fatalf("unexpected log line: %s", line)
	}
	if !strings.Contains(line, `"stage":"mix"`) {
		t.Fatalf("missing attr: %s", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsSessionFields(t *testing.T) {
	ctx := services.WithSessionID(context.Background(), "abc123")
	ctx = services.WithStage(ctx, "mastering")

	fields := logging.ContextFields(ctx)
	keys := map[string]bool{}
	for _, f := range fields {
		keys[f.Key] = true
	}
	if !keys[logging.FieldSessionID] || !keys[logging.FieldStage] {
		t.Fatalf("missing context fields: %v", fields)
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("must not panic", logging.Error(nil))
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("noop logger should report disabled")
	}
}
