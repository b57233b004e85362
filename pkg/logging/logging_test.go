package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"info", zap.InfoLevel},
		{"warn", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"bogus", zap.InfoLevel},
		{"", zap.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerStdoutOnly(t *testing.T) {
	logger, err := NewLogger(Config{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("test entry")
	_ = logger.Sync()
}

func TestNewLoggerTextFormat(t *testing.T) {
	logger, err := NewLogger(Config{Level: "debug", Format: "text"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Debug("test entry")
}

func TestNewLoggerDailyFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(Config{Level: "info", Format: "json", Directory: dir})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.Info("file entry", zap.String("k", "v"))
	_ = logger.Sync()

	name := time.Now().UTC().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("expected %s to exist: %v", name, err)
	}
	if !strings.Contains(string(data), "file entry") {
		t.Errorf("log file missing the entry: %q", string(data))
	}
}

func TestNewLoggerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	if _, err := NewLogger(Config{Level: "info", Directory: dir}); err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected directory to be created: %v", err)
	}
}

func TestDailySyncerAppends(t *testing.T) {
	dir := t.TempDir()
	syncer := newDailySyncer(dir)

	if _, err := syncer.Write([]byte("one\n")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := syncer.Write([]byte("two\n")); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if err := syncer.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	name := time.Now().UTC().Format("2006-01-02") + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if string(data) != "one\ntwo\n" {
		t.Errorf("unexpected file content: %q", string(data))
	}
}
