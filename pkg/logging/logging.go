// Package logging provides a unified logging configuration and
// initialization for the server. Logs go to stdout and, when a directory is
// configured, to one JSON file per UTC day under that directory.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level: debug, info, warn, error
	Level string `yaml:"level" envconfig:"LEVEL"`
	// Format is the stdout format: json or text
	Format string `yaml:"format" envconfig:"FORMAT"`
	// Directory, when set, enables the per-day log file (YYYY-MM-DD.log).
	Directory string `yaml:"directory" envconfig:"DIRECTORY"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
	}
}

// NewLogger creates a new zap logger based on the configuration.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := ParseLevel(cfg.Level)

	var consoleEncoder zapcore.Encoder
	if cfg.Format == "text" {
		encCfg := zap.NewDevelopmentEncoderConfig()
		consoleEncoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		consoleEncoder = zapcore.NewJSONEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level),
	}

	if cfg.Directory != "" {
		if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileEncoder := zapcore.NewJSONEncoder(encCfg)
		cores = append(cores, zapcore.NewCore(fileEncoder, newDailySyncer(cfg.Directory), level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// ParseLevel converts a string level to zapcore.Level
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// dailySyncer appends to a file named by the current UTC date, switching
// files when the date rolls over. No rotation happens within a day; files
// grow unbounded until midnight UTC.
type dailySyncer struct {
	dir string

	mu   sync.Mutex
	date string
	file *os.File
}

func newDailySyncer(dir string) zapcore.WriteSyncer {
	return &dailySyncer{dir: dir}
}

func (d *dailySyncer) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	today := time.Now().UTC().Format("2006-01-02")
	if d.file == nil || d.date != today {
		if d.file != nil {
			_ = d.file.Close()
		}
		f, err := os.OpenFile(filepath.Join(d.dir, today+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		d.file = f
		d.date = today
	}
	return d.file.Write(p)
}

func (d *dailySyncer) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}
