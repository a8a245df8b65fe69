// Package logx builds the per-run file logger.
package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"
)

// New creates a logger that writes to a timestamped file inside dir. When
// console is non-nil every entry is mirrored there too. The returned closer
// should be closed when logging is no longer needed.
func New(dir, level string, console io.Writer) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := time.Now().Format("20060102-150405") + ".log"
	filePath := filepath.Join(dir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	out := io.Writer(file)
	if console != nil {
		out = io.MultiWriter(file, console)
	}

	logger := log.NewWithOptions(out, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000000",
		Formatter:       log.LogfmtFormatter,
	})
	return logger.With("run", NewRunID()), file, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// ParseLevel maps a config level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// NewRunID returns a sortable identifier for one provisioning run.
func NewRunID() string {
	return ulid.Make().String()
}
