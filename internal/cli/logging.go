package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// newLogger builds the process logger. With a log file configured, records
// go to a rotating JSON log; otherwise to stderr as text. The returned
// closer releases the file.
func newLogger(level, file string, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, userError("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if file == "" {
		return slog.New(slog.NewTextHandler(stderr, opts)), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, sysError("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}
	return slog.New(slog.NewJSONHandler(rotator, opts)), rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
