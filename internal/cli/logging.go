package cli

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 28
)

// newLogger builds the logger handed to the cache and the remote. With a log
// file configured, records go there as JSON with size-based rotation;
// otherwise they go to errOut as text. The returned closer must be called
// once the command finishes.
func newLogger(cfg Config, errOut io.Writer) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevelValue}

	if cfg.LogFileAbs == "" {
		return slog.New(slog.NewTextHandler(errOut, opts)), io.NopCloser(nil)
	}

	rotating := &lumberjack.Logger{
		Filename:   cfg.LogFileAbs,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}

	return slog.New(slog.NewJSONHandler(rotating, opts)), rotating
}
