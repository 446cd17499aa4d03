// Package logger configures the process-wide slog logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Open creates (or appends to) the log file at path and returns a text logger
// writing to it and to every extra writer. The returned closer releases the file.
func Open(path string, level slog.Level, extra ...io.Writer) (*slog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	writers := append([]io.Writer{f}, extra...)
	return New(io.MultiWriter(writers...), level), f, nil
}

// New returns a text logger writing timestamped, level-tagged records to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
