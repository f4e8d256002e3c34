// Package logging sets up the zerolog logger. The terminal is owned by the UI,
// so log output goes to a file or nowhere.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Options controls where and how much is logged
type Options struct {
	Enabled bool
	Level   string
	Path    string
}

// New builds a logger from opts. The returned closer releases the log file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	if !opts.Enabled {
		return zerolog.Nop(), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
		return zerolog.Nop(), nopCloser{}, errors.Wrap(err, "failed to create log directory")
	}

	f, err := os.OpenFile(opts.Path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, errors.Wrap(err, "failed to open log file")
	}

	return NewWithWriter(f, opts.Level), f, nil
}

// NewWithWriter builds a timestamped logger writing to w. Unknown levels fall back to info.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
