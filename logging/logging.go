package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/viant/pathcover/config"
)

const attrComponent = "component"

// New creates a logger writing text or JSON records at level
func New(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, options)
	case "json":
		handler = slog.NewJSONHandler(w, options)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidLogFormat, format)
	}
	return slog.New(handler), nil
}

// FromConfig creates a logger from logging configuration
func FromConfig(w io.Writer, cfg *config.Logging) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	return New(w, level, cfg.Format)
}

// Component returns logger tagged with component name
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(attrComponent, name)
}
