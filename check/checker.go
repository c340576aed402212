package check

import (
	"bytes"
	"context"
	"fmt"
	"github.com/viant/afs"
	"github.com/viant/pathcover/data"
	"log/slog"
	"os"
)

// DefaultIndicator is created when thresholds are not met and removed once they are
const DefaultIndicator = "coverage.check.failed"

// Result holds outcome of a check
type Result struct {
	Thresholds []*Threshold
	Violations []*Violation
}

// Passed returns true when no threshold was violated
func (r *Result) Passed() bool {
	return len(r.Violations) == 0
}

// Checker verifies thresholds and maintains the indicator file
type Checker struct {
	fs        afs.Service
	logger    *slog.Logger
	indicator string
}

type Option func(*Checker)

func WithFS(fs afs.Service) Option {
	return func(c *Checker) {
		c.fs = fs
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithIndicator sets the indicator location; empty disables it
func WithIndicator(location string) Option {
	return func(c *Checker) {
		c.indicator = location
	}
}

func New(options ...Option) *Checker {
	ret := &Checker{indicator: DefaultIndicator}
	for _, opt := range options {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret
}

// Verify checks coverage against thresholds and creates, touches or deletes the indicator file
func (c *Checker) Verify(ctx context.Context, coverage *data.CoverageData, thresholds []*Threshold) (*Result, error) {
	ret := &Result{Thresholds: thresholds}
	for _, threshold := range thresholds {
		for _, violation := range threshold.Verify(coverage) {
			c.logger.Warn("coverage too low", "scope", violation.Scope, "metric", violation.Metric.String(), "percentage", violation.Percentage, "minimum", violation.Minimum)
			ret.Violations = append(ret.Violations, violation)
		}
	}
	if err := c.updateIndicator(ctx, ret.Passed()); err != nil {
		return ret, err
	}
	return ret, nil
}

func (c *Checker) updateIndicator(ctx context.Context, passed bool) error {
	if c.indicator == "" {
		return nil
	}
	exists, err := c.fs.Exists(ctx, c.indicator)
	if err != nil {
		return fmt.Errorf("failed to check indicator %v: %w", c.indicator, err)
	}
	if passed {
		if !exists {
			return nil
		}
		if err = c.fs.Delete(ctx, c.indicator); err != nil {
			return fmt.Errorf("failed to delete indicator %v: %w", c.indicator, err)
		}
		return nil
	}
	if err = c.fs.Upload(ctx, c.indicator, os.FileMode(0o644), bytes.NewReader(nil)); err != nil {
		return fmt.Errorf("failed to write indicator %v: %w", c.indicator, err)
	}
	return nil
}
