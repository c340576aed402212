package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/pathcover/check"
	"github.com/viant/pathcover/config"
	"github.com/viant/pathcover/data"
	"github.com/viant/pathcover/logging"
	"github.com/viant/pathcover/snapshot"
)

// FromConfig creates a recorder whose Close saves the run to cfg.Output and verifies cfg.Check.
// Options are applied after the configured ones.
func FromConfig(cfg *config.Config, options ...Option) (*Recorder, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := logging.FromConfig(os.Stderr, &cfg.Logging)
	if err != nil {
		return nil, err
	}
	configured := []Option{WithLogger(logging.Component(logger, "recorder")), WithCallPoints(cfg.WithCallPoints)}
	ret := New(data.NewCoverageData(), append(configured, options...)...)
	ret.cfg = cfg
	return ret, nil
}

// Close ends the run: the recorded coverage is saved, accumulated with the stored one when configured,
// and configured thresholds are verified. Only the first call does the work; later calls return its outcome.
// The result is nil when no thresholds are configured.
func (r *Recorder) Close(ctx context.Context) (*check.Result, error) {
	r.closeOnce.Do(func() {
		r.result, r.closeErr = r.close(ctx)
	})
	return r.result, r.closeErr
}

func (r *Recorder) close(ctx context.Context) (*check.Result, error) {
	if r.cfg == nil {
		return nil, nil
	}
	store := snapshot.NewStore(
		snapshot.WithLogger(logging.Component(r.logger, "store")),
		snapshot.WithConcurrency(r.cfg.Concurrency))
	output := localPath(r.cfg.Output)
	run := snapshot.New(r.coverage)
	var err error
	if r.cfg.Accumulate {
		err = store.Accumulate(ctx, output, run)
	} else {
		err = store.Save(ctx, output, run)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Info("coverage saved", "location", output, "files", len(run.Data.Files), "runs", len(run.RunIDs))
	thresholds, err := check.ParseThresholds(r.cfg.Check)
	if err != nil || len(thresholds) == 0 {
		return nil, err
	}
	checker := check.New(
		check.WithIndicator(localPath(r.cfg.CheckIndicator)),
		check.WithLogger(logging.Component(r.logger, "check")))
	return checker.Verify(ctx, run.Data, thresholds)
}

// localPath resolves a relative file path against the working directory; URLs are kept
func localPath(location string) string {
	if location == "" || strings.Contains(location, "://") {
		return location
	}
	if abs, err := filepath.Abs(location); err == nil {
		return abs
	}
	return location
}
