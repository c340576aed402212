package snapshot

import (
	"context"
	"fmt"
	"golang.org/x/sync/errgroup"
)

// MergeFiles loads every existing input and merges the others into the first one loaded.
// Inputs can be snapshot files or directories holding DefaultFileName; missing or unreadable ones are skipped.
func (s *Store) MergeFiles(ctx context.Context, inputs ...string) (*Snapshot, error) {
	var locations []string
	for _, input := range inputs {
		location, err := s.Resolve(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %v: %w", input, err)
		}
		if location == "" {
			s.logger.Warn("coverage snapshot not found, skipping", "input", input)
			continue
		}
		locations = append(locations, location)
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoInput, inputs)
	}

	loaded := make([]*Snapshot, len(locations))
	group, groupCtx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		group.SetLimit(s.concurrency)
	}
	for i, location := range locations {
		group.Go(func() error {
			snapshot, err := s.Load(groupCtx, location)
			if err != nil {
				if groupCtx.Err() != nil {
					return err
				}
				s.logger.Warn("coverage snapshot unusable, skipping", "location", location, "error", err)
				return nil
			}
			loaded[i] = snapshot
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var ret *Snapshot
	for i, snapshot := range loaded {
		switch {
		case snapshot == nil:
		case ret == nil:
			ret = snapshot
		default:
			if err := ret.Merge(snapshot); err != nil {
				s.logger.Warn("discarded incompatible coverage", "location", locations[i], "error", err)
			}
		}
	}
	if ret == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInput, inputs)
	}
	return ret, nil
}

// Accumulate merges the snapshot stored at location, if any, into current and saves the result there.
// A stored snapshot that cannot be loaded is replaced by current.
func (s *Store) Accumulate(ctx context.Context, location string, current *Snapshot) error {
	ok, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check %v: %w", location, err)
	}
	if ok {
		previous, err := s.Load(ctx, location)
		switch {
		case err != nil:
			s.logger.Warn("previous coverage unusable, overwriting", "location", location, "error", err)
		default:
			if err := current.Merge(previous); err != nil {
				s.logger.Warn("discarded incompatible coverage", "location", location, "error", err)
			}
		}
	}
	return s.Save(ctx, location, current)
}
