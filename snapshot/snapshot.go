package snapshot

import (
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/viant/pathcover/data"
	"time"
)

// Version is the current snapshot layout version
const Version = 1

var (
	// ErrUnsupportedVersion reports a snapshot written by a newer layout
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	// ErrNoInput reports a merge without any existing input snapshot
	ErrNoInput = errors.New("no coverage snapshot found")
)

// Snapshot represents persisted coverage of one or more test runs
type Snapshot struct {
	Version   int                `json:"version" yaml:"version"`
	RunIDs    []string           `json:"runIds" yaml:"runIds"`
	CreatedAt time.Time          `json:"createdAt" yaml:"createdAt"`
	Data      *data.CoverageData `json:"data" yaml:"data"`
}

// New creates a snapshot of a single test run
func New(coverage *data.CoverageData) *Snapshot {
	if coverage == nil {
		coverage = data.NewCoverageData()
	}
	return &Snapshot{
		Version:   Version,
		RunIDs:    []string{uuid.NewString()},
		CreatedAt: time.Now().UTC(),
		Data:      coverage,
	}
}

// Merge adds coverage of a previous snapshot; run ids of previous come first.
// The returned error lists discarded entries and does not invalidate the merge.
func (s *Snapshot) Merge(previous *Snapshot) error {
	if previous == nil {
		return nil
	}
	if s.Data == nil {
		s.Data = data.NewCoverageData()
	}
	s.RunIDs = append(append([]string{}, previous.RunIDs...), s.RunIDs...)
	return s.Data.Merge(previous.Data)
}

// Restore validates a decoded snapshot and prepares its data for use.
// Only ErrUnsupportedVersion makes the snapshot unusable; other errors list method data dropped as invalid.
func (s *Snapshot) Restore() error {
	if s.Version > Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}
	if s.Data == nil {
		s.Data = data.NewCoverageData()
	}
	return s.Data.Restore()
}
