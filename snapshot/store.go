package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"io"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
)

// DefaultFileName is used when a directory is given instead of a snapshot file
const DefaultFileName = "coverage" + JSONExtension

const fileMode = os.FileMode(0o644)

// Option configures a Store
type Option func(*Store)

// WithFS sets the storage service
func WithFS(fs afs.Service) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithCodec forces a codec regardless of the location extension
func WithCodec(codec Codec) Option {
	return func(s *Store) {
		s.codec = codec
	}
}

// WithConcurrency sets how many snapshots are loaded at once by MergeFiles
func WithConcurrency(limit int) Option {
	return func(s *Store) {
		s.concurrency = limit
	}
}

// Store loads and saves snapshots at any afs supported location
type Store struct {
	fs          afs.Service
	logger      *slog.Logger
	codec       Codec
	concurrency int
}

// NewStore creates a snapshot store
func NewStore(options ...Option) *Store {
	ret := &Store{concurrency: 4}
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

func (s *Store) codecFor(location string) Codec {
	if s.codec != nil {
		return s.codec
	}
	return CodecFor(location)
}

// Exists returns true when location holds an object
func (s *Store) Exists(ctx context.Context, location string) (bool, error) {
	return s.fs.Exists(ctx, location)
}

// Save encodes snapshot to location
func (s *Store) Save(ctx context.Context, location string, snapshot *Snapshot) error {
	buffer := new(bytes.Buffer)
	if err := s.codecFor(location).Encode(buffer, snapshot); err != nil {
		return err
	}
	if err := s.fs.Upload(ctx, location, fileMode, buffer); err != nil {
		return fmt.Errorf("failed to save snapshot %v: %w", location, err)
	}
	s.logger.Debug("snapshot saved", "location", location, "files", len(snapshot.Data.Files), "runs", len(snapshot.RunIDs))
	return nil
}

// Load decodes and restores snapshot from location
func (s *Store) Load(ctx context.Context, location string) (*Snapshot, error) {
	content, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %v: %w", location, err)
	}
	return s.decode(location, bytes.NewReader(content))
}

func (s *Store) decode(location string, reader io.Reader) (*Snapshot, error) {
	ret := &Snapshot{}
	if err := s.codecFor(location).Decode(reader, ret); err != nil {
		return nil, fmt.Errorf("%v: %w", location, err)
	}
	if err := ret.Restore(); err != nil {
		if errors.Is(err, ErrUnsupportedVersion) {
			return nil, fmt.Errorf("%v: %w", location, err)
		}
		s.logger.Warn("dropped invalid coverage", "location", location, "error", err)
	}
	return ret, nil
}

// Resolve maps an input to a snapshot location: directories resolve to their default file name.
// It returns an empty location when nothing exists there.
func (s *Store) Resolve(ctx context.Context, input string) (string, error) {
	ok, err := s.fs.Exists(ctx, input)
	if err != nil || !ok {
		return "", err
	}
	object, err := s.fs.Object(ctx, input)
	if err != nil {
		return "", err
	}
	if !object.IsDir() {
		return input, nil
	}
	location := url.Join(input, DefaultFileName)
	if ok, err = s.fs.Exists(ctx, location); err != nil || !ok {
		return "", err
	}
	return location, nil
}

// Find returns snapshot files under root, sorted
func (s *Store) Find(ctx context.Context, root string) ([]string, error) {
	var result []string
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		name := info.Name()
		if IsSnapshotFile(name) && strings.HasPrefix(name, "coverage") {
			result = append(result, url.Join(baseURL, path.Join(parent, name)))
		}
		return true, nil
	}
	if err := s.fs.Walk(ctx, root, visitor); err != nil {
		return nil, fmt.Errorf("failed to walk %v: %w", root, err)
	}
	sort.Strings(result)
	return result, nil
}
