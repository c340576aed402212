package data

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CoverageData holds coverage of all source files exercised by a test run
type CoverageData struct {
	WithCallPoints bool                         `json:"withCallPoints,omitempty" yaml:"withCallPoints,omitempty"`
	Files          map[string]*FileCoverageData `json:"files" yaml:"files"`
	mux            sync.RWMutex
}

// NewCoverageData creates coverage data
func NewCoverageData() *CoverageData {
	return &CoverageData{Files: map[string]*FileCoverageData{}}
}

// AddFile returns file data, registering the file if needed
func (c *CoverageData) AddFile(file string) *FileCoverageData {
	c.mux.RLock()
	data, ok := c.Files[file]
	c.mux.RUnlock()
	if ok {
		return data
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.Files == nil {
		c.Files = map[string]*FileCoverageData{}
	}
	if data, ok = c.Files[file]; ok {
		return data
	}
	data = NewFileCoverageData()
	c.Files[file] = data
	return data
}

// File returns file data or nil
func (c *CoverageData) File(file string) *FileCoverageData {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.Files[file]
}

// FileNames returns registered files in lexical order
func (c *CoverageData) FileNames() []string {
	c.mux.RLock()
	defer c.mux.RUnlock()
	result := make([]string, 0, len(c.Files))
	for name := range c.Files {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Merge adds previous run data: files present only in previous are adopted, files of the same build
// are merged per line and method, files of a different build keep the current data
func (c *CoverageData) Merge(previous *CoverageData) error {
	if previous == nil || previous == c {
		return nil
	}
	previous.mux.RLock()
	defer previous.mux.RUnlock()
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.Files == nil {
		c.Files = map[string]*FileCoverageData{}
	}
	c.WithCallPoints = c.WithCallPoints || previous.WithCallPoints
	var errs []error
	for name, previousFile := range previous.Files {
		if previousFile == nil {
			continue
		}
		file, ok := c.Files[name]
		if !ok {
			c.Files[name] = previousFile
			continue
		}
		if file.Fingerprint != previousFile.Fingerprint {
			errs = append(errs, fmt.Errorf("%w: file %v was rebuilt", ErrMergeKeyMismatch, name))
			continue
		}
		if err := file.MergeWithDataFromPreviousTestRun(previousFile); err != nil {
			errs = append(errs, fmt.Errorf("file %v: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Counts returns aggregated counts of metric over files whose path starts with prefix
func (c *CoverageData) Counts(metric Metric, prefix string) Counts {
	c.mux.RLock()
	defer c.mux.RUnlock()
	var result Counts
	for name, file := range c.Files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		result.Add(file.Counts(metric))
	}
	return result
}

// Percentage returns aggregated percentage of metric over files whose path starts with prefix, or -1
func (c *CoverageData) Percentage(metric Metric, prefix string) int {
	counts := c.Counts(metric, prefix)
	return counts.Percentage()
}

// SmallestPerFilePercentage returns the lowest file percentage of metric, or -1 when no file has one
func (c *CoverageData) SmallestPerFilePercentage(metric Metric) int {
	c.mux.RLock()
	defer c.mux.RUnlock()
	smallest := -1
	for _, file := range c.Files {
		percentage := file.Percentage(metric)
		if percentage < 0 {
			continue
		}
		if smallest == -1 || percentage < smallest {
			smallest = percentage
		}
	}
	return smallest
}

// Restore prepares decoded data for use
func (c *CoverageData) Restore() error {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.Files == nil {
		c.Files = map[string]*FileCoverageData{}
	}
	var errs []error
	for name, file := range c.Files {
		if file == nil {
			delete(c.Files, name)
			continue
		}
		if err := file.Restore(); err != nil {
			errs = append(errs, fmt.Errorf("file %v: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
