package data

import (
	"fmt"
	"math"
	"strings"
)

// Metric identifies a coverage measure
type Metric int

const (
	// MetricLine measures covered line segments (line bodies and branches)
	MetricLine Metric = iota
	// MetricPath measures covered method paths
	MetricPath
)

// Metrics lists all metrics in threshold order
var Metrics = []Metric{MetricLine, MetricPath}

func (m Metric) String() string {
	switch m {
	case MetricLine:
		return "line"
	case MetricPath:
		return "path"
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// ParseMetric parses metric name
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "line", "code", "segment":
		return MetricLine, nil
	case "path":
		return MetricPath, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// Percentage returns round(covered*100/total) or -1 when there is nothing to cover
func Percentage(covered, total int) int {
	if total <= 0 {
		return -1
	}
	return int(math.Round(float64(covered) * 100 / float64(total)))
}

// Counts holds covered and total units of one metric
type Counts struct {
	Covered int `json:"covered" yaml:"covered"`
	Total   int `json:"total" yaml:"total"`
}

// Add accumulates other counts
func (c *Counts) Add(other Counts) {
	c.Covered += other.Covered
	c.Total += other.Total
}

// Percentage returns covered percentage or -1
func (c Counts) Percentage() int {
	return Percentage(c.Covered, c.Total)
}
