package check

import (
	"errors"
	"fmt"
	"github.com/viant/pathcover/data"
	"strconv"
	"strings"
)

// PerFile scope applies minimums to every file separately
const PerFile = "perFile"

var ErrInvalidThreshold = errors.New("invalid threshold")

// Threshold holds minimum percentages of each metric for one scope
type Threshold struct {
	// Scope is empty for all files, PerFile, or a source path prefix
	Scope    string
	Minimums map[data.Metric]int
}

// ParseThresholds parses "[scope:]line%[,path%]" entries separated by ';'.
// A scope in dotted form is turned into a path prefix.
func ParseThresholds(expr string) ([]*Threshold, error) {
	var result []*Threshold
	for _, item := range strings.Split(expr, ";") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		threshold, err := parseThreshold(item)
		if err != nil {
			return nil, err
		}
		result = append(result, threshold)
	}
	return result, nil
}

func parseThreshold(item string) (*Threshold, error) {
	ret := &Threshold{Minimums: map[data.Metric]int{}}
	percentages := item
	if index := strings.LastIndex(item, ":"); index != -1 {
		scope := strings.TrimSpace(item[:index])
		percentages = item[index+1:]
		if scope != PerFile {
			scope = strings.ReplaceAll(scope, ".", "/")
		}
		ret.Scope = scope
	}
	values := strings.Split(percentages, ",")
	if len(values) > len(data.Metrics) {
		return nil, fmt.Errorf("%w: %q has %d percentages", ErrInvalidThreshold, item, len(values))
	}
	for i, value := range values {
		value = strings.TrimSuffix(strings.TrimSpace(value), "%")
		if value == "" {
			continue
		}
		minimum, err := strconv.Atoi(value)
		if err != nil || minimum < 0 || minimum > 100 {
			return nil, fmt.Errorf("%w: %q: percentage %q", ErrInvalidThreshold, item, value)
		}
		ret.Minimums[data.Metrics[i]] = minimum
	}
	return ret, nil
}

// Description returns a human readable scope
func (t *Threshold) Description() string {
	switch t.Scope {
	case "":
		return "all files"
	case PerFile:
		return "each file"
	}
	return t.Scope
}

// Percentage returns the measured percentage of metric for the threshold scope, or -1
func (t *Threshold) Percentage(coverage *data.CoverageData, metric data.Metric) int {
	if t.Scope == PerFile {
		return coverage.SmallestPerFilePercentage(metric)
	}
	return coverage.Percentage(metric, t.Scope)
}

// Violation describes a metric below its minimum
type Violation struct {
	Scope      string
	Metric     data.Metric
	Percentage int
	Minimum    int
}

func (v *Violation) String() string {
	return fmt.Sprintf("%v coverage too low for %v: %d%% < %d%%", v.Metric, v.Scope, v.Percentage, v.Minimum)
}

// Verify returns violations of coverage; metrics with nothing to measure pass
func (t *Threshold) Verify(coverage *data.CoverageData) []*Violation {
	var result []*Violation
	for _, metric := range data.Metrics {
		minimum, ok := t.Minimums[metric]
		if !ok {
			continue
		}
		percentage := t.Percentage(coverage, metric)
		if percentage < 0 || percentage >= minimum {
			continue
		}
		result = append(result, &Violation{Scope: t.Description(), Metric: metric, Percentage: percentage, Minimum: minimum})
	}
	return result
}
