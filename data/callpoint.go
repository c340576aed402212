package data

import (
	"fmt"
	"runtime"
	"strings"
)

const maxCallerDepth = 64

// CallPoint identifies the test function that caused an execution
type CallPoint struct {
	Function string `json:"function" yaml:"function"`
	File     string `json:"file" yaml:"file"`
	Line     int    `json:"line" yaml:"line"`
}

func (c *CallPoint) String() string {
	return fmt.Sprintf("%s (%s:%d)", c.Function, c.File, c.Line)
}

// NewCallPoint returns the first test function frame above the caller, or nil when not called from a test
func NewCallPoint(skip int) *CallPoint {
	pcs := make([]uintptr, maxCallerDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if isTestFrame(frame) {
			return &CallPoint{Function: frame.Function, File: frame.File, Line: frame.Line}
		}
		if !more {
			return nil
		}
	}
}

func isTestFrame(frame runtime.Frame) bool {
	if !strings.HasSuffix(frame.File, "_test.go") {
		return false
	}
	name := frame.Function
	if index := strings.LastIndex(name, "/"); index != -1 {
		name = name[index+1:]
	}
	if index := strings.Index(name, "."); index != -1 {
		name = name[index+1:]
	}
	// closures of a test function are reported as TestX.func1
	if index := strings.Index(name, "."); index != -1 {
		name = name[:index]
	}
	return strings.HasPrefix(name, "Test")
}

func prependCallPoints(previous, current []*CallPoint) []*CallPoint {
	if len(previous) == 0 {
		return current
	}
	result := make([]*CallPoint, 0, len(previous)+len(current))
	result = append(result, previous...)
	return append(result, current...)
}
