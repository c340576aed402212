package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	hitLine   = "line"
	hitBranch = "branch"
	hitNode   = "node"
)

// Metrics counts recorded hits and recording failures
type Metrics struct {
	Hits           *prometheus.CounterVec
	UnmatchedExits prometheus.Counter
	Errors         *prometheus.CounterVec
}

// NewMetrics creates metrics registered with registerer; a nil registerer leaves them unregistered
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Hits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathcover",
			Name:      "hits_total",
			Help:      "Recorded executions by kind (line, branch, node)",
		}, []string{"kind"}),
		UnmatchedExits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pathcover",
			Name:      "unmatched_exits_total",
			Help:      "Invocations whose reached nodes matched no path",
		}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathcover",
			Name:      "errors_total",
			Help:      "Recording failures by operation",
		}, []string{"operation"}),
	}
}
