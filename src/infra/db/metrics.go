package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records query counts and latencies. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	queries  *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the query collectors and registers them with reg.
//
// Metrics registered:
//   - {namespace}_db_queries_total{result} - queries by result (ok/error)
//   - {namespace}_db_query_duration_seconds - query latency histogram
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	if reg == nil {
		return nil, errors.New("prometheus registerer is nil")
	}

	queries, err := Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "db",
		Name: "queries_total",
		Help: "Number of database queries by result",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}
	duration, err := Register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "db",
		Name:    "query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}))
	if err != nil {
		return nil, err
	}
	return &Metrics{queries: queries, duration: duration}, nil
}

func (m *Metrics) observe(start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.queries.WithLabelValues(result).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}

// Register registers c with reg. When an equal collector is already
// registered the existing one is returned, so metrics built twice against
// the same registry share their series.
func Register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}
