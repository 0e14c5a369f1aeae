package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arklim/calendar-iam/internal/core/domain"
	"github.com/arklim/calendar-iam/internal/core/port"
)

// DenylistMetricsOptions configures the denylist collectors.
type DenylistMetricsOptions struct {
	Registerer prometheus.Registerer
	Namespace  string
	Subsystem  string
}

// DenylistMetrics exposes Prometheus collectors for revoke and lookup paths.
type DenylistMetrics struct {
	Revokes       *prometheus.CounterVec
	Lookups       *prometheus.CounterVec
	FailOpen      *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
	StoreErrors   *prometheus.CounterVec
}

// NewDenylistMetrics constructs and registers the denylist collectors.
func NewDenylistMetrics(opts DenylistMetricsOptions) (*DenylistMetrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "iam"
	}

	subsystem := opts.Subsystem
	if subsystem == "" {
		subsystem = "denylist"
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	revokes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "revoke_total",
		Help:      "Token revocations partitioned by outcome.",
	}, []string{"outcome"})

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "lookup_total",
		Help:      "Denylist lookups partitioned by result.",
	}, []string{"result"})

	failOpen := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "fail_open_total",
		Help:      "Lookups treated as not revoked because the store could not answer.",
	}, []string{"reason"})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_duration_seconds",
		Help:      "Latency of revocation store primitives in seconds.",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
	}, []string{"op"})

	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "store_errors_total",
		Help:      "Failed revocation store primitives partitioned by operation.",
	}, []string{"op"})

	var err error
	if revokes, err = RegisterOrExisting(reg, revokes); err != nil {
		return nil, err
	}
	if lookups, err = RegisterOrExisting(reg, lookups); err != nil {
		return nil, err
	}
	if failOpen, err = RegisterOrExisting(reg, failOpen); err != nil {
		return nil, err
	}
	if storeDuration, err = RegisterOrExisting(reg, storeDuration); err != nil {
		return nil, err
	}
	if storeErrors, err = RegisterOrExisting(reg, storeErrors); err != nil {
		return nil, err
	}

	return &DenylistMetrics{
		Revokes:       revokes,
		Lookups:       lookups,
		FailOpen:      failOpen,
		StoreDuration: storeDuration,
		StoreErrors:   storeErrors,
	}, nil
}

// RegisterOrExisting registers c, reusing an identical collector registered earlier.
func RegisterOrExisting[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
			return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return c, fmt.Errorf("register collector: %w", err)
	}
	return c, nil
}

// ObserveRevoke counts a revocation by outcome.
func (m *DenylistMetrics) ObserveRevoke(outcome string) {
	if m == nil {
		return
	}
	m.Revokes.WithLabelValues(outcome).Inc()
}

// ObserveLookup counts a lookup by result.
func (m *DenylistMetrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(result).Inc()
}

// IncFailOpen counts a lookup answered by the degradation policy.
func (m *DenylistMetrics) IncFailOpen(reason domain.DegradationReason) {
	if m == nil {
		return
	}
	m.FailOpen.WithLabelValues(string(reason)).Inc()
}

// ObserveStoreCall records latency for a store primitive and counts failures.
func (m *DenylistMetrics) ObserveStoreCall(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.StoreDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

var _ port.DenylistMetrics = (*DenylistMetrics)(nil)
