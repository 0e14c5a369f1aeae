package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arklim/calendar-iam/internal/core/domain"
)

func TestDenylistMetricsRecords(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := NewDenylistMetrics(DenylistMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("NewDenylistMetrics returned error: %v", err)
	}

	metrics.ObserveRevoke("stored")
	metrics.ObserveRevoke("stored")
	metrics.ObserveLookup("revoked")
	metrics.IncFailOpen(domain.DegradationReasonStoreTimeout)
	metrics.ObserveStoreCall("sismember", 2*time.Millisecond, nil)
	metrics.ObserveStoreCall("sismember", time.Millisecond, errors.New("boom"))

	if got := testutil.ToFloat64(metrics.Revokes.WithLabelValues("stored")); got != 2 {
		t.Fatalf("expected 2 revocations, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.Lookups.WithLabelValues("revoked")); got != 1 {
		t.Fatalf("expected 1 lookup, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.FailOpen.WithLabelValues(string(domain.DegradationReasonStoreTimeout))); got != 1 {
		t.Fatalf("expected 1 fail-open, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.StoreErrors.WithLabelValues("sismember")); got != 1 {
		t.Fatalf("expected 1 store error, got %f", got)
	}
	if samples := testutil.CollectAndCount(metrics.StoreDuration); samples == 0 {
		t.Fatalf("expected store duration samples")
	}
}

func TestDenylistMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first, err := NewDenylistMetrics(DenylistMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("first NewDenylistMetrics returned error: %v", err)
	}
	second, err := NewDenylistMetrics(DenylistMetricsOptions{Registerer: registry})
	if err != nil {
		t.Fatalf("second NewDenylistMetrics returned error: %v", err)
	}

	first.ObserveLookup("clear")
	if got := testutil.ToFloat64(second.Lookups.WithLabelValues("clear")); got != 1 {
		t.Fatalf("expected collectors to be shared, got %f", got)
	}
}

func TestDenylistMetricsNilSafe(t *testing.T) {
	var metrics *DenylistMetrics
	metrics.ObserveRevoke("stored")
	metrics.ObserveLookup("clear")
	metrics.IncFailOpen(domain.DegradationReasonStoreUnavailable)
	metrics.ObserveStoreCall("sadd", time.Millisecond, nil)
}
