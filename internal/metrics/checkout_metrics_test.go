package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewCheckoutMetricsRecordsWithoutPanic(t *testing.T) {
	m := newCheckoutMetricsWithRegisterer(prometheus.NewRegistry())
	if m == nil {
		t.Fatal("expected non-nil metrics")
	}

	m.RecordPreviewComputed()
	m.RecordPreviewFailed()
	m.RecordCommitSucceeded()
	m.RecordCommitFailed()
	m.RecordCommitRetry()
	m.RecordTransitionApplied("confirm")
	m.RecordTransitionRejected()
	m.RecordCommitDuration(10 * time.Millisecond)
	m.RecordOperationDuration("preview", time.Millisecond)
	m.RecordCommitInFlightStarted()
	m.RecordCommitInFlightFinished()
}

func TestCheckoutMetricsDoubleRegistrationReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := newCheckoutMetricsWithRegisterer(registry)
	second := newCheckoutMetricsWithRegisterer(registry)

	if first.previewsComputed != second.previewsComputed {
		t.Fatal("expected shared counter on double registration")
	}
	if first.activeCommits != second.activeCommits {
		t.Fatal("expected shared gauge on double registration")
	}
}
