package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики чекаут-движка.
type CheckoutMetrics struct {
	// Счётчики операций
	previewsComputed prometheus.Counter
	previewsFailed   prometheus.Counter
	commitsSucceeded prometheus.Counter
	commitsFailed    prometheus.Counter
	commitRetries    prometheus.Counter

	// Счётчики переходов state machine
	transitionsApplied  *prometheus.CounterVec
	transitionsRejected prometheus.Counter

	// Гистограммы времени выполнения
	commitDuration    prometheus.Histogram
	operationDuration *prometheus.HistogramVec

	// Gauge для коммитов в полёте
	activeCommits prometheus.Gauge
}

// NewCheckoutMetrics создаёт новый экземпляр метрик чекаута.
func NewCheckoutMetrics() *CheckoutMetrics {
	return newCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		previewsComputed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_previews_computed_total",
			Help: "Total number of price previews computed successfully",
		}),
		previewsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_previews_failed_total",
			Help: "Total number of price preview computations failed",
		}),
		commitsSucceeded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_commits_succeeded_total",
			Help: "Total number of order commits succeeded",
		}),
		commitsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_commits_failed_total",
			Help: "Total number of order commits failed",
		}),
		commitRetries: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_commit_retries_total",
			Help: "Total number of commit attempts retried after transient failures",
		}),
		transitionsApplied: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "checkout_order_transitions_total",
			Help: "Total number of order status transitions applied",
		}, []string{"event"}),
		transitionsRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "checkout_order_transitions_rejected_total",
			Help: "Total number of order status transitions rejected as illegal",
		}),
		commitDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "checkout_commit_duration_seconds",
			Help:    "Duration of order commit transactions in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "checkout_operation_duration_seconds",
			Help:    "Duration of individual checkout operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		activeCommits: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "checkout_active_commits",
			Help: "Number of currently running commit transactions",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordPreviewComputed увеличивает счётчик успешных расчётов превью.
func (m *CheckoutMetrics) RecordPreviewComputed() {
	m.previewsComputed.Inc()
}

// RecordPreviewFailed увеличивает счётчик неудачных расчётов превью.
func (m *CheckoutMetrics) RecordPreviewFailed() {
	m.previewsFailed.Inc()
}

// RecordCommitSucceeded увеличивает счётчик успешных коммитов.
func (m *CheckoutMetrics) RecordCommitSucceeded() {
	m.commitsSucceeded.Inc()
}

// RecordCommitFailed увеличивает счётчик неудачных коммитов.
func (m *CheckoutMetrics) RecordCommitFailed() {
	m.commitsFailed.Inc()
}

// RecordCommitRetry увеличивает счётчик повторных попыток коммита.
func (m *CheckoutMetrics) RecordCommitRetry() {
	m.commitRetries.Inc()
}

// RecordTransitionApplied увеличивает счётчик применённых переходов.
func (m *CheckoutMetrics) RecordTransitionApplied(event string) {
	m.transitionsApplied.WithLabelValues(event).Inc()
}

// RecordTransitionRejected увеличивает счётчик отклонённых переходов.
func (m *CheckoutMetrics) RecordTransitionRejected() {
	m.transitionsRejected.Inc()
}

// RecordCommitDuration записывает время выполнения коммит-транзакции.
func (m *CheckoutMetrics) RecordCommitDuration(duration time.Duration) {
	m.commitDuration.Observe(duration.Seconds())
}

// RecordOperationDuration записывает время выполнения операции чекаута.
func (m *CheckoutMetrics) RecordOperationDuration(operation string, duration time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCommitInFlightStarted увеличивает количество активных коммитов.
func (m *CheckoutMetrics) RecordCommitInFlightStarted() {
	m.activeCommits.Inc()
}

// RecordCommitInFlightFinished уменьшает количество активных коммитов.
func (m *CheckoutMetrics) RecordCommitInFlightFinished() {
	m.activeCommits.Dec()
}
