// Package metrics captures billing engine health signals.
package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	CycleStageEnumerate  = "enumerate_tenants"
	CycleStageProcess    = "process_tenant"
	CycleStagePersist    = "persist_invoice"
	CycleStageDistribute = "distribute_shared"
)

// Config carries the constant labels stamped on every metric.
type Config struct {
	ServiceName string
	Environment string
}

// BillingMetrics records billing cycle outcomes and latencies.
type BillingMetrics struct {
	cycleRuns         *prometheus.CounterVec
	cycleDuration     prometheus.Observer
	stageDuration     *prometheus.HistogramVec
	invoicesGenerated prometheus.Counter
	invoicesSkipped   prometheus.Counter
	warnings          prometheus.Counter
	cycleErrors       prometheus.Counter
	amountBilled      prometheus.Counter
}

var (
	billingMetricsOnce sync.Once
	billingMetrics     *BillingMetrics
)

// Billing returns the singleton billing metrics registry.
func Billing() *BillingMetrics {
	return BillingWithConfig(Config{})
}

// BillingWithConfig returns the singleton billing metrics registry using
// config labels.
func BillingWithConfig(cfg Config) *BillingMetrics {
	billingMetricsOnce.Do(func() {
		billingMetrics = newBillingMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return billingMetrics
}

// ResetBillingMetricsForTest resets the billing metrics singleton for tests.
func ResetBillingMetricsForTest() {
	billingMetricsOnce = sync.Once{}
	billingMetrics = nil
}

func newBillingMetrics(registerer prometheus.Registerer, cfg Config) *BillingMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "rentcounter"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	cycleRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "rentcounter_billing_cycle_runs_total",
		Help:        "Billing cycle runs by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "rentcounter_billing_cycle_duration_seconds",
		Help:        "End to end billing cycle latency.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 600},
		ConstLabels: constLabels,
	})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "rentcounter_billing_stage_duration_seconds",
		Help:        "Per stage latency inside a billing cycle.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	}, []string{"stage"})
	invoicesGenerated := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "rentcounter_billing_invoices_generated_total",
		Help:        "Invoices created or regenerated by the engine.",
		ConstLabels: constLabels,
	})
	invoicesSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "rentcounter_billing_invoices_skipped_total",
		Help:        "Invoice opportunities skipped because an invoice already existed.",
		ConstLabels: constLabels,
	})
	warnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "rentcounter_billing_warnings_total",
		Help:        "Recoverable per-property failures recorded as warnings.",
		ConstLabels: constLabels,
	})
	cycleErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "rentcounter_billing_errors_total",
		Help:        "Fatal errors recorded by billing cycles.",
		ConstLabels: constLabels,
	})
	amountBilled := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "rentcounter_billing_amount_minor_units_total",
		Help:        "Total billed amount in currency minor units.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		cycleRuns,
		cycleDuration,
		stageDuration,
		invoicesGenerated,
		invoicesSkipped,
		warnings,
		cycleErrors,
		amountBilled,
	)

	return &BillingMetrics{
		cycleRuns:         cycleRuns,
		cycleDuration:     cycleDuration,
		stageDuration:     stageDuration,
		invoicesGenerated: invoicesGenerated,
		invoicesSkipped:   invoicesSkipped,
		warnings:          warnings,
		cycleErrors:       cycleErrors,
		amountBilled:      amountBilled,
	}
}

// ObserveCycle records one finished cycle run.
func (m *BillingMetrics) ObserveCycle(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.cycleRuns.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(duration.Seconds())
}

// ObserveStage records the latency of one cycle stage.
func (m *BillingMetrics) ObserveStage(stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// AddInvoicesGenerated counts created or regenerated invoices.
func (m *BillingMetrics) AddInvoicesGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invoicesGenerated.Add(float64(n))
}

// AddInvoicesSkipped counts idempotent skips of existing invoices.
func (m *BillingMetrics) AddInvoicesSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invoicesSkipped.Add(float64(n))
}

// AddWarnings counts recoverable failures.
func (m *BillingMetrics) AddWarnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.warnings.Add(float64(n))
}

// AddErrors counts fatal cycle errors.
func (m *BillingMetrics) AddErrors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cycleErrors.Add(float64(n))
}

// AddAmountBilled counts billed minor units.
func (m *BillingMetrics) AddAmountBilled(minorUnits int64) {
	if m == nil || minorUnits <= 0 {
		return
	}
	m.amountBilled.Add(float64(minorUnits))
}
