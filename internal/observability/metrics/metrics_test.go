package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBillingMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newBillingMetrics(registry, Config{ServiceName: "rentcounter", Environment: "test"})

	m.ObserveCycle("completed", 250*time.Millisecond)
	m.ObserveStage(CycleStageProcess, 10*time.Millisecond)
	m.AddInvoicesGenerated(3)
	m.AddInvoicesSkipped(1)
	m.AddWarnings(2)
	m.AddAmountBilled(9500)

	assert.InDelta(t, 3, testutil.ToFloat64(m.invoicesGenerated), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.invoicesSkipped), 0.001)
	assert.InDelta(t, 2, testutil.ToFloat64(m.warnings), 0.001)
	assert.InDelta(t, 9500, testutil.ToFloat64(m.amountBilled), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cycleRuns.WithLabelValues("completed")), 0.001)
}

func TestBillingMetrics_IgnoresNonPositiveAdds(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newBillingMetrics(registry, Config{})

	m.AddInvoicesGenerated(0)
	m.AddInvoicesGenerated(-5)
	m.AddWarnings(-1)
	m.AddAmountBilled(-100)

	assert.InDelta(t, 0, testutil.ToFloat64(m.invoicesGenerated), 0.001)
	assert.InDelta(t, 0, testutil.ToFloat64(m.warnings), 0.001)
	assert.InDelta(t, 0, testutil.ToFloat64(m.amountBilled), 0.001)
}

func TestBillingSingleton(t *testing.T) {
	ResetBillingMetricsForTest()
	t.Cleanup(ResetBillingMetricsForTest)

	first := BillingWithConfig(Config{ServiceName: "rentcounter"})
	second := Billing()
	assert.Same(t, first, second)
}
