package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccessRate(t *testing.T) {
	assert.InDelta(t, 100.0, CycleResult{}.SuccessRate(), 0.001)
	assert.InDelta(t, 50.0, CycleResult{GeneratedInvoices: 1, EligibleInvoices: 2}.SuccessRate(), 0.001)
	assert.InDelta(t, 100.0, CycleResult{GeneratedInvoices: 3, EligibleInvoices: 3}.SuccessRate(), 0.001)

	// Clamped even when counters drift.
	assert.InDelta(t, 100.0, CycleResult{GeneratedInvoices: 4, EligibleInvoices: 3}.SuccessRate(), 0.001)
	assert.InDelta(t, 0.0, CycleResult{GeneratedInvoices: -1, EligibleInvoices: 3}.SuccessRate(), 0.001)
}

func TestIsSuccessful(t *testing.T) {
	assert.True(t, CycleResult{Warnings: []string{"w"}}.IsSuccessful())
	assert.False(t, CycleResult{Errors: []string{"e"}}.IsSuccessful())
}
