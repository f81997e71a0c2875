package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Validator gates configuration changes before they are persisted.
type Validator interface {
	// ValidateNew checks a proposed configuration against the stored ones.
	// Decisions are idempotent: identical input yields identical results.
	ValidateNew(ctx context.Context, cfg *ServiceConfiguration) error
}

// InvoiceLedger answers whether a configuration has been billed, and through
// which date. Implemented by the invoice repository.
type InvoiceLedger interface {
	LastInvoicedAt(ctx context.Context, configID snowflake.ID) (*time.Time, error)
}

// BaseFormulaVariables is the variable allow-list every custom distribution
// formula may reference. Callers may extend it with additional named
// property attributes at evaluation time.
var BaseFormulaVariables = []string{"area", "consumption"}

var (
	ErrMissingRateSchedule    = errors.New("missing_rate_schedule")
	ErrInvalidEffectiveRange  = errors.New("invalid_effective_range")
	ErrConfigurationConflict  = errors.New("configuration_conflict")
	ErrMissingFormula         = errors.New("missing_formula")
	ErrUnsafeFormula          = errors.New("unsafe_formula")
	ErrRateChangeRestricted   = errors.New("rate_change_restricted")
	ErrSupersedesInvoicedDate = errors.New("supersedes_invoiced_date")
)
