// Package domain defines the billing cycle orchestrator contract and the
// collaborator interfaces it drives: consumption lookup, property attributes,
// tenant enumeration, and invoice persistence.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/ArturasMisevicius/rentcounter/internal/money"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	readingdomain "github.com/ArturasMisevicius/rentcounter/internal/reading/domain"
)

var (
	ErrCollaboratorTimeout     = errors.New("collaborator_timeout")
	ErrUnbalancedDistribution  = errors.New("unbalanced_distribution")
	ErrTenantEnumerationFailed = errors.New("tenant_enumeration_failed")
)

// Options controls one billing cycle run.
type Options struct {
	// RegenerateExisting replaces the line items of already generated
	// invoices instead of skipping them.
	RegenerateExisting bool

	// TenantIDs restricts the run to the given tenants. Empty means all
	// active tenants.
	TenantIDs []snowflake.ID

	// CreateZeroInvoices persists invoices whose total is zero.
	CreateZeroInvoices bool

	// SkipSharedServices bills shared services at full price to the
	// configured property instead of distributing the cost.
	SkipSharedServices bool

	// Workers bounds per-tenant parallelism. Zero uses the configured
	// default.
	Workers int

	// CollaboratorTimeout bounds each collaborator call. Zero uses the
	// configured default.
	CollaboratorTimeout time.Duration
}

// CycleResult accumulates the outcome of one billing cycle run.
type CycleResult struct {
	Period            period.BillingPeriod
	ProcessedTenants  int
	GeneratedInvoices int
	SkippedInvoices   int
	EligibleInvoices  int
	TotalAmount       money.Money
	Warnings          []string
	Errors            []string
	StartedAt         time.Time
	FinishedAt        time.Time
}

// SuccessRate returns generated invoices over eligible invoice
// opportunities as a percentage clamped to [0, 100]. A run with no
// opportunities is vacuously successful.
func (r CycleResult) SuccessRate() float64 {
	if r.EligibleInvoices <= 0 {
		return 100
	}
	rate := float64(r.GeneratedInvoices) / float64(r.EligibleInvoices) * 100
	if rate < 0 {
		return 0
	}
	if rate > 100 {
		return 100
	}
	return rate
}

// IsSuccessful reports whether the run finished without fatal errors.
func (r CycleResult) IsSuccessful() bool {
	return len(r.Errors) == 0
}

// PropertyAttributes is the attribute view the distribution methods weigh
// on. Extra carries additional numeric variables for custom formulas.
type PropertyAttributes struct {
	PropertyID            snowflake.ID
	TenantID              snowflake.ID
	BuildingID            snowflake.ID
	Area                  decimal.Decimal
	HistoricalConsumption decimal.Decimal
	Extra                 map[string]float64
}

// ConsumptionSource fetches measured consumption for one property and
// service over a period.
type ConsumptionSource interface {
	Fetch(ctx context.Context, propertyID snowflake.ID, serviceCode string, p period.BillingPeriod) (readingdomain.ConsumptionQuantity, error)
}

// PropertyAttributeSource resolves property attributes and groupings.
type PropertyAttributeSource interface {
	Fetch(ctx context.Context, propertyID snowflake.ID) (PropertyAttributes, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]PropertyAttributes, error)
	ListByBuilding(ctx context.Context, buildingID snowflake.ID) ([]PropertyAttributes, error)
}

// TenantEnumerator lists the tenants in scope for a run.
type TenantEnumerator interface {
	List(ctx context.Context, scope []snowflake.ID) ([]snowflake.ID, error)
}

// Service runs billing cycles.
type Service interface {
	RunBillingCycle(ctx context.Context, p period.BillingPeriod, opts Options) (CycleResult, error)
}
