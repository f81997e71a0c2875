// Package domain defines the shared-cost distributor contract: splitting one
// service's total cost across the properties sharing it so that the
// distributed minor units sum exactly to the input cost.
package domain

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/ArturasMisevicius/rentcounter/internal/money"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
)

var (
	ErrNoProperties                  = errors.New("no_properties")
	ErrNegativeTotalCost             = errors.New("negative_total_cost")
	ErrNegativeWeight                = errors.New("negative_weight")
	ErrMissingAttribute              = errors.New("missing_property_attribute")
	ErrFormulaEvaluation             = errors.New("formula_evaluation_failed")
	ErrUnsupportedDistributionMethod = errors.New("unsupported_distribution_method")
)

// PropertyInput carries the per-property values the distribution methods
// weigh on. Attributes holds extra named variables for custom formulas.
type PropertyInput struct {
	PropertyID  snowflake.ID
	Area        decimal.Decimal
	Consumption decimal.Decimal
	Attributes  map[string]float64
}

// CostDistributionResult maps each property to its allocated share.
type CostDistributionResult struct {
	PerProperty      map[snowflake.ID]money.Money
	TotalDistributed money.Money
}

// IsBalanced reports whether the allocated shares sum exactly to the
// distributed total. The distributor guarantees this holds on every
// successful return; a false value is an internal invariant failure.
func (r CostDistributionResult) IsBalanced() bool {
	var sum int64
	for _, share := range r.PerProperty {
		sum += share.Amount
	}
	return sum == r.TotalDistributed.Amount
}

// Service splits shared costs. Distribute is pure and deterministic.
type Service interface {
	Distribute(cfg *configdomain.ServiceConfiguration, properties []PropertyInput, totalCost money.Money, p period.BillingPeriod) (CostDistributionResult, error)
}
