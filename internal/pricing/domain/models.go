// Package domain defines the pricing evaluator contract: converting one
// property's consumption into an exact monetary amount under the configured
// pricing model.
package domain

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/ArturasMisevicius/rentcounter/internal/money"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	readingdomain "github.com/ArturasMisevicius/rentcounter/internal/reading/domain"
	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
)

var (
	ErrNegativeConsumption     = errors.New("negative_consumption")
	ErrMissingZoneData         = errors.New("missing_zone_data")
	ErrMissingZoneRate         = errors.New("missing_zone_rate")
	ErrInvalidTierTable        = errors.New("invalid_tier_table")
	ErrUnsupportedPricingModel = errors.New("unsupported_pricing_model")
)

// BreakdownLine is one audit entry of a priced amount. Amounts stay in
// decimal form; rounding happens once, on the PricedAmount components.
type BreakdownLine struct {
	Component   string          `json:"component"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// PricedAmount is the evaluator's result: the fixed and consumption
// components rounded to minor units, the audit breakdown, and the tariff
// snapshot frozen from the configuration that produced it.
type PricedAmount struct {
	FixedAmount       money.Money
	ConsumptionAmount money.Money
	TotalAmount       money.Money
	Breakdown         []BreakdownLine
	Snapshot          configdomain.TariffSnapshot
}

// Service evaluates pricing models. Price is a pure function: it performs no
// I/O, holds no state between calls, and identical inputs yield identical
// results.
type Service interface {
	Price(cfg *configdomain.ServiceConfiguration, consumption readingdomain.ConsumptionQuantity, p period.BillingPeriod) (PricedAmount, error)
}
