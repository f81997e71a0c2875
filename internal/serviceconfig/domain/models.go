// Package domain contains the service configuration model: the pricing
// contract for one (property, utility service) pair over an effective range.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/ArturasMisevicius/rentcounter/internal/period"
)

// PricingModel selects the formula family converting consumption into money.
type PricingModel string

const (
	PricingFixedMonthly     PricingModel = "fixed_monthly"
	PricingConsumptionBased PricingModel = "consumption_based"
	PricingTieredRates      PricingModel = "tiered_rates"
	PricingTimeOfUse        PricingModel = "time_of_use"
	PricingHybrid           PricingModel = "hybrid"
)

// DistributionMethod selects the policy for splitting a shared cost.
type DistributionMethod string

const (
	DistributionEqual         DistributionMethod = "equal"
	DistributionArea          DistributionMethod = "area"
	DistributionByConsumption DistributionMethod = "by_consumption"
	DistributionCustomFormula DistributionMethod = "custom_formula"
)

// Tier is one marginal band of a tiered rate table. Limit is the upper
// bound of cumulative consumption covered by the band; nil means unbounded
// and is only legal on the last tier.
type Tier struct {
	Limit *decimal.Decimal `json:"limit,omitempty"`
	Rate  decimal.Decimal  `json:"rate"`
}

// SeasonalAdjustment multiplies the variable component of a rate by season.
type SeasonalAdjustment struct {
	SummerMultiplier decimal.Decimal `json:"summer_multiplier"`
	WinterMultiplier decimal.Decimal `json:"winter_multiplier"`
}

// RateSchedule carries the numeric parameters feeding a pricing model.
// Only the fields relevant to the configured model are populated.
type RateSchedule struct {
	MonthlyRate decimal.Decimal            `json:"monthly_rate,omitempty"`
	UnitRate    decimal.Decimal            `json:"unit_rate,omitempty"`
	FixedFee    decimal.Decimal            `json:"fixed_fee,omitempty"`
	Tiers       []Tier                     `json:"tiers,omitempty"`
	ZoneRates   map[string]decimal.Decimal `json:"zone_rates,omitempty"`
	Seasonal    *SeasonalAdjustment        `json:"seasonal_adjustments,omitempty"`
	Formula     string                     `json:"formula,omitempty"`
}

// ServiceConfiguration is the active pricing contract for one property and
// utility service. Historical ranges are never edited in place: a rate
// change creates a new row with a new effective range.
type ServiceConfiguration struct {
	ID                 snowflake.ID       `gorm:"primaryKey"`
	PropertyID         snowflake.ID       `gorm:"not null;index:ix_service_configurations_pair"`
	ServiceCode        string             `gorm:"type:text;not null;index:ix_service_configurations_pair"`
	PricingModel       PricingModel       `gorm:"type:text;not null"`
	DistributionMethod DistributionMethod `gorm:"type:text;not null;default:'equal'"`
	AreaType           string             `gorm:"type:text;not null;default:'total_area'"`
	IsSharedService    bool               `gorm:"not null;default:false"`
	RateSchedule       datatypes.JSON     `gorm:"type:jsonb;not null"`
	EffectiveFrom      time.Time          `gorm:"not null"`
	EffectiveUntil     *time.Time         `gorm:""`
	IsActive           bool               `gorm:"not null"`
	CreatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ServiceConfiguration) TableName() string { return "service_configurations" }

// Schedule decodes the stored rate schedule.
func (c *ServiceConfiguration) Schedule() (RateSchedule, error) {
	var schedule RateSchedule
	if len(c.RateSchedule) == 0 {
		return schedule, fmt.Errorf("configuration %s: %w", c.ID, ErrMissingRateSchedule)
	}
	if err := json.Unmarshal(c.RateSchedule, &schedule); err != nil {
		return schedule, fmt.Errorf("configuration %s: decode rate schedule: %w", c.ID, err)
	}
	return schedule, nil
}

// SetSchedule encodes and stores a rate schedule.
func (c *ServiceConfiguration) SetSchedule(schedule RateSchedule) error {
	raw, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	c.RateSchedule = datatypes.JSON(raw)
	return nil
}

// CoversPeriod reports whether the effective range fully covers the billing
// period. EffectiveUntil is exclusive; nil extends to +infinity.
func (c *ServiceConfiguration) CoversPeriod(p period.BillingPeriod) bool {
	if c.EffectiveFrom.After(p.Start()) {
		return false
	}
	return c.EffectiveUntil == nil || c.EffectiveUntil.After(p.End())
}

// OverlapsRange reports whether the configuration's [from, until) range
// intersects the given [from, until) range.
func (c *ServiceConfiguration) OverlapsRange(from time.Time, until *time.Time) bool {
	if c.EffectiveUntil != nil && !c.EffectiveUntil.After(from) {
		return false
	}
	if until != nil && !until.After(c.EffectiveFrom) {
		return false
	}
	return true
}

// TariffSnapshot is the frozen copy of a configuration's pricing terms that
// travels with every priced amount, keeping invoices stable across later
// rate changes.
type TariffSnapshot struct {
	ServiceConfigurationID snowflake.ID       `json:"service_configuration_id"`
	ServiceCode            string             `json:"service_code"`
	PricingModel           PricingModel       `json:"pricing_model"`
	DistributionMethod     DistributionMethod `json:"distribution_method"`
	RateSchedule           json.RawMessage    `json:"rate_schedule"`
	EffectiveFrom          time.Time          `json:"effective_from"`
	EffectiveUntil         *time.Time         `json:"effective_until,omitempty"`
}

// Snapshot builds the tariff snapshot for this configuration.
func (c *ServiceConfiguration) Snapshot() TariffSnapshot {
	return TariffSnapshot{
		ServiceConfigurationID: c.ID,
		ServiceCode:            c.ServiceCode,
		PricingModel:           c.PricingModel,
		DistributionMethod:     c.DistributionMethod,
		RateSchedule:           json.RawMessage(c.RateSchedule),
		EffectiveFrom:          c.EffectiveFrom,
		EffectiveUntil:         c.EffectiveUntil,
	}
}
