// Package domain contains meter readings and the consumption quantities
// aggregated from them.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ArturasMisevicius/rentcounter/internal/period"
)

var (
	ErrReadingNotFound    = errors.New("reading_not_found")
	ErrNegativeQuantity   = errors.New("negative_quantity")
	ErrReadingOutOfPeriod = errors.New("reading_out_of_period")
)

// MeterReading is one measured consumption delta for a property and service.
// Zone is empty for single-register meters and carries the register name
// (e.g. "day", "night") for time-of-use meters.
type MeterReading struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	PropertyID  snowflake.ID    `gorm:"not null;index:ix_meter_readings_lookup"`
	ServiceCode string          `gorm:"type:text;not null;index:ix_meter_readings_lookup"`
	Zone        string          `gorm:"type:text;not null;default:''"`
	Quantity    decimal.Decimal `gorm:"type:numeric;not null"`
	ReadingDate time.Time       `gorm:"not null;index:ix_meter_readings_lookup"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (MeterReading) TableName() string { return "meter_readings" }

// ConsumptionQuantity is the measured usage for one property and service over
// a billing period, optionally decomposed into named zones.
type ConsumptionQuantity struct {
	Total decimal.Decimal
	Zones map[string]decimal.Decimal
}

// HasZones reports whether the quantity carries a per-zone decomposition.
func (q ConsumptionQuantity) HasZones() bool { return len(q.Zones) > 0 }

// Validate rejects negative totals and negative zone quantities.
func (q ConsumptionQuantity) Validate() error {
	if q.Total.IsNegative() {
		return ErrNegativeQuantity
	}
	for _, v := range q.Zones {
		if v.IsNegative() {
			return ErrNegativeQuantity
		}
	}
	return nil
}

// Repository aggregates stored readings into consumption quantities.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reading *MeterReading) error

	// ConsumptionFor sums readings for the property and service over the
	// period, decomposed by zone. No readings yields ErrReadingNotFound.
	ConsumptionFor(ctx context.Context, db *gorm.DB, propertyID snowflake.ID, serviceCode string, p period.BillingPeriod) (ConsumptionQuantity, error)
}
