// Package domain contains properties: the billable units whose consumption
// and attributes feed pricing and cost distribution.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrPropertyNotFound = errors.New("property_not_found")

// Property is one billable unit. Properties in the same building share the
// building's shared services; BuildingID groups them for cost distribution.
type Property struct {
	ID                    snowflake.ID      `gorm:"primaryKey"`
	TenantID              snowflake.ID      `gorm:"not null;index"`
	BuildingID            snowflake.ID      `gorm:"not null;index"`
	Label                 string            `gorm:"type:text;not null"`
	Area                  decimal.Decimal   `gorm:"type:numeric;not null"`
	HistoricalConsumption decimal.Decimal   `gorm:"type:numeric;not null;default:0"`
	Attributes            datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt             time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt             time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Property) TableName() string { return "properties" }

// NumericAttributes extracts the numeric entries of Attributes as formula
// variables. Non-numeric values are ignored.
func (p *Property) NumericAttributes() map[string]float64 {
	if len(p.Attributes) == 0 {
		return nil
	}
	out := make(map[string]float64, len(p.Attributes))
	for name, value := range p.Attributes {
		if f, ok := value.(float64); ok {
			out[name] = f
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Repository provides access to stored properties.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, property *Property) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Property, error)
	ListByTenant(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]Property, error)
	ListByBuilding(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) ([]Property, error)
}
