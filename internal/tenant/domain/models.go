// Package domain contains tenants: the parties invoiced by a billing cycle.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Tenant is an invoiced party occupying one or more properties.
type Tenant struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	Email     string       `gorm:"type:text;not null;default:''"`
	IsActive  bool         `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// Repository provides access to stored tenants.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tenant *Tenant) error

	// ListActive returns the ids of active tenants in a stable order.
	// A non-empty scope restricts the result to the given ids.
	ListActive(ctx context.Context, db *gorm.DB, scope []snowflake.ID) ([]snowflake.ID, error)
}
