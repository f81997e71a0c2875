package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/ArturasMisevicius/rentcounter/internal/period"
)

// Repository provides access to stored service configurations.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, cfg *ServiceConfiguration) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ServiceConfiguration, error)

	// ListEffective returns active configurations for a property whose
	// effective range covers the billing period.
	ListEffective(ctx context.Context, db *gorm.DB, propertyID snowflake.ID, p period.BillingPeriod) ([]ServiceConfiguration, error)

	// ListActiveOverlapping returns active configurations for the same
	// (property, service) pair whose [from, until) range intersects the
	// given one, excluding excludeID.
	ListActiveOverlapping(ctx context.Context, db *gorm.DB, propertyID snowflake.ID, serviceCode string, from time.Time, until *time.Time, excludeID snowflake.ID) ([]ServiceConfiguration, error)
}
