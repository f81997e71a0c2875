package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
)

type Repository struct{}

func New() configdomain.Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, db *gorm.DB, cfg *configdomain.ServiceConfiguration) error {
	return db.WithContext(ctx).Create(cfg).Error
}

func (r *Repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*configdomain.ServiceConfiguration, error) {
	var cfg configdomain.ServiceConfiguration
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&cfg).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *Repository) ListEffective(ctx context.Context, db *gorm.DB, propertyID snowflake.ID, p period.BillingPeriod) ([]configdomain.ServiceConfiguration, error) {
	var configs []configdomain.ServiceConfiguration
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM service_configurations
		 WHERE property_id = ?
		   AND is_active = ?
		   AND effective_from <= ?
		   AND (effective_until IS NULL OR effective_until > ?)
		 ORDER BY service_code, id`,
		propertyID,
		true,
		p.Start(),
		p.End(),
	).Scan(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *Repository) ListActiveOverlapping(
	ctx context.Context,
	db *gorm.DB,
	propertyID snowflake.ID,
	serviceCode string,
	from time.Time,
	until *time.Time,
	excludeID snowflake.ID,
) ([]configdomain.ServiceConfiguration, error) {
	// Open-ended ranges extend to +infinity for the overlap test.
	query := db.WithContext(ctx).
		Where("property_id = ? AND service_code = ? AND is_active = ?", propertyID, serviceCode, true).
		Where("effective_until IS NULL OR effective_until > ?", from)
	if until != nil {
		query = query.Where("effective_from < ?", *until)
	}
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var configs []configdomain.ServiceConfiguration
	if err := query.Order("effective_from, id").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}
