package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	propertydomain "github.com/ArturasMisevicius/rentcounter/internal/property/domain"
)

type Repository struct{}

func New() propertydomain.Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, db *gorm.DB, property *propertydomain.Property) error {
	return db.WithContext(ctx).Create(property).Error
}

func (r *Repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*propertydomain.Property, error) {
	var property propertydomain.Property
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&property).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, propertydomain.ErrPropertyNotFound
		}
		return nil, err
	}
	return &property, nil
}

func (r *Repository) ListByTenant(ctx context.Context, db *gorm.DB, tenantID snowflake.ID) ([]propertydomain.Property, error) {
	var properties []propertydomain.Property
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id").
		Find(&properties).Error
	if err != nil {
		return nil, err
	}
	return properties, nil
}

func (r *Repository) ListByBuilding(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) ([]propertydomain.Property, error) {
	var properties []propertydomain.Property
	err := db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("id").
		Find(&properties).Error
	if err != nil {
		return nil, err
	}
	return properties, nil
}
