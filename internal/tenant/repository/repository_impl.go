package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	tenantdomain "github.com/ArturasMisevicius/rentcounter/internal/tenant/domain"
)

type Repository struct{}

func New() tenantdomain.Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, db *gorm.DB, tenant *tenantdomain.Tenant) error {
	return db.WithContext(ctx).Create(tenant).Error
}

func (r *Repository) ListActive(ctx context.Context, db *gorm.DB, scope []snowflake.ID) ([]snowflake.ID, error) {
	query := db.WithContext(ctx).
		Model(&tenantdomain.Tenant{}).
		Where("is_active = ?", true)
	if len(scope) > 0 {
		query = query.Where("id IN ?", scope)
	}

	var ids []snowflake.ID
	if err := query.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
