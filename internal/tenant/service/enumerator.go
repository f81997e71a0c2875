package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	billingdomain "github.com/ArturasMisevicius/rentcounter/internal/billing/domain"
	tenantdomain "github.com/ArturasMisevicius/rentcounter/internal/tenant/domain"
)

// Enumerator exposes stored tenants as the billing cycle's tenant
// collaborator.
type Enumerator struct {
	db   *gorm.DB
	repo tenantdomain.Repository
}

type EnumeratorParam struct {
	fx.In

	DB   *gorm.DB
	Repo tenantdomain.Repository
}

func NewEnumerator(p EnumeratorParam) billingdomain.TenantEnumerator {
	return &Enumerator{db: p.DB, repo: p.Repo}
}

func (e *Enumerator) List(ctx context.Context, scope []snowflake.ID) ([]snowflake.ID, error) {
	return e.repo.ListActive(ctx, e.db, scope)
}
