package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	billingdomain "github.com/ArturasMisevicius/rentcounter/internal/billing/domain"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	readingdomain "github.com/ArturasMisevicius/rentcounter/internal/reading/domain"
)

// Source exposes stored meter readings as the billing cycle's consumption
// collaborator.
type Source struct {
	db   *gorm.DB
	repo readingdomain.Repository
}

type SourceParam struct {
	fx.In

	DB   *gorm.DB
	Repo readingdomain.Repository
}

func NewSource(p SourceParam) billingdomain.ConsumptionSource {
	return &Source{db: p.DB, repo: p.Repo}
}

func (s *Source) Fetch(ctx context.Context, propertyID snowflake.ID, serviceCode string, p period.BillingPeriod) (readingdomain.ConsumptionQuantity, error) {
	return s.repo.ConsumptionFor(ctx, s.db, propertyID, serviceCode, p)
}
