package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	billingdomain "github.com/ArturasMisevicius/rentcounter/internal/billing/domain"
	propertydomain "github.com/ArturasMisevicius/rentcounter/internal/property/domain"
)

// Source exposes stored properties as the billing cycle's attribute
// collaborator.
type Source struct {
	db   *gorm.DB
	repo propertydomain.Repository
}

type SourceParam struct {
	fx.In

	DB   *gorm.DB
	Repo propertydomain.Repository
}

func NewSource(p SourceParam) billingdomain.PropertyAttributeSource {
	return &Source{db: p.DB, repo: p.Repo}
}

func (s *Source) Fetch(ctx context.Context, propertyID snowflake.ID) (billingdomain.PropertyAttributes, error) {
	property, err := s.repo.FindByID(ctx, s.db, propertyID)
	if err != nil {
		return billingdomain.PropertyAttributes{}, err
	}
	return attributes(property), nil
}

func (s *Source) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]billingdomain.PropertyAttributes, error) {
	properties, err := s.repo.ListByTenant(ctx, s.db, tenantID)
	if err != nil {
		return nil, err
	}
	return attributeList(properties), nil
}

func (s *Source) ListByBuilding(ctx context.Context, buildingID snowflake.ID) ([]billingdomain.PropertyAttributes, error) {
	properties, err := s.repo.ListByBuilding(ctx, s.db, buildingID)
	if err != nil {
		return nil, err
	}
	return attributeList(properties), nil
}

func attributes(p *propertydomain.Property) billingdomain.PropertyAttributes {
	return billingdomain.PropertyAttributes{
		PropertyID:            p.ID,
		TenantID:              p.TenantID,
		BuildingID:            p.BuildingID,
		Area:                  p.Area,
		HistoricalConsumption: p.HistoricalConsumption,
		Extra:                 p.NumericAttributes(),
	}
}

func attributeList(properties []propertydomain.Property) []billingdomain.PropertyAttributes {
	out := make([]billingdomain.PropertyAttributes, 0, len(properties))
	for i := range properties {
		out = append(out, attributes(&properties[i]))
	}
	return out
}
