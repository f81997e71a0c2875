package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ArturasMisevicius/rentcounter/internal/period"
	readingdomain "github.com/ArturasMisevicius/rentcounter/internal/reading/domain"
)

type Repository struct{}

func New() readingdomain.Repository {
	return &Repository{}
}

func (r *Repository) Insert(ctx context.Context, db *gorm.DB, reading *readingdomain.MeterReading) error {
	return db.WithContext(ctx).Create(reading).Error
}

func (r *Repository) ConsumptionFor(
	ctx context.Context,
	db *gorm.DB,
	propertyID snowflake.ID,
	serviceCode string,
	p period.BillingPeriod,
) (readingdomain.ConsumptionQuantity, error) {
	var rows []struct {
		Zone     string
		Quantity decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT zone, SUM(quantity) AS quantity
		 FROM meter_readings
		 WHERE property_id = ?
		   AND service_code = ?
		   AND reading_date >= ?
		   AND reading_date <= ?
		 GROUP BY zone
		 ORDER BY zone`,
		propertyID,
		serviceCode,
		p.Start(),
		p.End(),
	).Scan(&rows).Error
	if err != nil {
		return readingdomain.ConsumptionQuantity{}, err
	}
	if len(rows) == 0 {
		return readingdomain.ConsumptionQuantity{}, readingdomain.ErrReadingNotFound
	}

	quantity := readingdomain.ConsumptionQuantity{Total: decimal.Zero}
	for _, row := range rows {
		quantity.Total = quantity.Total.Add(row.Quantity)
		if row.Zone == "" {
			continue
		}
		if quantity.Zones == nil {
			quantity.Zones = make(map[string]decimal.Decimal, len(rows))
		}
		quantity.Zones[row.Zone] = quantity.Zones[row.Zone].Add(row.Quantity)
	}
	return quantity, nil
}
