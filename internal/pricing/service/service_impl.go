package service

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ArturasMisevicius/rentcounter/internal/config"
	"github.com/ArturasMisevicius/rentcounter/internal/money"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	pricingdomain "github.com/ArturasMisevicius/rentcounter/internal/pricing/domain"
	readingdomain "github.com/ArturasMisevicius/rentcounter/internal/reading/domain"
	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
)

var one = decimal.NewFromInt(1)

type Service struct {
	log      *zap.Logger
	currency string
	seasons  period.SeasonTable
}

type ServiceParam struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
}

func NewService(p ServiceParam) pricingdomain.Service {
	seasons := p.Config.Billing.Seasons
	if len(seasons.Summer) == 0 && len(seasons.Winter) == 0 {
		seasons = period.DefaultSeasons()
	}
	return &Service{
		log:      p.Log.Named("pricing.service"),
		currency: p.Config.Billing.Currency,
		seasons:  seasons,
	}
}

func (s *Service) Price(
	cfg *configdomain.ServiceConfiguration,
	consumption readingdomain.ConsumptionQuantity,
	p period.BillingPeriod,
) (pricingdomain.PricedAmount, error) {
	if err := consumption.Validate(); err != nil {
		return pricingdomain.PricedAmount{}, fmt.Errorf("configuration %s: %w", cfg.ID, pricingdomain.ErrNegativeConsumption)
	}

	schedule, err := cfg.Schedule()
	if err != nil {
		return pricingdomain.PricedAmount{}, err
	}

	var (
		fixed = decimal.Zero
		cons  = decimal.Zero
		lines []pricingdomain.BreakdownLine
	)

	switch cfg.PricingModel {
	case configdomain.PricingFixedMonthly:
		fixed, lines = s.priceFixedMonthly(schedule, p)

	case configdomain.PricingConsumptionBased:
		cons = consumption.Total.Mul(schedule.UnitRate)
		lines = append(lines, pricingdomain.BreakdownLine{
			Component:   "consumption",
			Description: "metered consumption",
			Quantity:    consumption.Total,
			Rate:        schedule.UnitRate,
			Amount:      cons,
		})

	case configdomain.PricingTieredRates:
		cons, lines, err = s.priceTiered(cfg, schedule, consumption)
		if err != nil {
			return pricingdomain.PricedAmount{}, err
		}

	case configdomain.PricingTimeOfUse:
		cons, lines, err = s.priceTimeOfUse(cfg, schedule, consumption)
		if err != nil {
			return pricingdomain.PricedAmount{}, err
		}

	case configdomain.PricingHybrid:
		fixed = schedule.FixedFee
		lines = append(lines, pricingdomain.BreakdownLine{
			Component:   "fixed",
			Description: "fixed fee",
			Quantity:    one,
			Rate:        schedule.FixedFee,
			Amount:      fixed,
		})
		mult := s.seasonMultiplier(schedule.Seasonal, p)
		cons = consumption.Total.Mul(schedule.UnitRate).Mul(mult)
		description := "metered consumption"
		if !mult.Equal(one) {
			description = fmt.Sprintf("metered consumption, seasonal x%s", mult)
		}
		lines = append(lines, pricingdomain.BreakdownLine{
			Component:   "consumption",
			Description: description,
			Quantity:    consumption.Total,
			Rate:        schedule.UnitRate,
			Amount:      cons,
		})

	default:
		return pricingdomain.PricedAmount{}, fmt.Errorf("configuration %s: model %q: %w",
			cfg.ID, cfg.PricingModel, pricingdomain.ErrUnsupportedPricingModel)
	}

	fixedMoney := money.FromDecimal(fixed, s.currency)
	consMoney := money.FromDecimal(cons, s.currency)
	return pricingdomain.PricedAmount{
		FixedAmount:       fixedMoney,
		ConsumptionAmount: consMoney,
		TotalAmount:       fixedMoney.Add(consMoney),
		Breakdown:         lines,
		Snapshot:          cfg.Snapshot(),
	}, nil
}

// priceFixedMonthly applies the seasonal multiplier to the monthly fee and
// pro-rates it linearly by day count when the period is a partial month.
func (s *Service) priceFixedMonthly(schedule configdomain.RateSchedule, p period.BillingPeriod) (decimal.Decimal, []pricingdomain.BreakdownLine) {
	mult := s.seasonMultiplier(schedule.Seasonal, p)
	amount := schedule.MonthlyRate.Mul(mult)
	description := "monthly fee"
	quantity := one
	if !p.IsFullMonth() {
		days := decimal.NewFromInt(int64(p.Days()))
		monthDays := decimal.NewFromInt(int64(p.DaysInStartMonth()))
		amount = amount.Mul(days).Div(monthDays)
		description = fmt.Sprintf("monthly fee pro-rated %d/%d days", p.Days(), p.DaysInStartMonth())
		quantity = days.Div(monthDays)
	}
	return amount, []pricingdomain.BreakdownLine{{
		Component:   "fixed",
		Description: description,
		Quantity:    quantity,
		Rate:        schedule.MonthlyRate,
		Amount:      amount,
	}}
}

// priceTiered partitions consumption across successive marginal bands. Tier
// limits are cumulative upper bounds in strictly ascending order; only the
// last tier may be unbounded.
func (s *Service) priceTiered(
	cfg *configdomain.ServiceConfiguration,
	schedule configdomain.RateSchedule,
	consumption readingdomain.ConsumptionQuantity,
) (decimal.Decimal, []pricingdomain.BreakdownLine, error) {
	tiers := schedule.Tiers
	if len(tiers) == 0 {
		return decimal.Zero, nil, fmt.Errorf("configuration %s: empty tier table: %w", cfg.ID, pricingdomain.ErrInvalidTierTable)
	}
	if tiers[len(tiers)-1].Limit != nil {
		return decimal.Zero, nil, fmt.Errorf("configuration %s: last tier must be unbounded: %w", cfg.ID, pricingdomain.ErrInvalidTierTable)
	}
	// The whole table is validated before any band is charged, so a broken
	// table fails identically at every consumption level.
	bound := decimal.Zero
	for i, tier := range tiers[:len(tiers)-1] {
		if tier.Limit == nil {
			return decimal.Zero, nil, fmt.Errorf("configuration %s: unbounded tier %d before last: %w", cfg.ID, i, pricingdomain.ErrInvalidTierTable)
		}
		if !tier.Limit.GreaterThan(bound) {
			return decimal.Zero, nil, fmt.Errorf("configuration %s: tier %d limit not ascending: %w", cfg.ID, i, pricingdomain.ErrInvalidTierTable)
		}
		bound = *tier.Limit
	}

	var (
		total = consumption.Total
		prev  = decimal.Zero
		cons  = decimal.Zero
		lines []pricingdomain.BreakdownLine
	)
	for i, tier := range tiers {
		upper := total
		if tier.Limit != nil && tier.Limit.LessThan(total) {
			upper = *tier.Limit
		}
		band := upper.Sub(prev)
		if band.IsPositive() {
			charge := band.Mul(tier.Rate)
			cons = cons.Add(charge)
			lines = append(lines, pricingdomain.BreakdownLine{
				Component:   "consumption",
				Description: fmt.Sprintf("tier %d", i+1),
				Quantity:    band,
				Rate:        tier.Rate,
				Amount:      charge,
			})
		}
		if tier.Limit == nil || !tier.Limit.LessThan(total) {
			break
		}
		prev = *tier.Limit
	}
	return cons, lines, nil
}

// priceTimeOfUse prices each consumption zone at its configured rate. A zone
// without an explicit rate falls back to the schedule's "default" rate;
// with neither present the configuration is invalid.
func (s *Service) priceTimeOfUse(
	cfg *configdomain.ServiceConfiguration,
	schedule configdomain.RateSchedule,
	consumption readingdomain.ConsumptionQuantity,
) (decimal.Decimal, []pricingdomain.BreakdownLine, error) {
	if !consumption.HasZones() {
		return decimal.Zero, nil, fmt.Errorf("configuration %s: %w", cfg.ID, pricingdomain.ErrMissingZoneData)
	}

	zones := make([]string, 0, len(consumption.Zones))
	for zone := range consumption.Zones {
		zones = append(zones, zone)
	}
	sort.Strings(zones)

	var (
		cons  = decimal.Zero
		lines []pricingdomain.BreakdownLine
	)
	for _, zone := range zones {
		rate, ok := schedule.ZoneRates[zone]
		if !ok {
			rate, ok = schedule.ZoneRates["default"]
		}
		if !ok {
			return decimal.Zero, nil, fmt.Errorf("configuration %s: zone %q: %w", cfg.ID, zone, pricingdomain.ErrMissingZoneRate)
		}
		quantity := consumption.Zones[zone]
		charge := quantity.Mul(rate)
		cons = cons.Add(charge)
		lines = append(lines, pricingdomain.BreakdownLine{
			Component:   "consumption",
			Description: fmt.Sprintf("zone %s", zone),
			Quantity:    quantity,
			Rate:        rate,
			Amount:      charge,
		})
	}
	return cons, lines, nil
}

// seasonMultiplier picks the multiplier for the period's starting month. An
// unset multiplier means no adjustment.
func (s *Service) seasonMultiplier(adj *configdomain.SeasonalAdjustment, p period.BillingPeriod) decimal.Decimal {
	if adj == nil {
		return one
	}
	var mult decimal.Decimal
	switch s.seasons.SeasonOf(p) {
	case period.SeasonSummer:
		mult = adj.SummerMultiplier
	case period.SeasonWinter:
		mult = adj.WinterMultiplier
	default:
		return one
	}
	if mult.IsZero() {
		return one
	}
	return mult
}
