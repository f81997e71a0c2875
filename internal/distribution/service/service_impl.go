package service

import (
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	distributiondomain "github.com/ArturasMisevicius/rentcounter/internal/distribution/domain"
	"github.com/ArturasMisevicius/rentcounter/internal/formula"
	"github.com/ArturasMisevicius/rentcounter/internal/money"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
)

type Service struct {
	log *zap.Logger
}

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

func NewService(p ServiceParam) distributiondomain.Service {
	return &Service{log: p.Log.Named("distribution.service")}
}

func (s *Service) Distribute(
	cfg *configdomain.ServiceConfiguration,
	properties []distributiondomain.PropertyInput,
	totalCost money.Money,
	p period.BillingPeriod,
) (distributiondomain.CostDistributionResult, error) {
	if len(properties) == 0 {
		return distributiondomain.CostDistributionResult{}, fmt.Errorf("configuration %s: %w", cfg.ID, distributiondomain.ErrNoProperties)
	}
	if totalCost.IsNegative() {
		return distributiondomain.CostDistributionResult{}, fmt.Errorf("configuration %s: %w", cfg.ID, distributiondomain.ErrNegativeTotalCost)
	}

	// Remainder assignment is order-dependent, so fix a caller-independent
	// order before allocating.
	ordered := make([]distributiondomain.PropertyInput, len(properties))
	copy(ordered, properties)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].PropertyID < ordered[j].PropertyID
	})

	result := distributiondomain.CostDistributionResult{
		PerProperty:      make(map[snowflake.ID]money.Money, len(ordered)),
		TotalDistributed: totalCost,
	}
	if totalCost.IsZero() {
		for _, prop := range ordered {
			result.PerProperty[prop.PropertyID] = money.Zero(totalCost.Currency)
		}
		return result, nil
	}

	weights, err := s.weights(cfg, ordered)
	if err != nil {
		return distributiondomain.CostDistributionResult{}, err
	}

	shares := allocate(totalCost.Amount, weights)
	for i, prop := range ordered {
		result.PerProperty[prop.PropertyID] = money.New(shares[i], totalCost.Currency)
	}
	return result, nil
}

// weights computes one non-negative weight per property for the configured
// method. Consumption and formula weights degrade to equal distribution when
// the group total is zero; area weights must be positive per property.
func (s *Service) weights(cfg *configdomain.ServiceConfiguration, ordered []distributiondomain.PropertyInput) ([]decimal.Decimal, error) {
	weights := make([]decimal.Decimal, len(ordered))

	switch cfg.DistributionMethod {
	case configdomain.DistributionEqual:
		return equalWeights(len(ordered)), nil

	case configdomain.DistributionArea:
		// Every participating property must carry a positive area; an
		// absent attribute is a configuration error, not a zero share.
		for i, prop := range ordered {
			if prop.Area.IsNegative() {
				return nil, fmt.Errorf("property %s area %s: %w", prop.PropertyID, prop.Area, distributiondomain.ErrNegativeWeight)
			}
			if prop.Area.IsZero() {
				return nil, fmt.Errorf("property %s has no area: %w", prop.PropertyID, distributiondomain.ErrMissingAttribute)
			}
			weights[i] = prop.Area
		}
		return weights, nil

	case configdomain.DistributionByConsumption:
		total := decimal.Zero
		var zeroProp snowflake.ID
		for i, prop := range ordered {
			if prop.Consumption.IsNegative() {
				return nil, fmt.Errorf("property %s consumption %s: %w", prop.PropertyID, prop.Consumption, distributiondomain.ErrNegativeWeight)
			}
			if prop.Consumption.IsZero() && zeroProp == 0 {
				zeroProp = prop.PropertyID
			}
			weights[i] = prop.Consumption
			total = total.Add(prop.Consumption)
		}
		// A group with no consumption at all degrades to equal shares;
		// a single unconsuming property among consuming ones does not.
		if total.IsZero() {
			return equalWeights(len(ordered)), nil
		}
		if zeroProp != 0 {
			return nil, fmt.Errorf("property %s has no consumption: %w", zeroProp, distributiondomain.ErrMissingAttribute)
		}
		return weights, nil

	case configdomain.DistributionCustomFormula:
		schedule, err := cfg.Schedule()
		if err != nil {
			return nil, err
		}
		total := decimal.Zero
		for i, prop := range ordered {
			vars := map[string]float64{
				"area":        prop.Area.InexactFloat64(),
				"consumption": prop.Consumption.InexactFloat64(),
			}
			for name, value := range prop.Attributes {
				vars[name] = value
			}
			raw, err := formula.Evaluate(schedule.Formula, vars)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w: %v", prop.PropertyID, distributiondomain.ErrFormulaEvaluation, err)
			}
			if raw < 0 {
				return nil, fmt.Errorf("property %s weight %v: %w", prop.PropertyID, raw, distributiondomain.ErrNegativeWeight)
			}
			weights[i] = decimal.NewFromFloat(raw)
			total = total.Add(weights[i])
		}
		if total.IsZero() {
			return equalWeights(len(ordered)), nil
		}
		return weights, nil

	default:
		return nil, fmt.Errorf("configuration %s: method %q: %w",
			cfg.ID, cfg.DistributionMethod, distributiondomain.ErrUnsupportedDistributionMethod)
	}
}

func equalWeights(n int) []decimal.Decimal {
	weights := make([]decimal.Decimal, n)
	for i := range weights {
		weights[i] = decimal.NewFromInt(1)
	}
	return weights
}

// allocate splits totalCents proportionally to weights in integer minor
// units. Each share is floored and the remaining cents are assigned one at a
// time to the leading positions, so the shares always sum to totalCents.
func allocate(totalCents int64, weights []decimal.Decimal) []int64 {
	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}

	total := decimal.NewFromInt(totalCents)
	shares := make([]int64, len(weights))
	var allocated int64
	for i, w := range weights {
		shares[i] = total.Mul(w).Div(sum).Floor().IntPart()
		allocated += shares[i]
	}

	remainder := totalCents - allocated
	for i := 0; remainder > 0 && i < len(shares); i++ {
		shares[i]++
		remainder--
	}
	return shares
}
