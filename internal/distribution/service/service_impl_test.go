package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	distributiondomain "github.com/ArturasMisevicius/rentcounter/internal/distribution/domain"
	"github.com/ArturasMisevicius/rentcounter/internal/money"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
)

func newDistributionService(t *testing.T) distributiondomain.Service {
	t.Helper()
	return NewService(ServiceParam{Log: zap.NewNop()})
}

func distributionConfig(t *testing.T, method configdomain.DistributionMethod, schedule configdomain.RateSchedule) *configdomain.ServiceConfiguration {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	cfg := &configdomain.ServiceConfiguration{
		ID:                 node.Generate(),
		PropertyID:         node.Generate(),
		ServiceCode:        "heating",
		PricingModel:       configdomain.PricingFixedMonthly,
		DistributionMethod: method,
		IsSharedService:    true,
		EffectiveFrom:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:           true,
	}
	require.NoError(t, cfg.SetSchedule(schedule))
	return cfg
}

// threeProperties returns inputs with ascending ids 1, 2, 3.
func threeProperties(areas, consumptions []string) []distributiondomain.PropertyInput {
	props := make([]distributiondomain.PropertyInput, 3)
	for i := range props {
		props[i] = distributiondomain.PropertyInput{PropertyID: snowflake.ID(i + 1)}
		if areas != nil {
			props[i].Area = decimal.RequireFromString(areas[i])
		}
		if consumptions != nil {
			props[i].Consumption = decimal.RequireFromString(consumptions[i])
		}
	}
	return props
}

func TestDistribute_Equal_RemainderToFirstProperties(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionEqual, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	result, err := svc.Distribute(cfg, threeProperties(nil, nil), money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	require.NoError(t, err)

	assert.EqualValues(t, 3334, result.PerProperty[snowflake.ID(1)].Amount)
	assert.EqualValues(t, 3333, result.PerProperty[snowflake.ID(2)].Amount)
	assert.EqualValues(t, 3333, result.PerProperty[snowflake.ID(3)].Amount)
	assert.True(t, result.IsBalanced())
}

func TestDistribute_Equal_OrderIndependent(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionEqual, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	props := threeProperties(nil, nil)
	reversed := []distributiondomain.PropertyInput{props[2], props[0], props[1]}

	forward, err := svc.Distribute(cfg, props, money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	require.NoError(t, err)
	backward, err := svc.Distribute(cfg, reversed, money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	require.NoError(t, err)

	assert.Equal(t, forward.PerProperty, backward.PerProperty)
}

func TestDistribute_Area_Proportional(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionArea, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	result, err := svc.Distribute(cfg,
		threeProperties([]string{"50", "30", "20"}, nil),
		money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	require.NoError(t, err)

	assert.EqualValues(t, 5000, result.PerProperty[snowflake.ID(1)].Amount)
	assert.EqualValues(t, 3000, result.PerProperty[snowflake.ID(2)].Amount)
	assert.EqualValues(t, 2000, result.PerProperty[snowflake.ID(3)].Amount)
	assert.True(t, result.IsBalanced())
}

func TestDistribute_Area_ZeroTotalAreaIsError(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionArea, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	_, err := svc.Distribute(cfg,
		threeProperties([]string{"0", "0", "0"}, nil),
		money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	assert.ErrorIs(t, err, distributiondomain.ErrMissingAttribute)
}

func TestDistribute_Area_PropertyWithoutAreaIsError(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionArea, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	// A missing area must not silently become a zero share.
	_, err := svc.Distribute(cfg,
		threeProperties([]string{"50", "0", "50"}, nil),
		money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	assert.ErrorIs(t, err, distributiondomain.ErrMissingAttribute)
}

func TestDistribute_ByConsumption_Proportional(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionByConsumption, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	result, err := svc.Distribute(cfg,
		threeProperties(nil, []string{"600", "300", "100"}),
		money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	require.NoError(t, err)

	assert.EqualValues(t, 6000, result.PerProperty[snowflake.ID(1)].Amount)
	assert.EqualValues(t, 3000, result.PerProperty[snowflake.ID(2)].Amount)
	assert.EqualValues(t, 1000, result.PerProperty[snowflake.ID(3)].Amount)
	assert.True(t, result.IsBalanced())
}

func TestDistribute_ByConsumption_ZeroTotalDegradesToEqual(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionByConsumption, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	result, err := svc.Distribute(cfg,
		threeProperties(nil, []string{"0", "0", "0"}),
		money.New(9000, "EUR"), period.ForMonth(2026, time.April))
	require.NoError(t, err)

	for id := snowflake.ID(1); id <= 3; id++ {
		assert.EqualValues(t, 3000, result.PerProperty[id].Amount)
	}
}

func TestDistribute_ByConsumption_PropertyWithoutConsumptionIsError(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionByConsumption, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	_, err := svc.Distribute(cfg,
		threeProperties(nil, []string{"600", "0", "100"}),
		money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	assert.ErrorIs(t, err, distributiondomain.ErrMissingAttribute)
}

func TestDistribute_ByConsumption_NegativeWeightIsError(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionByConsumption, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	_, err := svc.Distribute(cfg,
		threeProperties(nil, []string{"600", "-1", "100"}),
		money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	assert.ErrorIs(t, err, distributiondomain.ErrNegativeWeight)
}

func TestDistribute_CustomFormula_WeightedSplit(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionCustomFormula, configdomain.RateSchedule{
		Formula: "area * 2 + consumption",
	})

	// Weights: 1*2+8=10, 2*2+6=10, 3*2+14=20 -> 25%, 25%, 50%.
	result, err := svc.Distribute(cfg,
		threeProperties([]string{"1", "2", "3"}, []string{"8", "6", "14"}),
		money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	require.NoError(t, err)

	assert.EqualValues(t, 2500, result.PerProperty[snowflake.ID(1)].Amount)
	assert.EqualValues(t, 2500, result.PerProperty[snowflake.ID(2)].Amount)
	assert.EqualValues(t, 5000, result.PerProperty[snowflake.ID(3)].Amount)
	assert.True(t, result.IsBalanced())
}

func TestDistribute_CustomFormula_NegativeWeightIsError(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionCustomFormula, configdomain.RateSchedule{
		Formula: "area - consumption",
	})

	_, err := svc.Distribute(cfg,
		threeProperties([]string{"1", "2", "3"}, []string{"8", "6", "14"}),
		money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	assert.ErrorIs(t, err, distributiondomain.ErrNegativeWeight)
}

func TestDistribute_CustomFormula_AllZeroWeightsDegradeToEqual(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionCustomFormula, configdomain.RateSchedule{
		Formula: "area * 0",
	})

	result, err := svc.Distribute(cfg,
		threeProperties([]string{"1", "2", "3"}, nil),
		money.New(9000, "EUR"), period.ForMonth(2026, time.April))
	require.NoError(t, err)

	for id := snowflake.ID(1); id <= 3; id++ {
		assert.EqualValues(t, 3000, result.PerProperty[id].Amount)
	}
}

func TestDistribute_CustomFormula_DivisionByZeroIsError(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionCustomFormula, configdomain.RateSchedule{
		Formula: "area / consumption",
	})

	_, err := svc.Distribute(cfg,
		threeProperties([]string{"1", "2", "3"}, []string{"8", "0", "14"}),
		money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	assert.ErrorIs(t, err, distributiondomain.ErrFormulaEvaluation)
}

func TestDistribute_ZeroCostYieldsZeroShares(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionArea, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	// Weights are never computed for a zero cost, so even attribute-less
	// inputs distribute cleanly.
	result, err := svc.Distribute(cfg, threeProperties(nil, nil), money.Zero("EUR"), period.ForMonth(2026, time.April))
	require.NoError(t, err)

	for id := snowflake.ID(1); id <= 3; id++ {
		assert.True(t, result.PerProperty[id].IsZero())
	}
	assert.True(t, result.IsBalanced())
}

func TestDistribute_SinglePropertyGetsEntireCost(t *testing.T) {
	svc := newDistributionService(t)
	single := []distributiondomain.PropertyInput{{
		PropertyID:  snowflake.ID(7),
		Area:        decimal.RequireFromString("55"),
		Consumption: decimal.RequireFromString("120"),
	}}

	for _, method := range []configdomain.DistributionMethod{
		configdomain.DistributionEqual,
		configdomain.DistributionArea,
		configdomain.DistributionByConsumption,
		configdomain.DistributionCustomFormula,
	} {
		cfg := distributionConfig(t, method, configdomain.RateSchedule{
			Formula: "area + consumption",
		})
		result, err := svc.Distribute(cfg, single, money.New(12345, "EUR"), period.ForMonth(2026, time.April))
		require.NoError(t, err, "method %s", method)
		assert.EqualValues(t, 12345, result.PerProperty[snowflake.ID(7)].Amount, "method %s", method)
		assert.True(t, result.IsBalanced(), "method %s", method)
	}
}

func TestDistribute_NoPropertiesIsError(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionEqual, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})

	_, err := svc.Distribute(cfg, nil, money.New(10000, "EUR"), period.ForMonth(2026, time.April))
	assert.ErrorIs(t, err, distributiondomain.ErrNoProperties)
}

func TestDistribute_ConservationUnderAwkwardWeights(t *testing.T) {
	svc := newDistributionService(t)
	cfg := distributionConfig(t, configdomain.DistributionArea, configdomain.RateSchedule{
		MonthlyRate: decimal.RequireFromString("100"),
	})
	p := period.ForMonth(2026, time.April)

	props := threeProperties([]string{"33.3", "33.3", "33.4"}, nil)
	for _, cents := range []int64{1, 2, 99, 101, 9999, 10001, 333333} {
		result, err := svc.Distribute(cfg, props, money.New(cents, "EUR"), p)
		require.NoError(t, err)
		assert.True(t, result.IsBalanced(), "total %d", cents)

		var sum int64
		for _, share := range result.PerProperty {
			sum += share.Amount
		}
		assert.Equal(t, cents, sum, "total %d", cents)
	}
}
