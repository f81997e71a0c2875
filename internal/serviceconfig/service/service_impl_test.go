package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
	configrepo "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/repository"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) LastInvoicedAt(ctx context.Context, configID snowflake.ID) (*time.Time, error) {
	args := m.Called(ctx, configID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func newValidatorTestEnv(t *testing.T) (*gorm.DB, *snowflake.Node, *mockLedger, configdomain.Validator) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&configdomain.ServiceConfiguration{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	ledger := &mockLedger{}
	validator := NewValidator(ValidatorParam{
		DB:     db,
		Log:    zap.NewNop(),
		Repo:   configrepo.New(),
		Ledger: ledger,
	})
	return db, node, ledger, validator
}

func buildConfig(t *testing.T, node *snowflake.Node, schedule configdomain.RateSchedule) *configdomain.ServiceConfiguration {
	t.Helper()
	cfg := &configdomain.ServiceConfiguration{
		ID:                 node.Generate(),
		PropertyID:         node.Generate(),
		ServiceCode:        "electricity",
		PricingModel:       configdomain.PricingConsumptionBased,
		DistributionMethod: configdomain.DistributionEqual,
		EffectiveFrom:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:           true,
	}
	require.NoError(t, cfg.SetSchedule(schedule))
	return cfg
}

func TestValidateNew_AcceptsWellFormedConfiguration(t *testing.T) {
	_, node, ledger, validator := newValidatorTestEnv(t)
	ledger.On("LastInvoicedAt", mock.Anything, mock.Anything).Return(nil, nil)

	cfg := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})

	assert.NoError(t, validator.ValidateNew(context.Background(), cfg))
}

func TestValidateNew_RejectsInvertedEffectiveRange(t *testing.T) {
	_, node, _, validator := newValidatorTestEnv(t)

	cfg := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})
	until := cfg.EffectiveFrom.AddDate(0, -1, 0)
	cfg.EffectiveUntil = &until

	err := validator.ValidateNew(context.Background(), cfg)
	assert.ErrorIs(t, err, configdomain.ErrInvalidEffectiveRange)
}

func TestValidateNew_RejectsMissingRateSchedule(t *testing.T) {
	_, node, _, validator := newValidatorTestEnv(t)

	cfg := buildConfig(t, node, configdomain.RateSchedule{})
	cfg.RateSchedule = nil

	err := validator.ValidateNew(context.Background(), cfg)
	assert.ErrorIs(t, err, configdomain.ErrMissingRateSchedule)
}

func TestValidateNew_CustomFormulaRequiresFormula(t *testing.T) {
	_, node, _, validator := newValidatorTestEnv(t)

	cfg := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})
	cfg.DistributionMethod = configdomain.DistributionCustomFormula

	err := validator.ValidateNew(context.Background(), cfg)
	assert.ErrorIs(t, err, configdomain.ErrMissingFormula)
}

func TestValidateNew_RejectsUnsafeFormula(t *testing.T) {
	_, node, _, validator := newValidatorTestEnv(t)

	for _, formula := range []string{
		"exec(1)",
		"area + system(2)",
		"occupancy * 2",
		"area + + 1",
	} {
		cfg := buildConfig(t, node, configdomain.RateSchedule{
			UnitRate: decimal.RequireFromString("0.25"),
			Formula:  formula,
		})
		cfg.DistributionMethod = configdomain.DistributionCustomFormula

		err := validator.ValidateNew(context.Background(), cfg)
		assert.ErrorIs(t, err, configdomain.ErrUnsafeFormula, "formula %q", formula)
	}
}

func TestValidateNew_AcceptsSafeFormula(t *testing.T) {
	_, node, ledger, validator := newValidatorTestEnv(t)
	ledger.On("LastInvoicedAt", mock.Anything, mock.Anything).Return(nil, nil)

	cfg := buildConfig(t, node, configdomain.RateSchedule{
		Formula: "area * 0.6 + consumption * 0.4",
	})
	cfg.DistributionMethod = configdomain.DistributionCustomFormula

	assert.NoError(t, validator.ValidateNew(context.Background(), cfg))
}

func TestValidateNew_RejectsOverlappingActiveConfiguration(t *testing.T) {
	db, node, _, validator := newValidatorTestEnv(t)

	existing := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})
	require.NoError(t, db.Create(existing).Error)

	proposed := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.30"),
	})
	proposed.PropertyID = existing.PropertyID
	proposed.EffectiveFrom = existing.EffectiveFrom.AddDate(0, 3, 0)

	err := validator.ValidateNew(context.Background(), proposed)
	assert.ErrorIs(t, err, configdomain.ErrConfigurationConflict)
}

func TestValidateNew_AllowsAdjacentRanges(t *testing.T) {
	db, node, ledger, validator := newValidatorTestEnv(t)
	ledger.On("LastInvoicedAt", mock.Anything, mock.Anything).Return(nil, nil)

	boundary := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	existing := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})
	existing.EffectiveUntil = &boundary
	require.NoError(t, db.Create(existing).Error)

	proposed := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.30"),
	})
	proposed.PropertyID = existing.PropertyID
	proposed.EffectiveFrom = boundary

	assert.NoError(t, validator.ValidateNew(context.Background(), proposed))
}

func TestValidateNew_IgnoresInactiveConfigurations(t *testing.T) {
	db, node, ledger, validator := newValidatorTestEnv(t)
	ledger.On("LastInvoicedAt", mock.Anything, mock.Anything).Return(nil, nil)

	existing := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})
	existing.IsActive = false
	require.NoError(t, db.Create(existing).Error)

	proposed := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.30"),
	})
	proposed.PropertyID = existing.PropertyID

	assert.NoError(t, validator.ValidateNew(context.Background(), proposed))
}

func TestValidateNew_RejectsRateChangeOnInvoicedConfiguration(t *testing.T) {
	db, node, ledger, validator := newValidatorTestEnv(t)

	existing := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})
	require.NoError(t, db.Create(existing).Error)

	invoicedAt := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	ledger.On("LastInvoicedAt", mock.Anything, existing.ID).Return(&invoicedAt, nil)

	edited := *existing
	require.NoError(t, edited.SetSchedule(configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.50"),
	}))

	err := validator.ValidateNew(context.Background(), &edited)
	assert.ErrorIs(t, err, configdomain.ErrRateChangeRestricted)
}

func TestValidateNew_AllowsRateChangeBeforeFirstInvoice(t *testing.T) {
	db, node, ledger, validator := newValidatorTestEnv(t)

	existing := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})
	require.NoError(t, db.Create(existing).Error)

	ledger.On("LastInvoicedAt", mock.Anything, existing.ID).Return(nil, nil)

	edited := *existing
	require.NoError(t, edited.SetSchedule(configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.50"),
	}))

	assert.NoError(t, validator.ValidateNew(context.Background(), &edited))
}

func TestValidateNew_RejectsSupersedeBeforeInvoicedDate(t *testing.T) {
	db, node, ledger, validator := newValidatorTestEnv(t)

	boundary := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	existing := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})
	existing.EffectiveUntil = &boundary
	require.NoError(t, db.Create(existing).Error)

	invoicedAt := time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC)
	ledger.On("LastInvoicedAt", mock.Anything, existing.ID).Return(&invoicedAt, nil)

	proposed := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.30"),
	})
	proposed.PropertyID = existing.PropertyID
	proposed.EffectiveFrom = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	err := validator.ValidateNew(context.Background(), proposed)
	assert.ErrorIs(t, err, configdomain.ErrConfigurationConflict)

	// Move past the overlap but still on the invoiced date itself.
	proposed.EffectiveFrom = invoicedAt
	existingUntil := invoicedAt
	existing.EffectiveUntil = &existingUntil
	require.NoError(t, db.Save(existing).Error)

	err = validator.ValidateNew(context.Background(), proposed)
	assert.ErrorIs(t, err, configdomain.ErrSupersedesInvoicedDate)

	// Starting the day after the last invoiced date is fine.
	proposed.EffectiveFrom = invoicedAt.AddDate(0, 0, 1)
	assert.NoError(t, validator.ValidateNew(context.Background(), proposed))
}

func TestValidateNew_IsIdempotent(t *testing.T) {
	_, node, ledger, validator := newValidatorTestEnv(t)
	ledger.On("LastInvoicedAt", mock.Anything, mock.Anything).Return(nil, nil)

	cfg := buildConfig(t, node, configdomain.RateSchedule{
		UnitRate: decimal.RequireFromString("0.25"),
	})

	first := validator.ValidateNew(context.Background(), cfg)
	second := validator.ValidateNew(context.Background(), cfg)
	assert.Equal(t, first, second)
}
