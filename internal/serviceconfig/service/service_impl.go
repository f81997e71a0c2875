package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ArturasMisevicius/rentcounter/internal/formula"
	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
)

type Validator struct {
	db     *gorm.DB
	log    *zap.Logger
	repo   configdomain.Repository
	ledger configdomain.InvoiceLedger
}

type ValidatorParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   configdomain.Repository
	Ledger configdomain.InvoiceLedger
}

func NewValidator(p ValidatorParam) configdomain.Validator {
	return &Validator{
		db:     p.DB,
		log:    p.Log.Named("serviceconfig.validator"),
		repo:   p.Repo,
		ledger: p.Ledger,
	}
}

func (v *Validator) ValidateNew(ctx context.Context, cfg *configdomain.ServiceConfiguration) error {
	if cfg.EffectiveUntil != nil && !cfg.EffectiveUntil.After(cfg.EffectiveFrom) {
		return fmt.Errorf("effective range [%s, %s): %w",
			cfg.EffectiveFrom.Format(time.DateOnly),
			cfg.EffectiveUntil.Format(time.DateOnly),
			configdomain.ErrInvalidEffectiveRange,
		)
	}

	schedule, err := cfg.Schedule()
	if err != nil {
		return err
	}

	if err := v.validateFormula(cfg, schedule); err != nil {
		return err
	}

	if !cfg.IsActive {
		return nil
	}

	if err := v.validateNoOverlap(ctx, cfg); err != nil {
		return err
	}

	return v.validateRateChange(ctx, cfg)
}

// validateFormula is a parse-only gate: unsafe formulas are rejected before
// they are ever stored, so the distributor never sees one.
func (v *Validator) validateFormula(cfg *configdomain.ServiceConfiguration, schedule configdomain.RateSchedule) error {
	if cfg.DistributionMethod != configdomain.DistributionCustomFormula {
		return nil
	}
	if schedule.Formula == "" {
		return fmt.Errorf("configuration %s: %w", cfg.ID, configdomain.ErrMissingFormula)
	}
	if err := formula.Validate(schedule.Formula, configdomain.BaseFormulaVariables); err != nil {
		return fmt.Errorf("%w: %v", configdomain.ErrUnsafeFormula, err)
	}
	return nil
}

func (v *Validator) validateNoOverlap(ctx context.Context, cfg *configdomain.ServiceConfiguration) error {
	overlapping, err := v.repo.ListActiveOverlapping(
		ctx, v.db,
		cfg.PropertyID, cfg.ServiceCode,
		cfg.EffectiveFrom, cfg.EffectiveUntil,
		cfg.ID,
	)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("configuration %s overlaps active configuration %s: %w",
			cfg.ID, overlapping[0].ID, configdomain.ErrConfigurationConflict)
	}
	return nil
}

// validateRateChange enforces the supersede-only rule: a configuration that
// already has generated invoices keeps its rate schedule, and a replacement
// must start after the last invoiced date.
func (v *Validator) validateRateChange(ctx context.Context, cfg *configdomain.ServiceConfiguration) error {
	if cfg.ID != 0 {
		existing, err := v.repo.FindByID(ctx, v.db, cfg.ID)
		if err != nil {
			return err
		}
		if existing != nil && !bytes.Equal(existing.RateSchedule, cfg.RateSchedule) {
			invoicedAt, err := v.ledger.LastInvoicedAt(ctx, existing.ID)
			if err != nil {
				return err
			}
			if invoicedAt != nil {
				return fmt.Errorf("configuration %s invoiced through %s: %w",
					cfg.ID, invoicedAt.Format(time.DateOnly), configdomain.ErrRateChangeRestricted)
			}
		}
	}

	// A superseding configuration must start after the latest invoiced date
	// of any earlier configuration for the same pair.
	siblings, err := v.repo.ListActiveOverlapping(
		ctx, v.db,
		cfg.PropertyID, cfg.ServiceCode,
		time.Time{}, nil,
		cfg.ID,
	)
	if err != nil {
		return err
	}
	for i := range siblings {
		if !siblings[i].EffectiveFrom.Before(cfg.EffectiveFrom) {
			continue
		}
		invoicedAt, err := v.ledger.LastInvoicedAt(ctx, siblings[i].ID)
		if err != nil {
			return err
		}
		if invoicedAt != nil && !cfg.EffectiveFrom.After(*invoicedAt) {
			return fmt.Errorf("configuration %s invoiced through %s, replacement starts %s: %w",
				siblings[i].ID,
				invoicedAt.Format(time.DateOnly),
				cfg.EffectiveFrom.Format(time.DateOnly),
				configdomain.ErrSupersedesInvoicedDate,
			)
		}
	}
	return nil
}
