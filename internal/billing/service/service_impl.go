package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	billingdomain "github.com/ArturasMisevicius/rentcounter/internal/billing/domain"
	"github.com/ArturasMisevicius/rentcounter/internal/clock"
	"github.com/ArturasMisevicius/rentcounter/internal/config"
	distributiondomain "github.com/ArturasMisevicius/rentcounter/internal/distribution/domain"
	invoicedomain "github.com/ArturasMisevicius/rentcounter/internal/invoice/domain"
	"github.com/ArturasMisevicius/rentcounter/internal/money"
	obsmetrics "github.com/ArturasMisevicius/rentcounter/internal/observability/metrics"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	pricingdomain "github.com/ArturasMisevicius/rentcounter/internal/pricing/domain"
	readingdomain "github.com/ArturasMisevicius/rentcounter/internal/reading/domain"
	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
	"github.com/ArturasMisevicius/rentcounter/pkg/db"
)

const defaultCollaboratorTimeout = 5 * time.Second

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	genID        *snowflake.Node
	currency     string
	workers      int
	timeout      time.Duration
	configs      configdomain.Repository
	pricing      pricingdomain.Service
	distribution distributiondomain.Service
	consumption  billingdomain.ConsumptionSource
	properties   billingdomain.PropertyAttributeSource
	tenants      billingdomain.TenantEnumerator
	invoices     invoicedomain.Store
	locks        *keyedMutex
}

type ServiceParam struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Config       config.Config
	Clock        clock.Clock
	GenID        *snowflake.Node
	Configs      configdomain.Repository
	Pricing      pricingdomain.Service
	Distribution distributiondomain.Service
	Consumption  billingdomain.ConsumptionSource
	Properties   billingdomain.PropertyAttributeSource
	Tenants      billingdomain.TenantEnumerator
	Invoices     invoicedomain.Store
}

func NewService(p ServiceParam) billingdomain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("billing.service"),
		clock:        p.Clock,
		genID:        p.GenID,
		currency:     p.Config.Billing.Currency,
		workers:      p.Config.Billing.Workers,
		timeout:      p.Config.Billing.CollaboratorTimeout,
		configs:      p.Configs,
		pricing:      p.Pricing,
		distribution: p.Distribution,
		consumption:  p.Consumption,
		properties:   p.Properties,
		tenants:      p.Tenants,
		invoices:     p.Invoices,
		locks:        newKeyedMutex(),
	}
}

// tenantOutcome is the per-tenant slice of a cycle result, merged under a
// single mutex by the run loop.
type tenantOutcome struct {
	processed bool
	eligible  int
	generated int
	skipped   int
	amount    int64
	warnings  []string
	fatal     error
}

func (s *Service) RunBillingCycle(ctx context.Context, p period.BillingPeriod, opts billingdomain.Options) (billingdomain.CycleResult, error) {
	started := s.clock.Now()
	runStart := time.Now()
	m := obsmetrics.Billing()

	workers := opts.Workers
	if workers <= 0 {
		workers = s.workers
	}
	if workers <= 0 {
		workers = 1
	}
	timeout := opts.CollaboratorTimeout
	if timeout <= 0 {
		timeout = s.timeout
	}
	if timeout <= 0 {
		timeout = defaultCollaboratorTimeout
	}

	result := billingdomain.CycleResult{
		Period:      p,
		TotalAmount: money.Zero(s.currency),
		StartedAt:   started,
	}

	enumStart := time.Now()
	tenantIDs, err := s.tenants.List(ctx, opts.TenantIDs)
	m.ObserveStage(obsmetrics.CycleStageEnumerate, time.Since(enumStart))
	if err != nil {
		err = fmt.Errorf("%w: %v", billingdomain.ErrTenantEnumerationFailed, err)
		result.Errors = append(result.Errors, err.Error())
		result.FinishedAt = s.clock.Now()
		m.AddErrors(1)
		m.ObserveCycle("failed", time.Since(runStart))
		return result, err
	}

	s.log.Info("billing cycle started",
		zap.String("period", p.Label()),
		zap.Int("tenants", len(tenantIDs)),
		zap.Int("workers", workers),
		zap.Bool("regenerate", opts.RegenerateExisting),
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, tenantID := range tenantIDs {
		tenantID := tenantID
		g.Go(func() error {
			stageStart := time.Now()
			out := s.processTenant(gctx, tenantID, p, opts, timeout)
			m.ObserveStage(obsmetrics.CycleStageProcess, time.Since(stageStart))

			mu.Lock()
			if out.processed {
				result.ProcessedTenants++
			}
			result.EligibleInvoices += out.eligible
			result.GeneratedInvoices += out.generated
			result.SkippedInvoices += out.skipped
			result.TotalAmount = result.TotalAmount.Add(money.New(out.amount, s.currency))
			result.Warnings = append(result.Warnings, out.warnings...)
			if out.fatal != nil {
				result.Errors = append(result.Errors, out.fatal.Error())
			}
			mu.Unlock()
			return out.fatal
		})
	}
	runErr := g.Wait()

	result.FinishedAt = s.clock.Now()
	m.AddInvoicesGenerated(result.GeneratedInvoices - result.SkippedInvoices)
	m.AddInvoicesSkipped(result.SkippedInvoices)
	m.AddWarnings(len(result.Warnings))
	m.AddErrors(len(result.Errors))
	m.AddAmountBilled(result.TotalAmount.Amount)
	outcome := "completed"
	if runErr != nil {
		outcome = "failed"
	}
	m.ObserveCycle(outcome, time.Since(runStart))

	s.log.Info("billing cycle finished",
		zap.String("period", p.Label()),
		zap.String("outcome", outcome),
		zap.Int("processed_tenants", result.ProcessedTenants),
		zap.Int("generated_invoices", result.GeneratedInvoices),
		zap.Int("warnings", len(result.Warnings)),
		zap.Float64("success_rate", result.SuccessRate()),
		zap.String("total_amount", result.TotalAmount.String()),
	)
	return result, runErr
}

func (s *Service) processTenant(ctx context.Context, tenantID snowflake.ID, p period.BillingPeriod, opts billingdomain.Options, timeout time.Duration) tenantOutcome {
	out := tenantOutcome{}
	if ctx.Err() != nil {
		out.fatal = ctx.Err()
		return out
	}
	out.processed = true

	unlock := s.locks.Lock(fmt.Sprintf("%s|%s", tenantID, p.Label()))
	defer unlock()

	existing, err := s.findExisting(ctx, tenantID, p, timeout)
	if err != nil {
		out.warn(s.log, "tenant %s period %s: find existing invoice: %v", tenantID, p.Label(), err)
		return out
	}
	if existing != nil && !opts.RegenerateExisting {
		// Idempotent no-op: the existing invoice stays and counts.
		out.eligible = 1
		out.generated = 1
		out.skipped = 1
		out.amount = existing.TotalAmount
		out.warn(s.log, "tenant %s period %s: invoice %s already exists, skipped", tenantID, p.Label(), existing.ID)
		return out
	}

	properties, err := s.listByTenant(ctx, tenantID, timeout)
	if err != nil {
		out.warn(s.log, "tenant %s period %s: list properties: %v", tenantID, p.Label(), err)
		return out
	}
	if len(properties) == 0 {
		out.warn(s.log, "tenant %s period %s: no properties", tenantID, p.Label())
		return out
	}

	var lines []invoicedomain.InvoiceLineItem
	billable := false
	for _, prop := range properties {
		configs, err := s.configs.ListEffective(ctx, s.db, prop.PropertyID, p)
		if err != nil {
			out.warn(s.log, "property %s period %s: list configurations: %v", prop.PropertyID, p.Label(), err)
			continue
		}
		if len(configs) == 0 {
			out.warn(s.log, "property %s period %s: no effective configuration", prop.PropertyID, p.Label())
			continue
		}
		billable = true
		for i := range configs {
			line := s.buildLine(ctx, &configs[i], prop, p, opts, timeout, &out)
			if out.fatal != nil {
				return out
			}
			if line != nil {
				lines = append(lines, *line)
			}
		}
	}
	if ctx.Err() != nil {
		out.fatal = ctx.Err()
		return out
	}
	if !billable {
		return out
	}
	// An effective configuration is an invoice opportunity whether or not
	// a line survives pricing, so degraded runs depress the success rate.
	out.eligible = 1

	var total int64
	for _, line := range lines {
		total += line.Amount
	}
	if len(lines) == 0 || (total == 0 && !opts.CreateZeroInvoices) {
		out.warn(s.log, "tenant %s period %s: nothing to bill, no invoice created", tenantID, p.Label())
		return out
	}

	now := s.clock.Now()
	persistStart := time.Now()
	if existing != nil {
		err = s.invoices.Replace(ctx, existing.ID, lines, money.New(total, s.currency), now)
	} else {
		invoice := &invoicedomain.Invoice{
			ID:          s.genID.Generate(),
			TenantID:    tenantID,
			PeriodStart: p.Start(),
			PeriodEnd:   p.End(),
			Currency:    s.currency,
			TotalAmount: total,
			GeneratedBy: invoicedomain.GeneratedByEngine,
			GeneratedAt: now,
		}
		err = s.invoices.Create(ctx, invoice, lines)
	}
	obsmetrics.Billing().ObserveStage(obsmetrics.CycleStagePersist, time.Since(persistStart))
	if err != nil {
		if existing == nil && db.IsDuplicateKeyErr(err) {
			// Lost the race on the tenant-period unique index. The
			// winner's invoice stands.
			out.generated = 1
			out.skipped = 1
			out.warn(s.log, "tenant %s period %s: invoice created concurrently, skipped", tenantID, p.Label())
			return out
		}
		out.warn(s.log, "tenant %s period %s: persist invoice: %v", tenantID, p.Label(), err)
		return out
	}

	out.generated = 1
	out.amount = total
	return out
}

// buildLine prices one configuration for one property and returns the
// resulting line item, or nil with a recorded warning. A broken
// cost-conservation invariant is fatal and set on out.
func (s *Service) buildLine(
	ctx context.Context,
	cfg *configdomain.ServiceConfiguration,
	prop billingdomain.PropertyAttributes,
	p period.BillingPeriod,
	opts billingdomain.Options,
	timeout time.Duration,
	out *tenantOutcome,
) *invoicedomain.InvoiceLineItem {
	consumption, err := s.fetchConsumption(ctx, prop.PropertyID, cfg.ServiceCode, p, timeout)
	if err != nil {
		if !errors.Is(err, readingdomain.ErrReadingNotFound) || cfg.PricingModel != configdomain.PricingFixedMonthly {
			out.warn(s.log, "property %s service %s period %s: fetch consumption: %v", prop.PropertyID, cfg.ServiceCode, p.Label(), err)
			if ctx.Err() != nil {
				out.fatal = ctx.Err()
			}
			return nil
		}
		// Fixed fees bill without a meter.
		consumption = readingdomain.ConsumptionQuantity{}
	}

	priced, err := s.pricing.Price(cfg, consumption, p)
	if err != nil {
		out.warn(s.log, "property %s service %s period %s: pricing: %v", prop.PropertyID, cfg.ServiceCode, p.Label(), err)
		return nil
	}

	amount := priced.TotalAmount
	description := fmt.Sprintf("%s %s", cfg.ServiceCode, p.Label())
	if cfg.IsSharedService && !opts.SkipSharedServices {
		share, ok := s.distributeShared(ctx, cfg, prop, priced.TotalAmount, p, timeout, out)
		if !ok {
			return nil
		}
		amount = share
		description += " (shared)"
	}

	details, err := json.Marshal(struct {
		Breakdown []pricingdomain.BreakdownLine `json:"breakdown"`
		Tariff    configdomain.TariffSnapshot   `json:"tariff_snapshot"`
	}{priced.Breakdown, priced.Snapshot})
	if err != nil {
		out.warn(s.log, "property %s service %s: encode line details: %v", prop.PropertyID, cfg.ServiceCode, err)
		return nil
	}

	return &invoicedomain.InvoiceLineItem{
		ID:                     s.genID.Generate(),
		PropertyID:             prop.PropertyID,
		ServiceConfigurationID: cfg.ID,
		ServiceCode:            cfg.ServiceCode,
		Description:            description,
		Quantity:               consumption.Total,
		Amount:                 amount.Amount,
		Details:                details,
	}
}

// distributeShared splits the priced cost across the building's properties
// and returns this property's share.
func (s *Service) distributeShared(
	ctx context.Context,
	cfg *configdomain.ServiceConfiguration,
	prop billingdomain.PropertyAttributes,
	total money.Money,
	p period.BillingPeriod,
	timeout time.Duration,
	out *tenantOutcome,
) (money.Money, bool) {
	stageStart := time.Now()
	defer func() {
		obsmetrics.Billing().ObserveStage(obsmetrics.CycleStageDistribute, time.Since(stageStart))
	}()

	siblings, err := s.listByBuilding(ctx, prop.BuildingID, timeout)
	if err != nil {
		out.warn(s.log, "property %s service %s: list building properties: %v", prop.PropertyID, cfg.ServiceCode, err)
		return money.Money{}, false
	}

	// Consumption weights come from the property's historical-consumption
	// attribute, not from the billed period's meter readings, so the split
	// stays stable across regeneration and late readings.
	inputs := make([]distributiondomain.PropertyInput, 0, len(siblings))
	for _, sibling := range siblings {
		inputs = append(inputs, distributiondomain.PropertyInput{
			PropertyID:  sibling.PropertyID,
			Area:        sibling.Area,
			Consumption: sibling.HistoricalConsumption,
			Attributes:  sibling.Extra,
		})
	}

	result, err := s.distribution.Distribute(cfg, inputs, total, p)
	if err != nil {
		out.warn(s.log, "property %s service %s: distribution: %v", prop.PropertyID, cfg.ServiceCode, err)
		return money.Money{}, false
	}
	if !result.IsBalanced() {
		out.fatal = fmt.Errorf("configuration %s period %s: %w", cfg.ID, p.Label(), billingdomain.ErrUnbalancedDistribution)
		return money.Money{}, false
	}

	share, ok := result.PerProperty[prop.PropertyID]
	if !ok {
		out.warn(s.log, "property %s service %s: property missing from distribution result", prop.PropertyID, cfg.ServiceCode)
		return money.Money{}, false
	}
	return share, true
}

func (s *Service) findExisting(ctx context.Context, tenantID snowflake.ID, p period.BillingPeriod, timeout time.Duration) (*invoicedomain.Invoice, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	invoice, err := s.invoices.FindExisting(callCtx, tenantID, p)
	return invoice, s.mapTimeout(ctx, callCtx, err)
}

func (s *Service) listByTenant(ctx context.Context, tenantID snowflake.ID, timeout time.Duration) ([]billingdomain.PropertyAttributes, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	properties, err := s.properties.ListByTenant(callCtx, tenantID)
	return properties, s.mapTimeout(ctx, callCtx, err)
}

func (s *Service) listByBuilding(ctx context.Context, buildingID snowflake.ID, timeout time.Duration) ([]billingdomain.PropertyAttributes, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	properties, err := s.properties.ListByBuilding(callCtx, buildingID)
	return properties, s.mapTimeout(ctx, callCtx, err)
}

func (s *Service) fetchConsumption(ctx context.Context, propertyID snowflake.ID, serviceCode string, p period.BillingPeriod, timeout time.Duration) (readingdomain.ConsumptionQuantity, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	quantity, err := s.consumption.Fetch(callCtx, propertyID, serviceCode, p)
	return quantity, s.mapTimeout(ctx, callCtx, err)
}

// mapTimeout turns a per-call deadline hit into the recoverable timeout
// error while leaving run cancellation untouched.
func (s *Service) mapTimeout(parent, call context.Context, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || call.Err() == context.DeadlineExceeded) {
		return billingdomain.ErrCollaboratorTimeout
	}
	return err
}

func (o *tenantOutcome) warn(log *zap.Logger, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	log.Warn(message)
	o.warnings = append(o.warnings, message)
}
