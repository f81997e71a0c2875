package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ArturasMisevicius/rentcounter/internal/billing"
	billingdomain "github.com/ArturasMisevicius/rentcounter/internal/billing/domain"
	"github.com/ArturasMisevicius/rentcounter/internal/clock"
	"github.com/ArturasMisevicius/rentcounter/internal/config"
	"github.com/ArturasMisevicius/rentcounter/internal/distribution"
	"github.com/ArturasMisevicius/rentcounter/internal/invoice"
	"github.com/ArturasMisevicius/rentcounter/internal/migration"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	"github.com/ArturasMisevicius/rentcounter/internal/pricing"
	"github.com/ArturasMisevicius/rentcounter/internal/property"
	"github.com/ArturasMisevicius/rentcounter/internal/reading"
	"github.com/ArturasMisevicius/rentcounter/internal/serviceconfig"
	"github.com/ArturasMisevicius/rentcounter/internal/tenant"
	"github.com/ArturasMisevicius/rentcounter/pkg/db"
	"github.com/ArturasMisevicius/rentcounter/pkg/log"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		serviceconfig.Module,
		reading.Module,
		property.Module,
		tenant.Module,
		invoice.Module,
		pricing.Module,
		distribution.Module,
		billing.Module,

		fx.Invoke(runCycle),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// runCycle executes one billing cycle for the configured period and shuts
// the process down. Scheduling is the caller's concern (cron, systemd
// timer), not the engine's.
func runCycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, svc billingdomain.Service, clk clock.Clock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() { _ = shutdowner.Shutdown() }()

				p := resolvePeriod(clk.Now())
				opts := billingdomain.Options{
					RegenerateExisting: envBool("BILLING_REGENERATE"),
					CreateZeroInvoices: envBool("BILLING_CREATE_ZERO_INVOICES"),
					SkipSharedServices: envBool("BILLING_SKIP_SHARED_SERVICES"),
				}

				result, err := svc.RunBillingCycle(context.Background(), p, opts)
				if err != nil {
					logger.Error("billing cycle failed", zap.Error(err))
					return
				}
				logger.Info("billing cycle done",
					zap.String("period", p.Label()),
					zap.Int("processed_tenants", result.ProcessedTenants),
					zap.Int("generated_invoices", result.GeneratedInvoices),
					zap.Float64("success_rate", result.SuccessRate()),
					zap.String("total_amount", result.TotalAmount.String()),
				)
			}()
			return nil
		},
	})
}

// resolvePeriod reads BILLING_PERIOD ("2006-01") and defaults to the
// previous calendar month.
func resolvePeriod(now time.Time) period.BillingPeriod {
	if raw := strings.TrimSpace(os.Getenv("BILLING_PERIOD")); raw != "" {
		if t, err := time.Parse("2006-01", raw); err == nil {
			return period.ForMonth(t.Year(), t.Month())
		}
	}
	previous := now.AddDate(0, -1, 0)
	return period.ForMonth(previous.Year(), previous.Month())
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
