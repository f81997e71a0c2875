package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	invoicedomain "github.com/ArturasMisevicius/rentcounter/internal/invoice/domain"
	"github.com/ArturasMisevicius/rentcounter/internal/money"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
	configdomain "github.com/ArturasMisevicius/rentcounter/internal/serviceconfig/domain"
)

type Store struct {
	db *gorm.DB
}

type StoreParam struct {
	fx.In

	DB *gorm.DB
}

func NewStore(p StoreParam) invoicedomain.Store {
	return &Store{db: p.DB}
}

// NewLedger exposes the store as the invoice ledger the configuration
// validator consults for the rate-change rule.
func NewLedger(p StoreParam) configdomain.InvoiceLedger {
	return &Store{db: p.DB}
}

func (s *Store) FindExisting(ctx context.Context, tenantID snowflake.ID, p period.BillingPeriod) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND period_start = ? AND period_end = ?", tenantID, p.Start(), p.End()).
		First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (s *Store) ListLineItems(ctx context.Context, invoiceID snowflake.ID) ([]invoicedomain.InvoiceLineItem, error) {
	var lines []invoicedomain.InvoiceLineItem
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Store) Create(ctx context.Context, invoice *invoicedomain.Invoice, lines []invoicedomain.InvoiceLineItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].InvoiceID = invoice.ID
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

func (s *Store) Replace(ctx context.Context, invoiceID snowflake.ID, lines []invoicedomain.InvoiceLineItem, total money.Money, generatedAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("invoice_id = ?", invoiceID).
			Delete(&invoicedomain.InvoiceLineItem{}).Error
		if err != nil {
			return err
		}
		err = tx.Model(&invoicedomain.Invoice{}).
			Where("id = ?", invoiceID).
			Updates(map[string]interface{}{
				"total_amount": total.Amount,
				"generated_at": generatedAt,
				"updated_at":   generatedAt,
			}).Error
		if err != nil {
			return err
		}
		for i := range lines {
			lines[i].InvoiceID = invoiceID
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
}

// LastInvoicedAt returns the latest billed period end among invoices holding
// a line generated from the configuration, or nil when none exist.
func (s *Store) LastInvoicedAt(ctx context.Context, configID snowflake.ID) (*time.Time, error) {
	var row struct {
		PeriodEnd *time.Time
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT MAX(i.period_end) AS period_end
		 FROM invoices i
		 JOIN invoice_line_items l ON l.invoice_id = i.id
		 WHERE l.service_configuration_id = ?`,
		configID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.PeriodEnd, nil
}
