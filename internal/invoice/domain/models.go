// Package domain contains invoices and the store contract the billing cycle
// persists through.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/ArturasMisevicius/rentcounter/internal/money"
	"github.com/ArturasMisevicius/rentcounter/internal/period"
)

// GeneratedByEngine marks invoices written by the automated billing cycle.
const GeneratedByEngine = "billing_engine"

// Invoice is the single bill for one tenant and billing period. The
// (tenant_id, period_start, period_end) triple is unique: regeneration
// replaces line items, it never creates a second invoice.
type Invoice struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TenantID    snowflake.ID `gorm:"not null;uniqueIndex:ux_invoices_tenant_period"`
	PeriodStart time.Time    `gorm:"not null;uniqueIndex:ux_invoices_tenant_period"`
	PeriodEnd   time.Time    `gorm:"not null;uniqueIndex:ux_invoices_tenant_period"`
	Currency    string       `gorm:"type:text;not null"`
	TotalAmount int64        `gorm:"not null"`
	GeneratedBy string       `gorm:"type:text;not null"`
	GeneratedAt time.Time    `gorm:"not null"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Total returns the invoice total as Money.
func (i *Invoice) Total() money.Money {
	return money.New(i.TotalAmount, i.Currency)
}

// InvoiceLineItem is one priced service charge on an invoice. Details holds
// the audit breakdown and the tariff snapshot frozen at generation time.
type InvoiceLineItem struct {
	ID                     snowflake.ID    `gorm:"primaryKey"`
	InvoiceID              snowflake.ID    `gorm:"not null;index"`
	PropertyID             snowflake.ID    `gorm:"not null"`
	ServiceConfigurationID snowflake.ID    `gorm:"not null;index"`
	ServiceCode            string          `gorm:"type:text;not null"`
	Description            string          `gorm:"type:text;not null"`
	Quantity               decimal.Decimal `gorm:"type:numeric;not null"`
	Amount                 int64           `gorm:"not null"`
	Details                datatypes.JSON  `gorm:"type:jsonb"`
	CreatedAt              time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (InvoiceLineItem) TableName() string { return "invoice_line_items" }

// Store persists invoices for the billing cycle. Create and Replace are
// atomic; Replace keeps the invoice count for the (tenant, period) key at
// exactly one.
type Store interface {
	FindExisting(ctx context.Context, tenantID snowflake.ID, p period.BillingPeriod) (*Invoice, error)
	ListLineItems(ctx context.Context, invoiceID snowflake.ID) ([]InvoiceLineItem, error)
	Create(ctx context.Context, invoice *Invoice, lines []InvoiceLineItem) error
	Replace(ctx context.Context, invoiceID snowflake.ID, lines []InvoiceLineItem, total money.Money, generatedAt time.Time) error
}
