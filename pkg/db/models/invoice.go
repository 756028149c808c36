package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
)

// Invoice is the additive bookkeeping record written after a successful
// settlement. It is created once and never updated by the settlement core.
type Invoice struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceNumber  string              `gorm:"column:invoice_number;not null;uniqueIndex"`
	SubscriptionID uuid.UUID           `gorm:"column:subscription_id;type:uuid;not null;index"`
	PaymentID      uuid.UUID           `gorm:"column:payment_id;type:uuid;not null"`
	AmountCents    int64               `gorm:"column:amount_cents;not null"`
	TaxCents       int64               `gorm:"column:tax_cents;not null;default:0"`
	TotalCents     int64               `gorm:"column:total_cents;not null"`
	Currency       string              `gorm:"column:currency;not null;default:'INR'"`
	PeriodStart    time.Time           `gorm:"column:period_start;not null"`
	PeriodEnd      time.Time           `gorm:"column:period_end;not null"`
	Status         enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null;default:'paid'"`
	PaidAt         time.Time           `gorm:"column:paid_at;not null"`
	DueDate        time.Time           `gorm:"column:due_date;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
}
