package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
)

// Payment records one checkout attempt against the gateway. The gateway
// order id is the correlation key both settlement paths update through.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubscriptionID   uuid.UUID           `gorm:"column:subscription_id;type:uuid;not null;index"`
	GatewayOrderID   string              `gorm:"column:gateway_order_id;not null;uniqueIndex"`
	GatewayPaymentID *string             `gorm:"column:gateway_payment_id"`
	Status           enums.PaymentStatus `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	PaymentMethod    *string             `gorm:"column:payment_method"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	AmountCents      int64               `gorm:"column:amount_cents;not null"`
	Currency         string              `gorm:"column:currency;not null;default:'INR'"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	FailedAt         *time.Time          `gorm:"column:failed_at"`
	GatewayResponse  json.RawMessage     `gorm:"column:gateway_response;type:jsonb"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
