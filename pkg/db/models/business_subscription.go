package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
)

// BusinessSubscription binds a business to a plan for a billing window.
type BusinessSubscription struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID   uuid.UUID                `gorm:"column:business_id;type:uuid;not null;index"`
	PlanID       uuid.UUID                `gorm:"column:plan_id;type:uuid;not null"`
	Status       enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'pending'"`
	BillingCycle enums.BillingCycle       `gorm:"column:billing_cycle;type:billing_cycle;not null;default:'monthly'"`
	StartedAt    *time.Time               `gorm:"column:started_at"`
	ExpiresAt    *time.Time               `gorm:"column:expires_at"`
	CancelledAt  *time.Time               `gorm:"column:cancelled_at"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	Plan     *SubscriptionPlan `gorm:"foreignKey:PlanID"`
	Business *Business         `gorm:"foreignKey:BusinessID"`
}
