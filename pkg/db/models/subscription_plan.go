package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// SubscriptionPlan captures a pricing tier of the directory.
type SubscriptionPlan struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	Slug         string          `gorm:"column:slug;not null;uniqueIndex"`
	PriceMonthly decimal.Decimal `gorm:"column:price_monthly;type:numeric(12,2);not null"`
	PriceYearly  decimal.Decimal `gorm:"column:price_yearly;type:numeric(12,2);not null"`
	Currency     string          `gorm:"column:currency;not null;default:'INR'"`
	Features     pq.StringArray  `gorm:"column:features;type:text[];default:ARRAY[]::text[]"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
