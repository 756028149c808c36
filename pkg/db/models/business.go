package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
)

// Business is the directory listing a subscription is purchased for. The
// settlement paths only touch owner_id for the authorization check.
type Business struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   uuid.UUID            `gorm:"column:owner_id;type:uuid;not null;index"`
	Name      string               `gorm:"column:name;not null"`
	Slug      string               `gorm:"column:slug;not null;uniqueIndex"`
	Status    enums.BusinessStatus `gorm:"column:status;type:business_status;not null;default:'pending'"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Owner *User `gorm:"foreignKey:OwnerID"`
}
