package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bizlinkhq/bizlink-backend/pkg/enums"
)

// User is the minimal account surface the billing API needs.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string         `gorm:"column:email;not null;uniqueIndex"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null;default:'user'"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
