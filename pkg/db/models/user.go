package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

// User represents the canonical identity entity. The address book lives on
// the row as JSONB since entries are only ever read through the user.
type User struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string               `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string               `gorm:"column:password_hash;not null"`
	FullName     string               `gorm:"column:full_name;not null"`
	Phone        *string              `gorm:"column:phone"`
	Role         enums.UserRole       `gorm:"column:role;not null;default:customer"`
	IsActive     bool                 `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time           `gorm:"column:last_login_at"`
	Addresses    types.SavedAddresses `gorm:"column:addresses;type:jsonb;serializer:json"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
