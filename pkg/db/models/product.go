package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the storefront catalog entry. Checkout snapshots the fields it
// needs onto the order, so this row can change freely afterwards.
type Product struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Slug            string    `gorm:"column:slug;not null;uniqueIndex"`
	Description     string    `gorm:"column:description"`
	ImageURL        string    `gorm:"column:image_url"`
	PriceCents      int64     `gorm:"column:price_cents;not null"`
	DiscountPercent int       `gorm:"column:discount_percent;not null;default:0"`
	Stock           int       `gorm:"column:stock;not null;default:0"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
