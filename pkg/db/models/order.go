package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

// Order is the denormalized order document. Customer, items, shipping and
// timeline are JSONB snapshots; monetary fields are cents. Version guards
// status updates against lost writes.
type Order struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber   string                 `gorm:"column:order_number;not null;uniqueIndex"`
	UserID        uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Customer      types.CustomerSnapshot `gorm:"column:customer;type:jsonb;serializer:json"`
	Items         types.OrderItems       `gorm:"column:items;type:jsonb;serializer:json"`
	SubtotalCents int64                  `gorm:"column:subtotal_cents;not null"`
	DiscountCents int64                  `gorm:"column:discount_cents;not null;default:0"`
	TaxCents      int64                  `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents int64                  `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents    int64                  `gorm:"column:total_cents;not null"`
	Currency      enums.Currency         `gorm:"column:currency;not null;default:USD"`
	Status        enums.OrderStatus      `gorm:"column:status;not null;default:pending;index"`
	PaymentStatus enums.PaymentStatus    `gorm:"column:payment_status;not null;default:pending"`
	PaymentMethod enums.PaymentMethod    `gorm:"column:payment_method;not null;default:cod"`
	Shipping      types.ShippingInfo     `gorm:"column:shipping;type:jsonb;serializer:json"`
	Timeline      types.Timeline         `gorm:"column:timeline;type:jsonb;serializer:json"`
	Version       int                    `gorm:"column:version;not null;default:1"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime;index:idx_orders_created_at_id"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
