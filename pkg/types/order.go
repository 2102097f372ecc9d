package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/pkg/enums"
)

// CustomerSnapshot freezes the purchaser's identity at checkout time so the
// order document stays readable even if the account changes later.
type CustomerSnapshot struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
}

// OrderItem is a denormalized line-item snapshot. Prices are cents; the
// final price is always recomputed server-side from unit price and discount.
type OrderItem struct {
	ProductID       uuid.UUID `json:"product_id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	ImageURL        string    `json:"image_url,omitempty"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int64     `json:"unit_price_cents"`
	DiscountPercent int       `json:"discount_percent"`
	FinalPriceCents int64     `json:"final_price_cents"`
	LineTotalCents  int64     `json:"line_total_cents"`
}

// ShippingInfo is the destination block collected at checkout plus the
// fulfilment fields the admin flow fills in as the order moves. Clients only
// ever supply the destination; carrier, tracking and delivery timestamps are
// written server-side.
type ShippingInfo struct {
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
	Country     string `json:"country"`
	Landmark    string `json:"landmark,omitempty"`
	AddressType string `json:"address_type,omitempty"`
	Notes       string `json:"notes,omitempty"`

	Method              string     `json:"method,omitempty"`
	Carrier             string     `json:"carrier,omitempty"`
	TrackingNumber      string     `json:"tracking_number,omitempty"`
	EstimatedDeliveryAt *time.Time `json:"estimated_delivery_at,omitempty"`
	DeliveredAt         *time.Time `json:"delivered_at,omitempty"`
}

// TimelineEntry records one accepted status transition. The timeline is
// append-only; entries are never rewritten or removed.
type TimelineEntry struct {
	Status      enums.OrderStatus `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Description string            `json:"description,omitempty"`
	Location    string            `json:"location,omitempty"`
}

// Timeline exists so gorm's json serializer has a concrete slice type.
type Timeline []TimelineEntry

// OrderItems mirrors Timeline for the items column.
type OrderItems []OrderItem
