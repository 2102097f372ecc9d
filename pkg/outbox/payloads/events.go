package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/pkg/enums"
)

// OrderCreatedEvent signals a checkout committed a new order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	TotalCents  int64     `json:"total_cents"`
	ItemCount   int       `json:"item_count"`
	PlacedAt    time.Time `json:"placed_at"`
}

// OrderStatusChangedEvent is emitted for every accepted status transition,
// including the payment status the transition derived.
type OrderStatusChangedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	UserID        uuid.UUID           `json:"user_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	Description   string              `json:"description,omitempty"`
	Location      string              `json:"location,omitempty"`
	ChangedAt     time.Time           `json:"changed_at"`
}

// ReviewModeratedEvent reports an admin moderation decision.
type ReviewModeratedEvent struct {
	ReviewID  uuid.UUID          `json:"review_id"`
	ProductID uuid.UUID          `json:"product_id"`
	UserID    uuid.UUID          `json:"user_id"`
	Status    enums.ReviewStatus `json:"status"`
}

// UserRegisteredEvent announces a new account.
type UserRegisteredEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}
