// Package mail sends transactional storefront email. Delivery is always
// best-effort: callers log failures and move on, an email must never fail
// an order.
package mail

import (
	"context"
	"time"

	"github.com/davemoreau/maplewood-commerce/pkg/enums"
)

// OrderConfirmation carries everything the confirmation template needs.
type OrderConfirmation struct {
	To           string
	OwnerCopyTo  string
	CustomerName string
	OrderNumber  string
	Items        []LineItem
	TotalCents   int64
	Currency     enums.Currency
	PlacedAt     time.Time
}

// LineItem is one row in the confirmation table.
type LineItem struct {
	Name           string
	Quantity       int
	LineTotalCents int64
}

// StatusUpdate carries the fields for a status change notification.
type StatusUpdate struct {
	To           string
	CustomerName string
	OrderNumber  string
	Status       enums.OrderStatus
	Description  string
	Location     string
	ChangedAt    time.Time
}

// Mailer is the transactional email surface. Implementations must be safe
// for concurrent use.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) error
	SendStatusUpdate(ctx context.Context, msg StatusUpdate) error
}
