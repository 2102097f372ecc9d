package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

// AdminOrderFilters narrows the admin order list.
type AdminOrderFilters struct {
	Status *enums.OrderStatus
}

// OrderSummary is one row in an order list.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"order_number"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	Status        enums.OrderStatus   `json:"status"`
	StatusLabel   string              `json:"status_label"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalCents    int64               `json:"total_cents"`
	ItemCount     int                 `json:"item_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList is a cursor page of order summaries.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

// OrderView is the full order document returned by detail endpoints.
type OrderView struct {
	ID            uuid.UUID              `json:"id"`
	OrderNumber   string                 `json:"order_number"`
	Customer      types.CustomerSnapshot `json:"customer"`
	Items         types.OrderItems       `json:"items"`
	SubtotalCents int64                  `json:"subtotal_cents"`
	DiscountCents int64                  `json:"discount_cents"`
	TaxCents      int64                  `json:"tax_cents"`
	ShippingCents int64                  `json:"shipping_cents"`
	TotalCents    int64                  `json:"total_cents"`
	Currency      enums.Currency         `json:"currency"`
	Status        enums.OrderStatus      `json:"status"`
	StatusLabel   string                 `json:"status_label"`
	PaymentStatus enums.PaymentStatus    `json:"payment_status"`
	PaymentMethod enums.PaymentMethod    `json:"payment_method"`
	Shipping      types.ShippingInfo     `json:"shipping"`
	Timeline      types.Timeline         `json:"timeline"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// NewOrderSummary maps an order row into its list representation.
func NewOrderSummary(order *models.Order) OrderSummary {
	return OrderSummary{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.Customer.FullName,
		CustomerEmail: order.Customer.Email,
		Status:        order.Status,
		StatusLabel:   order.Status.Label(),
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		TotalCents:    order.TotalCents,
		ItemCount:     len(order.Items),
		CreatedAt:     order.CreatedAt,
	}
}

// NewOrderView maps an order row into its detail representation.
func NewOrderView(order *models.Order) OrderView {
	return OrderView{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Customer:      order.Customer,
		Items:         order.Items,
		SubtotalCents: order.SubtotalCents,
		DiscountCents: order.DiscountCents,
		TaxCents:      order.TaxCents,
		ShippingCents: order.ShippingCents,
		TotalCents:    order.TotalCents,
		Currency:      order.Currency,
		Status:        order.Status,
		StatusLabel:   order.Status.Label(),
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		Shipping:      order.Shipping,
		Timeline:      order.Timeline,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}

// StatusUpdateInput carries an admin status transition request. Carrier,
// tracking number and the delivery estimate are optional fulfillment details
// folded into the order's shipping block alongside the transition.
type StatusUpdateInput struct {
	OrderNumber         string
	Status              string
	Description         string
	Location            string
	Carrier             string
	TrackingNumber      string
	EstimatedDeliveryAt *time.Time
	ActorUserID         uuid.UUID
	ActorRole           string
}

// StatusUpdateResult reports the state the order settled into.
type StatusUpdateResult struct {
	OrderNumber   string              `json:"order_number"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	UpdatedAt     time.Time           `json:"updated_at"`
}
