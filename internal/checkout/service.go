package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/internal/orders"
	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/logger"
	"github.com/davemoreau/maplewood-commerce/pkg/mail"
	"github.com/davemoreau/maplewood-commerce/pkg/orderid"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox/payloads"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	AppendAddress(ctx context.Context, userID uuid.UUID, address types.SavedAddress) (bool, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CartItemInput is one submitted cart line. Unit price and discount are the
// add-time values the client saw; the final price is recomputed server-side.
type CartItemInput struct {
	ProductID       uuid.UUID `json:"product_id"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int64     `json:"unit_price_cents"`
	DiscountPercent int       `json:"discount_percent"`
}

// CheckoutInput is the full checkout submission.
type CheckoutInput struct {
	UserID        uuid.UUID
	Items         []CartItemInput
	Shipping      types.ShippingInfo
	PaymentMethod string
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	DiscountCents int64
	TotalCents    int64
}

// CheckoutResult is what a successful checkout returns to the client.
type CheckoutResult struct {
	OrderID     uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
	TotalCents  int64     `json:"total_cents"`
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	tx           txRunner
	ordersRepo   orders.Repository
	users        userStore
	products     productLoader
	outbox       outboxPublisher
	mailer       mail.Mailer
	logg         *logger.Logger
	ownerEmail   string
	storeTimeout time.Duration
	now          func() time.Time
}

// NewService builds the checkout service. storeTimeout bounds the store and
// mail work of a single checkout; zero disables the deadline.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	users userStore,
	products productLoader,
	publisher outboxPublisher,
	mailer mail.Mailer,
	logg *logger.Logger,
	ownerEmail string,
	storeTimeout time.Duration,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	return &service{
		tx:           tx,
		ordersRepo:   ordersRepo,
		users:        users,
		products:     products,
		outbox:       publisher,
		mailer:       mailer,
		logg:         logg,
		ownerEmail:   ownerEmail,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}, nil
}

// requiredShippingFields is checked in order so the first missing field is
// the one named in the error.
var requiredShippingFields = []struct {
	name  string
	value func(types.ShippingInfo) string
}{
	{"fullName", func(s types.ShippingInfo) string { return s.FullName }},
	{"phone", func(s types.ShippingInfo) string { return s.Phone }},
	{"address", func(s types.ShippingInfo) string { return s.Address }},
	{"city", func(s types.ShippingInfo) string { return s.City }},
	{"state", func(s types.ShippingInfo) string { return s.State }},
	{"zipCode", func(s types.ShippingInfo) string { return s.ZipCode }},
	{"country", func(s types.ShippingInfo) string { return s.Country }},
}

func (s *service) Execute(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Quantity <= 0 || item.UnitPriceCents < 0 ||
			item.DiscountPercent < 0 || item.DiscountPercent > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains a malformed item").
				WithDetails(map[string]string{"product_id": item.ProductID.String()})
		}
	}
	for _, field := range requiredShippingFields {
		if field.value(input.Shipping) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required shipping field: "+field.name).
				WithDetails(map[string]string{"field": field.name})
		}
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]string{"payment_method": input.PaymentMethod})
	}
	if input.TotalCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}

	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load user")
	}

	items, subtotal, err := s.buildItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}
	if input.SubtotalCents != subtotal {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart subtotal does not match item prices").
			WithDetails(map[string]int64{"expected_subtotal_cents": subtotal})
	}
	computedTotal := subtotal + input.TaxCents + input.ShippingCents - input.DiscountCents
	if input.TotalCents != computedTotal {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total does not reconcile").
			WithDetails(map[string]int64{"expected_total_cents": computedTotal})
	}

	orderNumber, err := orderid.New()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate order number")
	}

	now := s.now().UTC()
	phone := ""
	if user.Phone != nil {
		phone = *user.Phone
	}
	// Carrier, tracking and delivery timestamps belong to the admin flow; a
	// client cannot seed them at checkout.
	shipping := input.Shipping
	shipping.Carrier = ""
	shipping.TrackingNumber = ""
	shipping.EstimatedDeliveryAt = nil
	shipping.DeliveredAt = nil
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: orderNumber,
		UserID:      user.ID,
		Customer: types.CustomerSnapshot{
			UserID:   user.ID,
			FullName: user.FullName,
			Email:    user.Email,
			Phone:    phone,
		},
		Items:         items,
		SubtotalCents: subtotal,
		DiscountCents: input.DiscountCents,
		TaxCents:      input.TaxCents,
		ShippingCents: input.ShippingCents,
		TotalCents:    input.TotalCents,
		Currency:      enums.CurrencyUSD,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: method,
		Shipping:      shipping,
		Timeline: types.Timeline{
			{Status: enums.OrderStatusPending, Timestamp: now, Description: "Order placed"},
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, txErr := s.ordersRepo.WithTx(tx).Create(ctx, order); txErr != nil {
			return txErr
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, Role: string(user.Role)},
			OccurredAt:    now,
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      user.ID,
				TotalCents:  order.TotalCents,
				ItemCount:   len(order.Items),
				PlacedAt:    now,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to persist order")
	}

	s.appendAddressBook(ctx, user, shipping)
	s.sendConfirmation(ctx, user, order)

	return &CheckoutResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalCents:  order.TotalCents,
	}, nil
}

func (s *service) buildItems(ctx context.Context, inputs []CartItemInput) (types.OrderItems, int64, error) {
	items := make(types.OrderItems, 0, len(inputs))
	var subtotal int64
	for _, item := range inputs {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available").
					WithDetails(map[string]string{"product_id": item.ProductID.String()})
			}
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load product")
		}
		if !product.IsActive {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available").
				WithDetails(map[string]string{"product_id": item.ProductID.String()})
		}

		finalPrice := FinalPriceCents(item.UnitPriceCents, item.DiscountPercent)
		lineTotal := finalPrice * int64(item.Quantity)
		items = append(items, types.OrderItem{
			ProductID:       product.ID,
			Name:            product.Name,
			Slug:            product.Slug,
			ImageURL:        product.ImageURL,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			DiscountPercent: item.DiscountPercent,
			FinalPriceCents: finalPrice,
			LineTotalCents:  lineTotal,
		})
		subtotal += lineTotal
	}
	return items, subtotal, nil
}

// appendAddressBook saves the shipping address for reuse. Failures are
// logged and swallowed; checkout already succeeded.
func (s *service) appendAddressBook(ctx context.Context, user *models.User, shipping types.ShippingInfo) {
	address := types.SavedAddress{
		ID:          uuid.New(),
		FullName:    shipping.FullName,
		Phone:       shipping.Phone,
		Address:     shipping.Address,
		City:        shipping.City,
		State:       shipping.State,
		ZipCode:     shipping.ZipCode,
		Country:     shipping.Country,
		Landmark:    shipping.Landmark,
		AddressType: shipping.AddressType,
	}
	added, err := s.users.AppendAddress(ctx, user.ID, address)
	if err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "user_id", user.ID.String())
			s.logg.Warn(logCtx, "checkout: address book update failed: "+err.Error())
		}
		return
	}
	if added && s.logg != nil {
		logCtx := s.logg.WithField(ctx, "user_id", user.ID.String())
		s.logg.Info(logCtx, "checkout: shipping address saved to address book")
	}
}

// sendConfirmation emails the customer and copies the store owner. Failures
// are logged and swallowed; checkout already succeeded.
func (s *service) sendConfirmation(ctx context.Context, user *models.User, order *models.Order) {
	lines := make([]mail.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, mail.LineItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			LineTotalCents: item.LineTotalCents,
		})
	}
	err := s.mailer.SendOrderConfirmation(ctx, mail.OrderConfirmation{
		To:           user.Email,
		OwnerCopyTo:  s.ownerEmail,
		CustomerName: user.FullName,
		OrderNumber:  order.OrderNumber,
		Items:        lines,
		TotalCents:   order.TotalCents,
		Currency:     order.Currency,
		PlacedAt:     order.CreatedAt,
	})
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
		s.logg.Warn(logCtx, "checkout: confirmation email failed: "+err.Error())
	}
}
