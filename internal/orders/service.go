package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/pkg/config"
	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox/payloads"
	"github.com/davemoreau/maplewood-commerce/pkg/pagination"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes order reads plus the admin status transition.
type Service interface {
	GetForUser(ctx context.Context, userID uuid.UUID, orderNumber string) (*OrderView, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, orderNumber string) (*OrderView, error)
	List(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, input StatusUpdateInput) (*StatusUpdateResult, error)
}

// statusUpdateRetries bounds how many times a transition is replayed when the
// version check loses the race.
const statusUpdateRetries = 3

type service struct {
	repo         Repository
	tx           txRunner
	outbox       outboxPublisher
	allowed      map[enums.OrderStatus]struct{}
	storeTimeout time.Duration
	now          func() time.Time
}

// NewService wires the orders service. The allowed status set comes from
// configuration so a deployment can shrink the lifecycle without a deploy of
// new code.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, cfg config.OrdersConfig) (Service, error) {
	if repo == nil {
		return nil, errors.New("orders repository is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if outboxSvc == nil {
		return nil, errors.New("outbox publisher is required")
	}
	allowed := make(map[enums.OrderStatus]struct{}, len(cfg.AllowedStatuses))
	for _, raw := range cfg.AllowedStatuses {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("allowed statuses: %w", err)
		}
		allowed[status] = struct{}{}
	}
	if len(allowed) == 0 {
		return nil, errors.New("at least one allowed order status is required")
	}
	return &service{
		repo:         repo,
		tx:           tx,
		outbox:       outboxSvc,
		allowed:      allowed,
		storeTimeout: cfg.StoreTimeout,
		now:          time.Now,
	}, nil
}

func (s *service) GetForUser(ctx context.Context, userID uuid.UUID, orderNumber string) (*OrderView, error) {
	order, err := s.repo.FindByOrderNumberForUser(ctx, orderNumber, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
	}
	view := NewOrderView(order)
	return &view, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list orders")
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, orderNumber string) (*OrderView, error) {
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
	}
	view := NewOrderView(order)
	return &view, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error) {
	list, err := s.repo.ListAdmin(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list orders")
	}
	return list, nil
}

// UpdateStatus applies one status transition: validate the target status,
// append a timeline entry, derive the payment status, bump the version, and
// queue the status-changed event in the same transaction. Re-submitting the
// current status is accepted and appends another timeline entry.
func (s *service) UpdateStatus(ctx context.Context, input StatusUpdateInput) (*StatusUpdateResult, error) {
	status, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]string{"status": input.Status})
	}
	if _, ok := s.allowed[status]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order status is not accepted by this store").
			WithDetails(map[string]string{"status": input.Status})
	}

	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}

	for attempt := 0; attempt < statusUpdateRetries; attempt++ {
		order, err := s.repo.FindByOrderNumber(ctx, input.OrderNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load order")
		}

		now := s.now().UTC()
		payment := derivePaymentStatus(order, status)
		shipping := applyFulfillment(order.Shipping, status, input, now)
		timeline := make(types.Timeline, 0, len(order.Timeline)+1)
		timeline = append(timeline, order.Timeline...)
		timeline = append(timeline, types.TimelineEntry{
			Status:      status,
			Timestamp:   now,
			Description: input.Description,
			Location:    input.Location,
		})

		change := StatusChange{
			OrderID:         order.ID,
			ExpectedVersion: order.Version,
			Status:          status,
			PaymentStatus:   payment,
			Shipping:        shipping,
			Timeline:        timeline,
			UpdatedAt:       now,
		}

		applied := false
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			ok, txErr := s.repo.WithTx(tx).ApplyStatusChange(ctx, change)
			if txErr != nil {
				return txErr
			}
			if !ok {
				return nil
			}
			applied = true
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderStatusChanged,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole},
				OccurredAt:    now,
				Data: payloads.OrderStatusChangedEvent{
					OrderID:       order.ID,
					OrderNumber:   order.OrderNumber,
					UserID:        order.UserID,
					Status:        status,
					PaymentStatus: payment,
					Description:   input.Description,
					Location:      input.Location,
					ChangedAt:     now,
				},
			})
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to persist order status")
		}
		if applied {
			return &StatusUpdateResult{
				OrderNumber:   order.OrderNumber,
				Status:        status,
				PaymentStatus: payment,
				UpdatedAt:     now,
			}, nil
		}
	}

	return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order was updated concurrently, please retry")
}

// applyFulfillment folds optional fulfillment details into the shipping
// block. Delivered stamps the actual delivery time exactly once; carrier and
// tracking details stick until overwritten.
func applyFulfillment(shipping types.ShippingInfo, next enums.OrderStatus, input StatusUpdateInput, now time.Time) types.ShippingInfo {
	if input.Carrier != "" {
		shipping.Carrier = input.Carrier
	}
	if input.TrackingNumber != "" {
		shipping.TrackingNumber = input.TrackingNumber
	}
	if input.EstimatedDeliveryAt != nil {
		estimated := input.EstimatedDeliveryAt.UTC()
		shipping.EstimatedDeliveryAt = &estimated
	}
	if next == enums.OrderStatusDelivered && shipping.DeliveredAt == nil {
		delivered := now
		shipping.DeliveredAt = &delivered
	}
	return shipping
}

// derivePaymentStatus folds fulfillment transitions into payment state:
// a delivered cash-on-delivery order is paid, and a paid order that comes
// back as returned or refunded is refunded.
func derivePaymentStatus(order *models.Order, next enums.OrderStatus) enums.PaymentStatus {
	switch {
	case next == enums.OrderStatusDelivered &&
		order.PaymentMethod == enums.PaymentMethodCOD &&
		order.PaymentStatus != enums.PaymentStatusPaid:
		return enums.PaymentStatusPaid
	case (next == enums.OrderStatusReturned || next == enums.OrderStatusRefunded) &&
		order.PaymentStatus == enums.PaymentStatusPaid:
		return enums.PaymentStatusRefunded
	default:
		return order.PaymentStatus
	}
}
