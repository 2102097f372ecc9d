package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/pkg/config"
	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox"
	"github.com/davemoreau/maplewood-commerce/pkg/pagination"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

type stubOrdersRepo struct {
	order             *models.Order
	appliedChanges    []StatusChange
	findByOrderNumber func(ctx context.Context, orderNumber string) (*models.Order, error)
	applyStatusChange func(ctx context.Context, change StatusChange) (bool, error)
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if s.findByOrderNumber != nil {
		return s.findByOrderNumber(ctx, orderNumber)
	}
	if s.order == nil || s.order.OrderNumber != orderNumber {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) FindByOrderNumberForUser(ctx context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.OrderNumber != orderNumber || s.order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrdersRepo) ListAdmin(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error) {
	return &OrderList{}, nil
}

func (s *stubOrdersRepo) ApplyStatusChange(ctx context.Context, change StatusChange) (bool, error) {
	s.appliedChanges = append(s.appliedChanges, change)
	if s.applyStatusChange != nil {
		return s.applyStatusChange(ctx, change)
	}
	if s.order != nil {
		s.order.Status = change.Status
		s.order.PaymentStatus = change.PaymentStatus
		s.order.Shipping = change.Shipping
		s.order.Timeline = change.Timeline
		s.order.Version = change.ExpectedVersion + 1
	}
	return true, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func ordersTestConfig() config.OrdersConfig {
	statuses := make([]string, 0, len(enums.AllOrderStatuses()))
	for _, status := range enums.AllOrderStatuses() {
		statuses = append(statuses, string(status))
	}
	return config.OrdersConfig{AllowedStatuses: statuses, StoreTimeout: time.Second}
}

func newTestOrder(status enums.OrderStatus, payment enums.PaymentStatus) *models.Order {
	now := time.Now().UTC().Add(-time.Hour)
	return &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "MW-SVCTEST001",
		UserID:        uuid.New(),
		Status:        status,
		PaymentStatus: payment,
		PaymentMethod: enums.PaymentMethodCOD,
		TotalCents:    1950,
		Timeline: types.Timeline{
			{Status: enums.OrderStatusPending, Timestamp: now},
		},
		Version:   1,
		CreatedAt: now,
	}
}

func newTestService(t *testing.T, repo *stubOrdersRepo, ob *stubOutbox, cfg config.OrdersConfig) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, ob, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := &stubOrdersRepo{order: newTestOrder(enums.OrderStatusPending, enums.PaymentStatusPending)}
	svc := newTestService(t, repo, &stubOutbox{}, ordersTestConfig())

	_, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-SVCTEST001",
		Status:      "teleported",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.appliedChanges) != 0 {
		t.Fatalf("expected no write for unknown status")
	}
}

func TestUpdateStatusRejectsDisallowedStatus(t *testing.T) {
	repo := &stubOrdersRepo{order: newTestOrder(enums.OrderStatusPending, enums.PaymentStatusPending)}
	cfg := config.OrdersConfig{AllowedStatuses: []string{"pending", "confirmed", "shipped"}}
	svc := newTestService(t, repo, &stubOutbox{}, cfg)

	_, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-SVCTEST001",
		Status:      "refunded",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	repo := &stubOrdersRepo{}
	svc := newTestService(t, repo, &stubOutbox{}, ordersTestConfig())

	_, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-MISSING001",
		Status:      "confirmed",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateStatusDeliveredCODMarksPaid(t *testing.T) {
	repo := &stubOrdersRepo{order: newTestOrder(enums.OrderStatusOutForDelivery, enums.PaymentStatusPending)}
	ob := &stubOutbox{}
	svc := newTestService(t, repo, ob, ordersTestConfig())

	result, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-SVCTEST001",
		Status:      "delivered",
		Description: "Left with neighbor",
		Location:    "Front porch",
		ActorUserID: uuid.New(),
		ActorRole:   string(enums.RoleAdmin),
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if result.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", result.Status)
	}
	if result.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected derived paid payment status, got %s", result.PaymentStatus)
	}

	if len(repo.appliedChanges) != 1 {
		t.Fatalf("expected one write, got %d", len(repo.appliedChanges))
	}
	change := repo.appliedChanges[0]
	if len(change.Timeline) != 2 {
		t.Fatalf("expected appended timeline entry, got %d entries", len(change.Timeline))
	}
	last := change.Timeline[len(change.Timeline)-1]
	if last.Status != enums.OrderStatusDelivered || last.Description != "Left with neighbor" || last.Location != "Front porch" {
		t.Fatalf("unexpected timeline entry %+v", last)
	}

	if len(ob.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(ob.events))
	}
	if ob.events[0].EventType != enums.EventOrderStatusChanged {
		t.Fatalf("unexpected event type %s", ob.events[0].EventType)
	}
}

func TestUpdateStatusDeliveredCardKeepsPaymentPending(t *testing.T) {
	order := newTestOrder(enums.OrderStatusOutForDelivery, enums.PaymentStatusPending)
	order.PaymentMethod = enums.PaymentMethodCard
	repo := &stubOrdersRepo{order: order}
	svc := newTestService(t, repo, &stubOutbox{}, ordersTestConfig())

	result, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-SVCTEST001",
		Status:      "delivered",
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if result.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered, got %s", result.Status)
	}
	if result.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("card order must not auto-pay on delivery, got %s", result.PaymentStatus)
	}

	change := repo.appliedChanges[0]
	if change.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("persisted payment status changed to %s", change.PaymentStatus)
	}
	if len(change.Timeline) != 2 {
		t.Fatalf("expected appended timeline entry, got %d entries", len(change.Timeline))
	}
	previous, last := change.Timeline[0], change.Timeline[1]
	if last.Timestamp.Before(previous.Timestamp) {
		t.Fatalf("timeline went backwards: %s before %s", last.Timestamp, previous.Timestamp)
	}
}

func TestUpdateStatusRecordsFulfillmentDetails(t *testing.T) {
	order := newTestOrder(enums.OrderStatusProcessing, enums.PaymentStatusPending)
	repo := &stubOrdersRepo{order: order}
	svc := newTestService(t, repo, &stubOutbox{}, ordersTestConfig())

	estimated := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	_, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber:         "MW-SVCTEST001",
		Status:              "shipped",
		Carrier:             "Maple Express",
		TrackingNumber:      "ME-99181",
		EstimatedDeliveryAt: &estimated,
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}

	shipped := repo.appliedChanges[0].Shipping
	if shipped.Carrier != "Maple Express" || shipped.TrackingNumber != "ME-99181" {
		t.Fatalf("fulfillment details not recorded: %+v", shipped)
	}
	if shipped.EstimatedDeliveryAt == nil || !shipped.EstimatedDeliveryAt.Equal(estimated) {
		t.Fatalf("estimated delivery not recorded: %+v", shipped.EstimatedDeliveryAt)
	}
	if shipped.DeliveredAt != nil {
		t.Fatalf("delivered timestamp set before delivery: %+v", shipped.DeliveredAt)
	}

	_, err = svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-SVCTEST001",
		Status:      "delivered",
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	delivered := repo.appliedChanges[1].Shipping
	if delivered.DeliveredAt == nil {
		t.Fatal("expected delivered timestamp on delivery")
	}
	if delivered.Carrier != "Maple Express" || delivered.TrackingNumber != "ME-99181" {
		t.Fatalf("fulfillment details lost on later transition: %+v", delivered)
	}
}

func TestUpdateStatusReturnedRefundsPaidOrder(t *testing.T) {
	repo := &stubOrdersRepo{order: newTestOrder(enums.OrderStatusDelivered, enums.PaymentStatusPaid)}
	svc := newTestService(t, repo, &stubOutbox{}, ordersTestConfig())

	result, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-SVCTEST001",
		Status:      "returned",
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if result.PaymentStatus != enums.PaymentStatusRefunded {
		t.Fatalf("expected refunded payment status, got %s", result.PaymentStatus)
	}
}

func TestUpdateStatusDuplicateAppendsTimeline(t *testing.T) {
	order := newTestOrder(enums.OrderStatusShipped, enums.PaymentStatusPending)
	order.Timeline = append(order.Timeline, types.TimelineEntry{
		Status:    enums.OrderStatusShipped,
		Timestamp: time.Now().UTC().Add(-time.Minute),
	})
	repo := &stubOrdersRepo{order: order}
	svc := newTestService(t, repo, &stubOutbox{}, ordersTestConfig())

	result, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-SVCTEST001",
		Status:      "shipped",
		Location:    "Regional depot",
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if result.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", result.Status)
	}
	if result.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("payment status should be unchanged, got %s", result.PaymentStatus)
	}
	change := repo.appliedChanges[0]
	if len(change.Timeline) != 3 {
		t.Fatalf("expected duplicate status to append, got %d entries", len(change.Timeline))
	}
}

func TestUpdateStatusRetriesOnVersionConflict(t *testing.T) {
	repo := &stubOrdersRepo{order: newTestOrder(enums.OrderStatusPending, enums.PaymentStatusPending)}
	attempts := 0
	repo.applyStatusChange = func(ctx context.Context, change StatusChange) (bool, error) {
		attempts++
		if attempts == 1 {
			return false, nil
		}
		return true, nil
	}
	ob := &stubOutbox{}
	svc := newTestService(t, repo, ob, ordersTestConfig())

	_, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-SVCTEST001",
		Status:      "confirmed",
	})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected a retry after version conflict, got %d attempts", attempts)
	}
	if len(ob.events) != 1 {
		t.Fatalf("expected event only for the applied write, got %d", len(ob.events))
	}
}

func TestUpdateStatusConflictAfterRetries(t *testing.T) {
	repo := &stubOrdersRepo{order: newTestOrder(enums.OrderStatusPending, enums.PaymentStatusPending)}
	repo.applyStatusChange = func(ctx context.Context, change StatusChange) (bool, error) {
		return false, nil
	}
	svc := newTestService(t, repo, &stubOutbox{}, ordersTestConfig())

	_, err := svc.UpdateStatus(context.Background(), StatusUpdateInput{
		OrderNumber: "MW-SVCTEST001",
		Status:      "confirmed",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(repo.appliedChanges) != statusUpdateRetries {
		t.Fatalf("expected %d attempts, got %d", statusUpdateRetries, len(repo.appliedChanges))
	}
}

func TestNewServiceRejectsUnknownAllowedStatus(t *testing.T) {
	repo := &stubOrdersRepo{}
	_, err := NewService(repo, stubTxRunner{}, &stubOutbox{}, config.OrdersConfig{AllowedStatuses: []string{"pending", "vanished"}})
	if err == nil {
		t.Fatal("expected error for unknown allowed status")
	}
}

func TestGetForUserScopesByOwner(t *testing.T) {
	order := newTestOrder(enums.OrderStatusPending, enums.PaymentStatusPending)
	repo := &stubOrdersRepo{order: order}
	svc := newTestService(t, repo, &stubOutbox{}, ordersTestConfig())

	view, err := svc.GetForUser(context.Background(), order.UserID, order.OrderNumber)
	if err != nil {
		t.Fatalf("get for user: %v", err)
	}
	if view.OrderNumber != order.OrderNumber {
		t.Fatalf("unexpected order %s", view.OrderNumber)
	}

	_, err = svc.GetForUser(context.Background(), uuid.New(), order.OrderNumber)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for other user, got %v", err)
	}
}
