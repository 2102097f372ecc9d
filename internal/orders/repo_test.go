package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/pagination"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  customer TEXT,
  items TEXT,
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  tax_cents INTEGER NOT NULL DEFAULT 0,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL DEFAULT 'cod',
  shipping TEXT,
  timeline TEXT,
  version INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(`DELETE FROM orders`).Error)
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, number string, created time.Time, status enums.OrderStatus, payment enums.PaymentStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: number,
		UserID:      userID,
		Customer: types.CustomerSnapshot{
			UserID:   userID,
			FullName: "Ana Alvarez",
			Email:    "ana@example.com",
		},
		Items: types.OrderItems{
			{
				ProductID:       uuid.New(),
				Name:            "Walnut Cutting Board",
				Slug:            "walnut-cutting-board",
				Quantity:        2,
				UnitPriceCents:  1000,
				DiscountPercent: 10,
				FinalPriceCents: 900,
				LineTotalCents:  1800,
			},
		},
		SubtotalCents: 1800,
		TaxCents:      100,
		ShippingCents: 50,
		TotalCents:    1950,
		Currency:      enums.CurrencyUSD,
		Status:        status,
		PaymentStatus: payment,
		PaymentMethod: enums.PaymentMethodCOD,
		Timeline: types.Timeline{
			{Status: enums.OrderStatusPending, Timestamp: created},
		},
		Version:   1,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	created := seedOrder(t, db, userID, "MW-0123456789", time.Now().UTC(), enums.OrderStatusPending, enums.PaymentStatusPending)

	byNumber, err := repo.FindByOrderNumber(ctx, "MW-0123456789")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)
	assert.Equal(t, "Ana Alvarez", byNumber.Customer.FullName)
	assert.Len(t, byNumber.Items, 1)
	assert.Equal(t, int64(1950), byNumber.TotalCents)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "MW-0123456789", byID.OrderNumber)

	owned, err := repo.FindByOrderNumberForUser(ctx, "MW-0123456789", userID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, owned.ID)

	_, err = repo.FindByOrderNumberForUser(ctx, "MW-0123456789", uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryApplyStatusChangeVersionGuard(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := seedOrder(t, db, uuid.New(), "MW-CASGUARD01", time.Now().UTC(), enums.OrderStatusPending, enums.PaymentStatusPending)

	now := time.Now().UTC()
	timeline := append(order.Timeline, types.TimelineEntry{
		Status:    enums.OrderStatusConfirmed,
		Timestamp: now,
	})
	applied, err := repo.ApplyStatusChange(ctx, StatusChange{
		OrderID:         order.ID,
		ExpectedVersion: 1,
		Status:          enums.OrderStatusConfirmed,
		PaymentStatus:   enums.PaymentStatusPending,
		Shipping:        order.Shipping,
		Timeline:        timeline,
		UpdatedAt:       now,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, reloaded.Status)
	assert.Equal(t, 2, reloaded.Version)
	require.Len(t, reloaded.Timeline, 2)
	assert.Equal(t, enums.OrderStatusConfirmed, reloaded.Timeline[1].Status)

	stale, err := repo.ApplyStatusChange(ctx, StatusChange{
		OrderID:         order.ID,
		ExpectedVersion: 1,
		Status:          enums.OrderStatusProcessing,
		PaymentStatus:   enums.PaymentStatusPending,
		Shipping:        order.Shipping,
		Timeline:        timeline,
		UpdatedAt:       now,
	})
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestRepositoryListForUserPagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	seedOrder(t, db, userID, "MW-PAGELIST01", base, enums.OrderStatusPending, enums.PaymentStatusPending)
	seedOrder(t, db, userID, "MW-PAGELIST02", base.Add(time.Minute), enums.OrderStatusPending, enums.PaymentStatusPending)
	seedOrder(t, db, userID, "MW-PAGELIST03", base.Add(2*time.Minute), enums.OrderStatusPending, enums.PaymentStatusPending)
	seedOrder(t, db, uuid.New(), "MW-PAGEOTHER1", base.Add(3*time.Minute), enums.OrderStatusPending, enums.PaymentStatusPending)

	first, err := repo.ListForUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	assert.Equal(t, "MW-PAGELIST03", first.Orders[0].OrderNumber)
	assert.Equal(t, "MW-PAGELIST02", first.Orders[1].OrderNumber)
	require.NotNil(t, first.NextCursor)

	second, err := repo.ListForUser(ctx, userID, pagination.Params{Limit: 2, Cursor: *first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, "MW-PAGELIST01", second.Orders[0].OrderNumber)
	assert.Nil(t, second.NextCursor)
}

func TestRepositoryListAdminStatusFilter(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	seedOrder(t, db, uuid.New(), "MW-ADMFILTER1", base, enums.OrderStatusShipped, enums.PaymentStatusPending)
	seedOrder(t, db, uuid.New(), "MW-ADMFILTER2", base.Add(time.Minute), enums.OrderStatusDelivered, enums.PaymentStatusPaid)
	seedOrder(t, db, uuid.New(), "MW-ADMFILTER3", base.Add(2*time.Minute), enums.OrderStatusShipped, enums.PaymentStatusPending)

	shipped := enums.OrderStatusShipped
	list, err := repo.ListAdmin(ctx, pagination.Params{Limit: 10}, AdminOrderFilters{Status: &shipped})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, "MW-ADMFILTER3", list.Orders[0].OrderNumber)
	assert.Equal(t, "MW-ADMFILTER1", list.Orders[1].OrderNumber)
	assert.Equal(t, 1, list.Orders[0].ItemCount)
	assert.Equal(t, "Shipped", list.Orders[0].StatusLabel)

	all, err := repo.ListAdmin(ctx, pagination.Params{Limit: 10}, AdminOrderFilters{})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 3)
}
