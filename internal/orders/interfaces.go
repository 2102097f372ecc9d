package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/pagination"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

// Repository defines persistence operations for order documents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByOrderNumberForUser(ctx context.Context, orderNumber string, userID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListAdmin(ctx context.Context, params pagination.Params, filters AdminOrderFilters) (*OrderList, error)
	ApplyStatusChange(ctx context.Context, change StatusChange) (bool, error)
}

// StatusChange is the compare-and-set write applied to one order. The update
// only lands when the stored version still equals ExpectedVersion.
type StatusChange struct {
	OrderID         uuid.UUID
	ExpectedVersion int
	Status          enums.OrderStatus
	PaymentStatus   enums.PaymentStatus
	Shipping        types.ShippingInfo
	Timeline        types.Timeline
	UpdatedAt       time.Time
}
