package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/pagination"
)

// Repository defines persistence operations for reviews.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, status enums.ReviewStatus, params pagination.Params) (*ReviewList, error)
	ListByStatus(ctx context.Context, status enums.ReviewStatus, params pagination.Params) (*ReviewList, error)
	ApplyModeration(ctx context.Context, id uuid.UUID, status enums.ReviewStatus, adminResponse *string, moderatedAt time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reviews repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, status enums.ReviewStatus, params pagination.Params) (*ReviewList, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND status = ?", productID, status)
	return r.listPage(query, params)
}

func (r *repository) ListByStatus(ctx context.Context, status enums.ReviewStatus, params pagination.Params) (*ReviewList, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).Where("status = ?", status)
	return r.listPage(query, params)
}

func (r *repository) listPage(query *gorm.DB, params pagination.Params) (*ReviewList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	var rows []models.Review
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &ReviewList{Reviews: make([]ReviewView, 0, len(rows))}
	if len(rows) > normalized {
		next := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: rows[normalized-1].CreatedAt,
			ID:        rows[normalized-1].ID,
		})
		list.NextCursor = &next
		rows = rows[:normalized]
	}
	for i := range rows {
		list.Reviews = append(list.Reviews, NewReviewView(&rows[i]))
	}
	return list, nil
}

// ApplyModeration moves a pending review into its final state. The status
// guard in the WHERE clause keeps two concurrent moderators from both
// winning.
func (r *repository) ApplyModeration(ctx context.Context, id uuid.UUID, status enums.ReviewStatus, adminResponse *string, moderatedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ? AND status = ?", id, enums.ReviewStatusPending).
		Select("status", "admin_response", "moderated_at", "updated_at").
		Updates(models.Review{
			Status:        status,
			AdminResponse: adminResponse,
			ModeratedAt:   &moderatedAt,
			UpdatedAt:     moderatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
