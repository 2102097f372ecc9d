package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/pkg/enums"
)

// Review is a customer product review awaiting or past moderation. One
// review per product per user, enforced by a composite unique index.
type Review struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID          `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	UserID        uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	Rating        int                `gorm:"column:rating;not null"`
	Title         string             `gorm:"column:title"`
	Body          string             `gorm:"column:body;not null"`
	Status        enums.ReviewStatus `gorm:"column:status;not null;default:pending"`
	AdminResponse *string            `gorm:"column:admin_response"`
	ModeratedAt   *time.Time         `gorm:"column:moderated_at"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
