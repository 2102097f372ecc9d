package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
)

// CreateReviewInput is an authenticated customer's review submission.
type CreateReviewInput struct {
	ProductID uuid.UUID
	UserID    uuid.UUID
	Rating    int
	Title     string
	Body      string
}

// ModerateInput is an admin moderation decision.
type ModerateInput struct {
	ReviewID      uuid.UUID
	Status        string
	AdminResponse *string
	ActorUserID   uuid.UUID
}

// ReviewView is the transport shape for a review.
type ReviewView struct {
	ID            uuid.UUID          `json:"id"`
	ProductID     uuid.UUID          `json:"product_id"`
	UserID        uuid.UUID          `json:"user_id"`
	Rating        int                `json:"rating"`
	Title         string             `json:"title,omitempty"`
	Body          string             `json:"body"`
	Status        enums.ReviewStatus `json:"status"`
	AdminResponse *string            `json:"admin_response,omitempty"`
	ModeratedAt   *time.Time         `json:"moderated_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ReviewList is a cursor page of reviews.
type ReviewList struct {
	Reviews    []ReviewView `json:"reviews"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// NewReviewView maps a review row into its transport shape.
func NewReviewView(r *models.Review) ReviewView {
	return ReviewView{
		ID:            r.ID,
		ProductID:     r.ProductID,
		UserID:        r.UserID,
		Rating:        r.Rating,
		Title:         r.Title,
		Body:          r.Body,
		Status:        r.Status,
		AdminResponse: r.AdminResponse,
		ModeratedAt:   r.ModeratedAt,
		CreatedAt:     r.CreatedAt,
	}
}
