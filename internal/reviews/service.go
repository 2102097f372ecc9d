package reviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/davemoreau/maplewood-commerce/pkg/db"
	"github.com/davemoreau/maplewood-commerce/pkg/db/models"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox/payloads"
	"github.com/davemoreau/maplewood-commerce/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes review submission, moderation and reads.
type Service interface {
	Create(ctx context.Context, input CreateReviewInput) (*ReviewView, error)
	Moderate(ctx context.Context, input ModerateInput) (*ReviewView, error)
	ListApproved(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error)
	ListPending(ctx context.Context, params pagination.Params) (*ReviewList, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	products productLoader
}

// NewService wires the reviews service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher, products: products}, nil
}

func (s *service) Create(ctx context.Context, input CreateReviewInput) (*ReviewView, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if input.Body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review body is required")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	review := &models.Review{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Title:     input.Title,
		Body:      input.Body,
		Status:    enums.ReviewStatusPending,
	}
	if _, err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "idx_reviews_product_user") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "you have already reviewed this product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to save review")
	}

	view := NewReviewView(review)
	return &view, nil
}

// Moderate settles a pending review. The decision and the moderated event
// are committed in one transaction; a review that already left pending is
// reported as a conflict.
func (s *service) Moderate(ctx context.Context, input ModerateInput) (*ReviewView, error) {
	status, err := enums.ParseReviewStatus(input.Status)
	if err != nil || status == enums.ReviewStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "moderation status must be approved or rejected").
			WithDetails(map[string]string{"status": input.Status})
	}

	review, err := s.repo.FindByID(ctx, input.ReviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to load review")
	}

	now := time.Now().UTC()
	applied := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, txErr := s.repo.WithTx(tx).ApplyModeration(ctx, review.ID, status, input.AdminResponse, now)
		if txErr != nil {
			return txErr
		}
		if !ok {
			return nil
		}
		applied = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReviewModerated,
			AggregateType: enums.AggregateReview,
			AggregateID:   review.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: string(enums.RoleAdmin)},
			OccurredAt:    now,
			Data: payloads.ReviewModeratedEvent{
				ReviewID:  review.ID,
				ProductID: review.ProductID,
				UserID:    review.UserID,
				Status:    status,
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to persist moderation")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "review has already been moderated")
	}

	review.Status = status
	review.AdminResponse = input.AdminResponse
	review.ModeratedAt = &now
	view := NewReviewView(review)
	return &view, nil
}

func (s *service) ListApproved(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	list, err := s.repo.ListByProduct(ctx, productID, enums.ReviewStatusApproved, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list reviews")
	}
	return list, nil
}

func (s *service) ListPending(ctx context.Context, params pagination.Params) (*ReviewList, error) {
	list, err := s.repo.ListByStatus(ctx, enums.ReviewStatusPending, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to list reviews")
	}
	return list, nil
}
