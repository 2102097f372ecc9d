package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davemoreau/maplewood-commerce/api/middleware"
	"github.com/davemoreau/maplewood-commerce/internal/reviews"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/pagination"
)

type stubReviewsService struct {
	view *reviews.ReviewView
	list *reviews.ReviewList
	err  error

	lastCreate   reviews.CreateReviewInput
	lastModerate reviews.ModerateInput
}

func (s *stubReviewsService) Create(_ context.Context, input reviews.CreateReviewInput) (*reviews.ReviewView, error) {
	s.lastCreate = input
	return s.view, s.err
}

func (s *stubReviewsService) Moderate(_ context.Context, input reviews.ModerateInput) (*reviews.ReviewView, error) {
	s.lastModerate = input
	return s.view, s.err
}

func (s *stubReviewsService) ListApproved(_ context.Context, _ uuid.UUID, _ pagination.Params) (*reviews.ReviewList, error) {
	return s.list, s.err
}

func (s *stubReviewsService) ListPending(_ context.Context, _ pagination.Params) (*reviews.ReviewList, error) {
	return s.list, s.err
}

func reviewCreateRequest(productID, body string, userID *uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+productID+"/reviews", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", productID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	if userID != nil {
		ctx = middleware.WithUserID(ctx, userID.String())
	}
	return req.WithContext(ctx)
}

func TestReviewCreate(t *testing.T) {
	productID := uuid.New()

	t.Run("submits a pending review", func(t *testing.T) {
		userID := uuid.New()
		svc := &stubReviewsService{view: &reviews.ReviewView{Status: enums.ReviewStatusPending}}
		handler := ReviewCreate(svc, controllerTestLogger())

		body := `{"rating":4,"title":"  Solid desk ","body":"Sturdy and easy to assemble."}`
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, reviewCreateRequest(productID.String(), body, &userID))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, productID, svc.lastCreate.ProductID)
		assert.Equal(t, userID, svc.lastCreate.UserID)
		assert.Equal(t, 4, svc.lastCreate.Rating)
		assert.Equal(t, "Solid desk", svc.lastCreate.Title)
	})

	t.Run("rejects a rating outside 1..5", func(t *testing.T) {
		userID := uuid.New()
		svc := &stubReviewsService{}
		handler := ReviewCreate(svc, controllerTestLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, reviewCreateRequest(productID.String(), `{"rating":6,"body":"too good"}`, &userID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, svc.lastCreate.Rating)
	})

	t.Run("requires an authenticated customer", func(t *testing.T) {
		svc := &stubReviewsService{}
		handler := ReviewCreate(svc, controllerTestLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, reviewCreateRequest(productID.String(), `{"rating":4,"body":"fine"}`, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a malformed product id", func(t *testing.T) {
		userID := uuid.New()
		svc := &stubReviewsService{}
		handler := ReviewCreate(svc, controllerTestLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, reviewCreateRequest("not-a-uuid", `{"rating":4,"body":"fine"}`, &userID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminReviewModerate(t *testing.T) {
	moderateRequest := func(reviewID, body string, userID uuid.UUID) *http.Request {
		req := httptest.NewRequest(http.MethodPatch, "/api/admin/v1/reviews/"+reviewID+"/moderate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("reviewId", reviewID)
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
		ctx = middleware.WithUserID(ctx, userID.String())
		ctx = middleware.WithRole(ctx, string(enums.RoleAdmin))
		return req.WithContext(ctx)
	}

	t.Run("approves a review with an admin response", func(t *testing.T) {
		reviewID := uuid.New()
		svc := &stubReviewsService{view: &reviews.ReviewView{ID: reviewID, Status: enums.ReviewStatusApproved}}
		handler := AdminReviewModerate(svc, controllerTestLogger())

		body := `{"status":"approved","admin_response":"Thanks for the feedback!"}`
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, moderateRequest(reviewID.String(), body, uuid.New()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, reviewID, svc.lastModerate.ReviewID)
		assert.Equal(t, "approved", svc.lastModerate.Status)
		require.NotNil(t, svc.lastModerate.AdminResponse)
		assert.Equal(t, "Thanks for the feedback!", *svc.lastModerate.AdminResponse)
	})

	t.Run("rejects a malformed review id", func(t *testing.T) {
		svc := &stubReviewsService{}
		handler := AdminReviewModerate(svc, controllerTestLogger())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, moderateRequest("nope", `{"status":"approved"}`, uuid.New()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, uuid.Nil, svc.lastModerate.ReviewID)
	})
}
