package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	product "github.com/davemoreau/maplewood-commerce/internal/products"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/pagination"
)

type stubProductsService struct {
	list *product.ProductList
	view *product.ProductView
	err  error

	lastFilters product.ListFilters
	lastParams  pagination.Params
	lastSlug    string
}

func (s *stubProductsService) List(_ context.Context, params pagination.Params, filters product.ListFilters) (*product.ProductList, error) {
	s.lastParams = params
	s.lastFilters = filters
	return s.list, s.err
}

func (s *stubProductsService) GetBySlug(_ context.Context, slug string) (*product.ProductView, error) {
	s.lastSlug = slug
	return s.view, s.err
}

func TestProductsList(t *testing.T) {
	t.Run("forwards text and price filters", func(t *testing.T) {
		svc := &stubProductsService{list: &product.ProductList{Products: []product.ProductView{}}}
		handler := ProductsList(svc, controllerTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products?q=maple+desk&price_min_cents=500&price_max_cents=5000&limit=10", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "maple desk", svc.lastFilters.Query)
		require.NotNil(t, svc.lastFilters.PriceMinCents)
		assert.Equal(t, int64(500), *svc.lastFilters.PriceMinCents)
		require.NotNil(t, svc.lastFilters.PriceMaxCents)
		assert.Equal(t, int64(5000), *svc.lastFilters.PriceMaxCents)
		assert.Equal(t, 10, svc.lastParams.Limit)
	})

	t.Run("leaves absent price bounds nil", func(t *testing.T) {
		svc := &stubProductsService{list: &product.ProductList{}}
		handler := ProductsList(svc, controllerTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, svc.lastFilters.PriceMinCents)
		assert.Nil(t, svc.lastFilters.PriceMaxCents)
	})

	t.Run("rejects a price bound that is not a number", func(t *testing.T) {
		svc := &stubProductsService{}
		handler := ProductsList(svc, controllerTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products?price_min_cents=cheap", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProductDetail(t *testing.T) {
	t.Run("looks up the product by slug", func(t *testing.T) {
		svc := &stubProductsService{view: &product.ProductView{Slug: "maple-desk"}}
		handler := ProductDetail(svc, controllerTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/maple-desk", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("slug", "maple-desk")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "maple-desk", svc.lastSlug)
	})

	t.Run("maps an unknown slug to 404", func(t *testing.T) {
		svc := &stubProductsService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
		handler := ProductDetail(svc, controllerTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/vanished", nil)
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("slug", "vanished")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
