package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/davemoreau/maplewood-commerce/api/responses"
	internalorders "github.com/davemoreau/maplewood-commerce/internal/orders"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/logger"
	"github.com/davemoreau/maplewood-commerce/pkg/orderid"
)

// OrdersList pages through the authenticated customer's own orders.
func OrdersList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// OrderDetail returns the full order document, scoped to its owner.
func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderNumber, err := parseOrderNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetForUser(r.Context(), userID, orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func parseOrderNumber(r *http.Request) (string, error) {
	raw := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "orderNumber")))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	if !orderid.Valid(raw) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid order number").
			WithDetails(map[string]string{"order_number": raw})
	}
	return raw, nil
}
