package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/davemoreau/maplewood-commerce/api/middleware"
	"github.com/davemoreau/maplewood-commerce/api/responses"
	"github.com/davemoreau/maplewood-commerce/api/validators"
	internalorders "github.com/davemoreau/maplewood-commerce/internal/orders"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/logger"
)

// AdminOrdersList pages through all orders, optionally filtered by status.
// The list shape is stable so admin dashboards can poll it.
func AdminOrdersList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters internalorders.AdminOrderFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
					WithDetails(map[string]string{"status": raw}))
				return
			}
			filters.Status = &status
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminOrderDetail returns the full order document for the admin view.
func AdminOrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderNumber, err := parseOrderNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), orderNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

type statusUpdateRequest struct {
	Status              string     `json:"status" validate:"required"`
	Description         string     `json:"description,omitempty" validate:"max=500"`
	Location            string     `json:"location,omitempty" validate:"max=200"`
	Carrier             string     `json:"carrier,omitempty" validate:"max=100"`
	TrackingNumber      string     `json:"tracking_number,omitempty" validate:"max=100"`
	EstimatedDeliveryAt *time.Time `json:"estimated_delivery_at,omitempty"`
}

// AdminOrderStatusUpdate applies one status transition and echoes the
// settled state so the dashboard reconciles without a second fetch.
func AdminOrderStatusUpdate(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		actorID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderNumber, err := parseOrderNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateStatus(r.Context(), internalorders.StatusUpdateInput{
			OrderNumber:         orderNumber,
			Status:              strings.TrimSpace(payload.Status),
			Description:         strings.TrimSpace(payload.Description),
			Location:            strings.TrimSpace(payload.Location),
			Carrier:             strings.TrimSpace(payload.Carrier),
			TrackingNumber:      strings.TrimSpace(payload.TrackingNumber),
			EstimatedDeliveryAt: payload.EstimatedDeliveryAt,
			ActorUserID:         actorID,
			ActorRole:           middleware.RoleFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
