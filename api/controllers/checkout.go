package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/davemoreau/maplewood-commerce/api/responses"
	"github.com/davemoreau/maplewood-commerce/api/validators"
	checkoutsvc "github.com/davemoreau/maplewood-commerce/internal/checkout"
	pkgerrors "github.com/davemoreau/maplewood-commerce/pkg/errors"
	"github.com/davemoreau/maplewood-commerce/pkg/logger"
	"github.com/davemoreau/maplewood-commerce/pkg/types"
)

// Checkout submits the authenticated customer's cart. Field-level checks
// live in the service so the validation order stays in one place; the
// request struct only shapes the JSON.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), checkoutsvc.CheckoutInput{
			UserID:        userID,
			Items:         payload.Items,
			Shipping:      payload.Shipping,
			PaymentMethod: payload.PaymentMethod,
			SubtotalCents: payload.SubtotalCents,
			TaxCents:      payload.TaxCents,
			ShippingCents: payload.ShippingCents,
			DiscountCents: payload.DiscountCents,
			TotalCents:    payload.TotalCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderNumber: result.OrderNumber,
			ID:          result.OrderID,
			TotalAmount: result.TotalCents,
		})
	}
}

type checkoutRequest struct {
	Items         []checkoutsvc.CartItemInput `json:"items"`
	Shipping      types.ShippingInfo          `json:"shipping"`
	PaymentMethod string                      `json:"payment_method"`
	SubtotalCents int64                       `json:"subtotal_cents"`
	TaxCents      int64                       `json:"tax_cents"`
	ShippingCents int64                       `json:"shipping_cents"`
	DiscountCents int64                       `json:"discount_cents"`
	TotalCents    int64                       `json:"total_cents"`
}

type checkoutResponse struct {
	OrderNumber string    `json:"order_number"`
	ID          uuid.UUID `json:"id"`
	TotalAmount int64     `json:"total_amount"`
}
