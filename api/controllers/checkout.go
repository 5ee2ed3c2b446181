package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/victusstore/backend/api/responses"
	"github.com/victusstore/backend/api/validators"
	checkoutsvc "github.com/victusstore/backend/internal/checkout"
	pkgerrors "github.com/victusstore/backend/pkg/errors"
	"github.com/victusstore/backend/pkg/logger"
)

const idempotencyKeyHeader = "Idempotency-Key"

type checkoutRequest struct {
	Address       string  `json:"address" validate:"required,min=1,max=500"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,max=15"`
	PaymentMethod *string `json:"payment_method,omitempty" validate:"omitempty,max=50"`
	OrderStatus   *string `json:"order_status,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
	ClearCart     *bool   `json:"clear_cart,omitempty"`
}

// Checkout converts the cart into an order. Replays answered from the
// idempotency store return 200; a fresh order returns 201.
func Checkout(service checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cartID, err := strconv.ParseInt(chi.URLParam(r, "cartId"), 10, 64)
		if err != nil || cartID <= 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart id must be a positive integer"))
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := checkoutsvc.Input{
			IdempotencyKey: validators.SanitizeString(r.Header.Get(idempotencyKeyHeader), 255),
			Address:        body.Address,
			Phone:          body.Phone,
			PaymentMethod:  body.PaymentMethod,
			OrderStatus:    body.OrderStatus,
			PaymentStatus:  body.PaymentStatus,
			ClearCart:      body.ClearCart,
		}

		payload, replayed, err := service.Execute(ctx, cartID, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}
