package checkout

import (
	"encoding/json"

	"github.com/victusstore/backend/internal/orders"
)

// Input captures the checkout request for one cart.
type Input struct {
	IdempotencyKey string
	Address        string
	Phone          *string
	PaymentMethod  *string
	OrderStatus    *string
	PaymentStatus  *string
	ClearCart      *bool
}

// canonicalPayload is the stable JSON form hashed for idempotency comparison.
// Field order is fixed by the struct; the idempotency key itself is excluded.
type canonicalPayload struct {
	Address       string  `json:"address"`
	Phone         *string `json:"phone,omitempty"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	OrderStatus   *string `json:"order_status,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
	ClearCart     *bool   `json:"clear_cart,omitempty"`
}

func (in Input) canonicalJSON() []byte {
	payload, _ := json.Marshal(canonicalPayload{
		Address:       in.Address,
		Phone:         in.Phone,
		PaymentMethod: in.PaymentMethod,
		OrderStatus:   in.OrderStatus,
		PaymentStatus: in.PaymentStatus,
		ClearCart:     in.ClearCart,
	})
	return payload
}

// clearCart reports the cart deactivation choice; defaults to true.
func (in Input) clearCart() bool {
	if in.ClearCart == nil {
		return true
	}
	return *in.ClearCart
}

// Response is the payload returned for a completed (or replayed) checkout.
type Response struct {
	OrderID       int64              `json:"order_id"`
	TotalPrice    string             `json:"total_price"`
	OrderStatus   string             `json:"order_status"`
	PaymentStatus string             `json:"payment_status"`
	OrderItems    []orders.OrderItem `json:"order_items"`
}
