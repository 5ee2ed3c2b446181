package orders

import (
	"time"
)

// OrderItem is one purchased line as presented to clients.
type OrderItem struct {
	VariantID   int64  `json:"variant_id"`
	ProductName string `json:"product_name"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Quantity    int    `json:"quantity"`
	PriceAtTime string `json:"price_at_time"`
}

// OrderResponse is the read model for order endpoints.
type OrderResponse struct {
	OrderID       int64       `json:"order_id"`
	Email         string      `json:"email"`
	Address       string      `json:"address"`
	PhoneNum      string      `json:"phone_num"`
	TotalPrice    string      `json:"total_price"`
	OrderStatus   string      `json:"order_status"`
	PaymentStatus string      `json:"payment_status"`
	PaymentMethod *string     `json:"payment_method,omitempty"`
	OrderDate     time.Time   `json:"order_date"`
	Items         []OrderItem `json:"items"`
}
