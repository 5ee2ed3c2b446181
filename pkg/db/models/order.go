package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/victusstore/backend/pkg/enums"
)

// Order is created atomically from a cart's lines. TotalPrice is fixed at
// creation from the lines' price snapshots and never re-derived.
type Order struct {
	ID            int64               `gorm:"column:order_id;primaryKey;autoIncrement"`
	Email         string              `gorm:"column:email;size:255;not null;index"`
	Address       string              `gorm:"column:address;type:text;not null"`
	PhoneNum      string              `gorm:"column:phone_num;size:15;not null"`
	TotalPrice    decimal.Decimal     `gorm:"column:total_price;type:numeric(10,2);not null"`
	OrderStatus   enums.OrderStatus   `gorm:"column:order_status;size:20;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;size:20;not null;default:'pending'"`
	PaymentMethod *string             `gorm:"column:payment_method;size:50"`
	OrderDate     time.Time           `gorm:"column:order_date;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Lines []CartLine `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }
