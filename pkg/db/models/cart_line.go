package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine snapshots one variant in a cart. PriceAtTime is captured when the
// line is added and never recomputed; order totals derive from it, not from
// the live variant price. OrderID is set in place once checkout succeeds.
type CartLine struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CartID      int64           `gorm:"column:cart_id;not null;uniqueIndex:uq_cart_variant"`
	VariantID   int64           `gorm:"column:variant_id;not null;uniqueIndex:uq_cart_variant"`
	OrderID     *int64          `gorm:"column:order_id;index"`
	Quantity    int             `gorm:"column:quantity;not null"`
	PriceAtTime decimal.Decimal `gorm:"column:price_at_time;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`

	Variant *ProductVariant `gorm:"foreignKey:VariantID"`
}

func (CartLine) TableName() string { return "cart_lines" }
