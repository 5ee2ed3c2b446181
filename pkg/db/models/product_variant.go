package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductVariant is the purchasable unit carrying the authoritative stock count.
// StockQuantity is mutated only under a row lock held by the stock ledger;
// it must never go negative.
type ProductVariant struct {
	ID            int64           `gorm:"column:variant_id;primaryKey;autoIncrement"`
	ProductID     int64           `gorm:"column:product_id;not null;index"`
	Color         string          `gorm:"column:color;size:50;not null"`
	Size          string          `gorm:"column:size;size:50;not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	SKU           *string         `gorm:"column:sku;size:50;uniqueIndex"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

func (ProductVariant) TableName() string { return "product_variants" }
