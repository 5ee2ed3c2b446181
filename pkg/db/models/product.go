package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry a variant belongs to. Catalog CRUD is out of
// checkout's hands; the orchestrator only reads names for line confirmations.
type Product struct {
	ID          int64           `gorm:"column:product_id;primaryKey;autoIncrement"`
	ProductName string          `gorm:"column:product_name;size:255;not null"`
	Description *string         `gorm:"column:description;type:text"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:numeric(10,2);not null"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
