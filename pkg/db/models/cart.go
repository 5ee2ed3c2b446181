package models

import "time"

// Cart is the active shopping basket for an account. Checkout flips IsActive
// to false instead of deleting, so order history stays inspectable.
type Cart struct {
	ID        int64     `gorm:"column:cart_id;primaryKey;autoIncrement"`
	Email     string    `gorm:"column:email;size:255;not null;index"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Lines []CartLine `gorm:"foreignKey:CartID"`
}

func (Cart) TableName() string { return "carts" }
