package models

import "time"

// Account is the customer identity record. Account management is owned by the
// accounts service; checkout only reads it to default the shipping phone.
type Account struct {
	Email     string    `gorm:"column:email;primaryKey;size:255"`
	FirstName *string   `gorm:"column:first_name;size:255"`
	LastName  *string   `gorm:"column:last_name;size:255"`
	PhoneNum  *string   `gorm:"column:phone_num;size:15"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName maps the model onto the accounts table.
func (Account) TableName() string { return "accounts" }
