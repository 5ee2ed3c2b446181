package models

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord deduplicates retried state-changing requests. At most one
// record exists per (key, caller, endpoint); the unique index backs the
// locking read that serializes replays.
type IdempotencyRecord struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Key          string    `gorm:"column:key;size:255;not null;uniqueIndex:uq_idem_key_caller_endpoint"`
	CallerEmail  string    `gorm:"column:caller_email;size:255;not null;uniqueIndex:uq_idem_key_caller_endpoint"`
	Endpoint     string    `gorm:"column:endpoint;size:255;not null;uniqueIndex:uq_idem_key_caller_endpoint"`
	RequestHash  string    `gorm:"column:request_hash;size:64"`
	ResponseBody string    `gorm:"column:response_body;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null;index"`
}

func (IdempotencyRecord) TableName() string { return "idempotency_keys" }
