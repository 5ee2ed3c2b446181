package idempotency

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/victusstore/backend/pkg/db/models"
)

// Repository manages persistence for idempotency records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindForUpdate(ctx context.Context, key, callerEmail, endpoint string) (*models.IdempotencyRecord, error)
	Create(ctx context.Context, record *models.IdempotencyRecord) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an idempotency repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindForUpdate loads the record under a row lock so concurrent replays of the
// same key serialize behind each other. Returns nil when no record exists.
func (r *repository) FindForUpdate(ctx context.Context, key, callerEmail, endpoint string) (*models.IdempotencyRecord, error) {
	record := &models.IdempotencyRecord{}
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("key = ? AND caller_email = ? AND endpoint = ?", key, callerEmail, endpoint).
		Take(record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) Create(ctx context.Context, record *models.IdempotencyRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// DeleteExpired removes every record whose expiry has passed and reports the count.
func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.IdempotencyRecord{})
	return result.RowsAffected, result.Error
}
