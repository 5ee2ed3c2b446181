// Package idempotency stores one response per (key, caller, endpoint) so a
// retried request replays the original outcome instead of re-running it.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victusstore/backend/pkg/db"
	"github.com/victusstore/backend/pkg/db/models"
	pkgerrors "github.com/victusstore/backend/pkg/errors"
	"github.com/victusstore/backend/pkg/logger"
)

const defaultTTL = 24 * time.Hour

// Service coordinates lookup and storage of idempotency records.
type Service struct {
	db   *gorm.DB
	repo Repository
	ttl  time.Duration
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the idempotency service. A zero ttl falls back to 24h.
func NewService(conn *gorm.DB, repo Repository, ttl time.Duration, logg *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{db: conn, repo: repo, ttl: ttl, logg: logg, now: time.Now}
}

// HashRequest fingerprints a canonical request payload.
func HashRequest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Check looks up a stored response for (key, caller, endpoint) under a row
// lock. It returns nil when no live record exists. A live record whose request
// hash differs from requestHash means the key was reused for a different
// payload and yields a conflict. A stored body that is no longer valid JSON is
// never replayed.
func (s *Service) Check(ctx context.Context, key, callerEmail, endpoint, requestHash string) (json.RawMessage, error) {
	var response json.RawMessage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.repo.WithTx(tx).FindForUpdate(ctx, key, callerEmail, endpoint)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading idempotency record")
		}
		if record == nil {
			return nil
		}
		if !record.ExpiresAt.After(s.now()) {
			// An expired record is dead weight; drop it so the key is reusable now
			// instead of waiting for the sweep.
			if err := tx.Delete(&models.IdempotencyRecord{}, "id = ?", record.ID).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting expired idempotency record")
			}
			return nil
		}
		if record.RequestHash != requestHash {
			return pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request payload").
				WithDetails(map[string]any{"key": key})
		}
		if !json.Valid([]byte(record.ResponseBody)) {
			return pkgerrors.New(pkgerrors.CodeInternal, "stored idempotent response is unreadable")
		}
		response = json.RawMessage(record.ResponseBody)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// Store persists the response for future replays. Losing a race to another
// writer of the same key is not an error; the first stored response wins.
func (s *Service) Store(ctx context.Context, key, callerEmail, endpoint, requestHash string, response []byte) error {
	record := &models.IdempotencyRecord{
		ID:           uuid.New(),
		Key:          key,
		CallerEmail:  callerEmail,
		Endpoint:     endpoint,
		RequestHash:  requestHash,
		ResponseBody: string(response),
		ExpiresAt:    s.now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if db.IsUniqueViolation(err, "uq_idem_key_caller_endpoint") {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithCallerEmail(ctx, callerEmail), "idempotency record already stored by concurrent writer")
			}
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing idempotency record")
	}
	return nil
}

// SweepExpired deletes records past their expiry and reports how many were removed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sweeping expired idempotency records")
	}
	return removed, nil
}
