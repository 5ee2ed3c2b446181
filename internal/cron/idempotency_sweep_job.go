package cron

import (
	"context"
	"fmt"

	"github.com/victusstore/backend/pkg/logger"
)

// idempotencySweeper is the slice of the idempotency service used by the job.
type idempotencySweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// IdempotencySweepJob removes idempotency records past their expiry so keys
// become reusable and the table stays bounded.
type IdempotencySweepJob struct {
	sweeper idempotencySweeper
	logg    *logger.Logger
}

// NewIdempotencySweepJob wires the sweep job.
func NewIdempotencySweepJob(sweeper idempotencySweeper, logg *logger.Logger) (*IdempotencySweepJob, error) {
	if sweeper == nil {
		return nil, fmt.Errorf("idempotency sweeper required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &IdempotencySweepJob{sweeper: sweeper, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *IdempotencySweepJob) Name() string { return "idempotency_sweep" }

// Run deletes expired idempotency records.
func (j *IdempotencySweepJob) Run(ctx context.Context) error {
	removed, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("sweeping idempotency records: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "removed", removed), "idempotency sweep finished")
	return nil
}
