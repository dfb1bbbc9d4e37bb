package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

const (
	paymentReconcileMaxAge = time.Hour
	paymentReconcileLimit  = 100
)

type staleReconciler interface {
	ReconcileStale(ctx context.Context, updatedBefore time.Time, limit int) (int, error)
}

type PaymentReconcileJobParams struct {
	Logger   *logger.Logger
	Payments staleReconciler
	MaxAge   time.Duration
	Limit    int
}

// NewPaymentReconcileJob sweeps open payments whose webhooks never arrived
// and re-reads their intents from the gateway.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = paymentReconcileMaxAge
	}
	limit := params.Limit
	if limit <= 0 {
		limit = paymentReconcileLimit
	}
	return &paymentReconcileJob{
		logg:     params.Logger,
		payments: params.Payments,
		maxAge:   maxAge,
		limit:    limit,
		now:      time.Now,
	}, nil
}

type paymentReconcileJob struct {
	logg     *logger.Logger
	payments staleReconciler
	maxAge   time.Duration
	limit    int
	now      func() time.Time
}

func (j *paymentReconcileJob) Name() string { return "payment-reconcile" }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	reconciled, err := j.payments.ReconcileStale(ctx, cutoff, j.limit)
	if err != nil {
		return fmt.Errorf("payment reconcile sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"limit":      j.limit,
		"reconciled": reconciled,
	})
	j.logg.Info(logCtx, "payment reconcile sweep complete")
	return nil
}
