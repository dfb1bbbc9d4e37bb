package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

type fakeStaleReconciler struct {
	lastCutoff time.Time
	lastLimit  int
	reconciled int
	err        error
	called     int
}

func (f *fakeStaleReconciler) ReconcileStale(ctx context.Context, updatedBefore time.Time, limit int) (int, error) {
	f.called++
	f.lastCutoff = updatedBefore
	f.lastLimit = limit
	if f.err != nil {
		return 0, f.err
	}
	return f.reconciled, nil
}

func TestPaymentReconcileJobSweepsWithCutoff(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	payments := &fakeStaleReconciler{reconciled: 3}
	jobIface, err := NewPaymentReconcileJob(PaymentReconcileJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: payments,
	})
	if err != nil {
		t.Fatalf("NewPaymentReconcileJob: %v", err)
	}
	job := jobIface.(*paymentReconcileJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-paymentReconcileMaxAge)
	if !payments.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, payments.lastCutoff)
	}
	if payments.lastLimit != paymentReconcileLimit {
		t.Fatalf("expected limit %d, got %d", paymentReconcileLimit, payments.lastLimit)
	}
	if payments.called != 1 {
		t.Fatalf("expected one sweep, got %d", payments.called)
	}
}

func TestPaymentReconcileJobPropagatesError(t *testing.T) {
	payments := &fakeStaleReconciler{err: errors.New("gateway down")}
	jobIface, err := NewPaymentReconcileJob(PaymentReconcileJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: payments,
	})
	if err != nil {
		t.Fatalf("NewPaymentReconcileJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
