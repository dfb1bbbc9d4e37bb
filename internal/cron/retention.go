package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ahtisham774/spectech-backend/pkg/logger"
)

// txRunner runs a function inside one database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// retentionJob deletes rows older than a configured number of days.
// The sweep callback owns the table-specific delete; everything else
// (cutoff math, transaction, logging) is shared.
type retentionJob struct {
	name   string
	logg   *logger.Logger
	db     txRunner
	days   int
	fields map[string]any
	sweep  func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
	now    func() time.Time
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().AddDate(0, 0, -j.days)

	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.sweep(ctx, tx, cutoff)
		if err != nil {
			return err
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}

	logFields := map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	}
	for k, v := range j.fields {
		logFields[k] = v
	}
	j.logg.Info(j.logg.WithFields(ctx, logFields), "retention sweep complete")
	return nil
}
