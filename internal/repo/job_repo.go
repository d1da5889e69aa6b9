// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides helpers for the ScheduledJob singleton
// that records whether the deadline job has already completed.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-gift-exchange/internal/domain"
)

// ErrAlreadyRun is returned by MarkJobComplete when another run flipped the
// flag first. Callers must roll back their transaction.
var ErrAlreadyRun = errors.New("job already run")

// EnsureJob returns the job row for name, inserting it with HasRun=false and
// the given deadline when absent. An existing row is never modified.
func EnsureJob(ctx context.Context, db *gorm.DB, name string, deadline time.Time) (*domain.ScheduledJob, error) {
	now := time.Now().UTC()
	job := &domain.ScheduledJob{
		Name:      name,
		Deadline:  deadline.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(job).Error
	if err != nil {
		return nil, err
	}
	return GetJob(ctx, db, name)
}

// GetJob reads the job row for name, or ErrNotFound.
func GetJob(ctx context.Context, db *gorm.DB, name string) (*domain.ScheduledJob, error) {
	var job domain.ScheduledJob
	if err := db.WithContext(ctx).Where("name = ?", name).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// LockJob reads the job row inside tx, taking a row lock where the dialect
// supports one. SQLite serializes writers at the database level instead.
func LockJob(ctx context.Context, tx *gorm.DB, name string) (*domain.ScheduledJob, error) {
	q := tx.WithContext(ctx)
	if tx.Dialector.Name() == DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var job domain.ScheduledJob
	if err := q.Where("name = ?", name).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkJobComplete flips HasRun from false to true and stores the run summary.
// The conditional update makes the flip a compare-and-set: if the row was
// already complete, ErrAlreadyRun is returned and nothing changes.
func MarkJobComplete(ctx context.Context, tx *gorm.DB, name string, ranAt time.Time, participants int) error {
	res := tx.WithContext(ctx).
		Model(&domain.ScheduledJob{}).
		Where("name = ? AND has_run = ?", name, false).
		UpdateColumns(map[string]any{
			"has_run":           true,
			"ran_at":            ranAt,
			"participant_count": participants,
			"attempts":          gorm.Expr("attempts + 1"),
			"last_error":        "",
			"updated_at":        ranAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyRun
	}
	return nil
}

// RecordJobFailure notes a failed attempt. It never touches HasRun and is a
// no-op for a job that has already completed.
func RecordJobFailure(ctx context.Context, db *gorm.DB, name, reason string) error {
	return db.WithContext(ctx).
		Model(&domain.ScheduledJob{}).
		Where("name = ? AND has_run = ?", name, false).
		UpdateColumns(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
			"updated_at": time.Now().UTC(),
		}).Error
}
