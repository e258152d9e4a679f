// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for BatchRun.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
)

// CreateRun inserts a run. ID and CreatedAt are filled in when empty.
func CreateRun(ctx context.Context, db *gorm.DB, run *domain.BatchRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(run).Error
}

// GetRun fetches a run by ID scoped to its batch, or ErrNotFound.
func GetRun(ctx context.Context, db *gorm.DB, batchID, id string) (*domain.BatchRun, error) {
	var r domain.BatchRun
	err := db.WithContext(ctx).
		Where("id = ? AND batch_id = ?", id, batchID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRuns returns the runs of a batch, oldest first.
func ListRuns(ctx context.Context, db *gorm.DB, batchID string) ([]domain.BatchRun, error) {
	var out []domain.BatchRun
	err := db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
