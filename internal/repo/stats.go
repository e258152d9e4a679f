// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
)

// PassesStats returns the number of ledger rows for an event and the latest
// CreatedAt among them. Passes are append-only, so the pair changes exactly
// when the listing does. With no rows the count is 0 and latest is nil.
func PassesStats(ctx context.Context, db *gorm.DB, eventID string) (count int64, latest *time.Time, err error) {
	return latestStats(db.WithContext(ctx).Model(&domain.Pass{}).Where("event_id = ?", eventID))
}

// RunsStats returns the number of runs recorded for a batch and the latest
// CreatedAt among them.
func RunsStats(ctx context.Context, db *gorm.DB, batchID string) (count int64, latest *time.Time, err error) {
	return latestStats(db.WithContext(ctx).Model(&domain.BatchRun{}).Where("batch_id = ?", batchID))
}

func latestStats(q *gorm.DB) (count int64, latest *time.Time, err error) {
	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Order+Limit instead of MAX(): SQLite returns MAX(datetime) as TEXT.
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
