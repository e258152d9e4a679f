// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the pass
// ledger: the passes the upstream API confirmed as created.
//
// All functions are context-aware and accept a *gorm.DB handle, so they can
// run inside a transaction opened by the service layer.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePasses inserts ledger rows. A row whose (event_id, barcode) pair is
// already present is skipped, so replaying the same run is harmless.
// It returns the number of rows actually inserted.
func CreatePasses(ctx context.Context, db *gorm.DB, passes []domain.Pass) (int64, error) {
	if len(passes) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "barcode"}},
			DoNothing: true,
		}).
		Create(&passes)
	return res.RowsAffected, res.Error
}

// ListBarcodes returns every barcode already recorded for eventID.
// A blank eventID yields no barcodes.
func ListBarcodes(ctx context.Context, db *gorm.DB, eventID string) ([]string, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, nil
	}
	var out []string
	err := db.WithContext(ctx).
		Model(&domain.Pass{}).
		Where("event_id = ?", eventID).
		Order("barcode ASC").
		Pluck("barcode", &out).Error
	return out, err
}

// CountPasses returns the number of ledger rows for eventID.
func CountPasses(ctx context.Context, db *gorm.DB, eventID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Pass{}).
		Where("event_id = ?", eventID).
		Count(&total).Error
	return total, err
}

// ListPassesPage returns a page of passes for eventID ordered by creation
// time, then barcode. The caller computes offset and limit.
func ListPassesPage(ctx context.Context, db *gorm.DB, eventID string, offset, limit int) ([]domain.Pass, error) {
	var out []domain.Pass
	err := db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC, barcode ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
