// Package services – PassService
//
// PassService exposes the pass ledger read side: paginated listings of the
// passes created for an event and the aggregate used for ETags.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/repo"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/validation"
)

// PassRepo defines the repository contract required by PassService.
type PassRepo interface {
	CountPasses(ctx context.Context, db *gorm.DB, eventID string) (int64, error)
	ListPassesPage(ctx context.Context, db *gorm.DB, eventID string, offset, limit int) ([]domain.Pass, error)
	PassesStats(ctx context.Context, db *gorm.DB, eventID string) (int64, *time.Time, error)
}

// gormPassRepo binds PassRepo to the repo package functions.
type gormPassRepo struct{}

func (gormPassRepo) CountPasses(ctx context.Context, db *gorm.DB, eventID string) (int64, error) {
	return repo.CountPasses(ctx, db, eventID)
}

func (gormPassRepo) ListPassesPage(ctx context.Context, db *gorm.DB, eventID string, offset, limit int) ([]domain.Pass, error) {
	return repo.ListPassesPage(ctx, db, eventID, offset, limit)
}

func (gormPassRepo) PassesStats(ctx context.Context, db *gorm.DB, eventID string) (int64, *time.Time, error) {
	return repo.PassesStats(ctx, db, eventID)
}

// PassService reads the pass ledger.
type PassService struct {
	DB   *gorm.DB
	Repo PassRepo
}

// NewPassService constructs a PassService. A nil repo uses the GORM-backed one.
func NewPassService(db *gorm.DB, r PassRepo) *PassService {
	if r == nil {
		r = gormPassRepo{}
	}
	return &PassService{DB: db, Repo: r}
}

// ListPage returns a page of passes for eventID and the total count.
// It applies defaults for invalid page/pageSize.
func (s *PassService) ListPage(ctx context.Context, eventID string, page, pageSize int) ([]domain.Pass, int64, error) {
	if res := validation.ValidateEventID(eventID); !res.Valid {
		return nil, 0, ErrInvalidEventID
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountPasses(ctx, s.DB, eventID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Pass{}, 0, nil
	}

	items, err := s.Repo.ListPassesPage(ctx, s.DB, eventID, offset, pageSize)
	return items, total, err
}

// Stats returns the ledger size and latest creation time for eventID.
func (s *PassService) Stats(ctx context.Context, eventID string) (int64, *time.Time, error) {
	return s.Repo.PassesStats(ctx, s.DB, eventID)
}
