// Package handlers provides HTTP handler implementations for the public API.
//
// This file declares the service contracts the handlers depend on, the
// Handlers type that groups the endpoints, and small request helpers shared by
// the batch, ledger and validation endpoints.
package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/batch"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/services"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/utils"
)

//
// Service contracts (context-aware)
//

// BatchService defines the batch session operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type BatchService interface {
	Create(ctx context.Context, userID, eventID string) (batch.State, error)
	Get(ctx context.Context, userID, id string) (batch.State, error)
	Discard(ctx context.Context, userID, id string) error
	SetEventID(ctx context.Context, userID, id, eventID string) (batch.State, error)
	AddRecord(ctx context.Context, userID, id string) (batch.PassRecord, error)
	RemoveRecord(ctx context.Context, userID, id, recordID string) error
	SetField(ctx context.Context, userID, id string, index int, field, value string) (batch.PassRecord, error)
	BlurField(ctx context.Context, userID, id string, index int, field string) (batch.FieldState, error)
	// Submit sends pending records; a known idemKey replays the stored run.
	Submit(ctx context.Context, userID, id, idemKey string, existing []string) (*services.SubmitResult, error)
	// Retry resubmits failed records and returns the merged result.
	Retry(ctx context.Context, userID, id, idemKey string, recordIDs, existing []string) (*services.SubmitResult, error)
	Runs(ctx context.Context, userID, id string) ([]domain.BatchRun, error)
}

// PassService reads the ledger of created passes.
type PassService interface {
	ListPage(ctx context.Context, eventID string, page, pageSize int) ([]domain.Pass, int64, error)
	Stats(ctx context.Context, eventID string) (int64, *time.Time, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for batches, the pass ledger and field
// validation.
type Handlers struct {
	batchSvc BatchService
	passSvc  PassService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(batchSvc BatchService, passSvc PassService) *Handlers {
	return &Handlers{batchSvc: batchSvc, passSvc: passSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = max(utils.AtoiDefault(c.Query("page"), defaultPage), 1)
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}
