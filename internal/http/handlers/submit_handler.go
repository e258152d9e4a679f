// Submission HTTP handlers.
//
// This file exposes the endpoints that talk to the pass API:
//   - POST /batches/{id}/submit   (submit pending records)
//   - POST /batches/{id}/retry    (resubmit failed records)
//   - GET  /batches/{id}/runs     (submission history)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a run was already
// recorded for (user, batch, key), the stored result is returned with
// `Idempotency-Replayed: true` and the pass API is not called.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/http/middleware"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/services"
)

// SubmitRequest is the optional JSON payload of a submit.
type SubmitRequest struct {
	// ExistingBarcodes are barcodes the caller knows to be taken already.
	ExistingBarcodes []string `json:"existingBarcodes" example:"BC100001"`
}

// RetryRequest is the optional JSON payload of a retry.
type RetryRequest struct {
	// RecordIDs limits the retry to these failed records; empty means all.
	RecordIDs        []string `json:"recordIds"`
	ExistingBarcodes []string `json:"existingBarcodes"`
}

// ListRunsResponse wraps the submission history of a batch.
type ListRunsResponse struct {
	Runs []domain.BatchRun `json:"runs"`
}

func writeSubmitResult(c *gin.Context, out *services.SubmitResult) {
	if out.Replayed {
		c.Header("Idempotency-Replayed", "true")
	}
	ok(c, http.StatusOK, out)
}

// SubmitBatch godoc
// @ID          submitBatch
// @Summary     Submit a batch
// @Description Validates every pending record and sends them in one call. Local validation failures return 422 without calling the pass API. Partial success is a 200.
// @Tags        Submission
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Replays a previous run with the same key"
// @Param       id               path    string  true  "Batch ID"
// @Param       body             body    handlers.SubmitRequest  false  "Known existing barcodes"
//
// @Success     200  {object}  services.SubmitResult
// @Header      200  {string}  Idempotency-Replayed  "true when served from a stored run"
// @Failure     400  {object}  handlers.ErrorResponse            "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse            "Pass API rejected credentials"
// @Failure     404  {object}  handlers.ErrorResponse            "Batch not found"
// @Failure     409  {object}  handlers.ErrorResponse            "Submission in progress or nothing to submit"
// @Failure     422  {object}  handlers.ValidationErrorResponse  "Local validation failed"
// @Failure     502  {object}  handlers.ErrorResponse            "Pass API error"
// @Failure     503  {object}  handlers.ErrorResponse            "Pass API unavailable"
// @Router      /batches/{id}/submit [post]
func (h *Handlers) SubmitBatch(c *gin.Context) {
	var req SubmitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	key, _ := middleware.GetIdempotencyKey(c)

	out, err := h.batchSvc.Submit(c.Request.Context(), userID(c), c.Param("id"), key, req.ExistingBarcodes)
	if err != nil {
		batchError(c, err)
		return
	}
	writeSubmitResult(c, out)
}

// RetryBatch godoc
// @ID          retryBatch
// @Summary     Retry failed records
// @Description Resubmits failed records (or the listed ones) and returns the result merged with the previous run.
// @Tags        Submission
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Replays a previous run with the same key"
// @Param       id               path    string  true  "Batch ID"
// @Param       body             body    handlers.RetryRequest  false  "Records to retry"
// @Success     200  {object}  services.SubmitResult
// @Failure     404  {object}  handlers.ErrorResponse            "Batch not found"
// @Failure     409  {object}  handlers.ErrorResponse            "Nothing to retry"
// @Failure     422  {object}  handlers.ValidationErrorResponse  "Local validation failed"
// @Failure     503  {object}  handlers.ErrorResponse            "Pass API unavailable"
// @Router      /batches/{id}/retry [post]
func (h *Handlers) RetryBatch(c *gin.Context) {
	var req RetryRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	key, _ := middleware.GetIdempotencyKey(c)

	out, err := h.batchSvc.Retry(c.Request.Context(), userID(c), c.Param("id"), key, req.RecordIDs, req.ExistingBarcodes)
	if err != nil {
		batchError(c, err)
		return
	}
	writeSubmitResult(c, out)
}

// ListRuns godoc
// @ID          listRuns
// @Summary     Submission history
// @Tags        Submission
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Batch ID"
// @Success     200  {object}  handlers.ListRunsResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Batch not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /batches/{id}/runs [get]
func (h *Handlers) ListRuns(c *gin.Context) {
	runs, err := h.batchSvc.Runs(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		batchError(c, err)
		return
	}
	if runs == nil {
		runs = []domain.BatchRun{}
	}
	ok(c, http.StatusOK, ListRunsResponse{Runs: runs})
}
