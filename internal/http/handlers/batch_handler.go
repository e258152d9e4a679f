// Batch HTTP handlers.
//
// This file exposes REST endpoints for editing a batch session:
//   - POST   /batches                                       (create)
//   - GET    /batches/{id}                                  (state)
//   - DELETE /batches/{id}                                  (discard)
//   - PUT    /batches/{id}/event                            (set event id)
//   - POST   /batches/{id}/records                          (add record)
//   - DELETE /batches/{id}/records/{recordId}               (remove record)
//   - PUT    /batches/{id}/records/{index}/fields/{field}   (set field)
//   - POST   /batches/{id}/records/{index}/fields/{field}/blur (validate field)
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/batch"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/retry"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/services"
)

//
// DTOs
//

// CreateBatchRequest is the JSON payload for opening a batch.
type CreateBatchRequest struct {
	// EventID optionally preselects the event; it can be changed later.
	EventID string `json:"eventId" example:"EV12345"`
}

// SetEventIDRequest is the JSON payload for changing a batch's event.
type SetEventIDRequest struct {
	EventID string `json:"eventId" example:"EV12345"`
}

// SetFieldRequest is the JSON payload for updating one field value.
type SetFieldRequest struct {
	// Value is stored as typed; validation happens on blur or submit.
	Value *string `json:"value" binding:"required" example:"BC100001"`
}

//
// Error mapping
//

// batchError maps service and coordinator errors onto the error envelope.
func batchError(c *gin.Context, err error) {
	var verr *batch.ValidationError
	var rerr *retry.Error

	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
			RequestID: requestID(c),
			Code:      ErrCodeValidationFailed,
			Message:   batch.ErrValidationFailed.Error(),
			EventID:   verr.EventID,
			Records:   verr.Records,
		})
	case errors.Is(err, services.ErrBatchNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "batch not found")
	case errors.Is(err, batch.ErrRecordIndex):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, batch.ErrUnknownField):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, batch.ErrSubmitInProgress):
		fail(c, http.StatusConflict, ErrCodeSubmitInProgress, err.Error())
	case errors.Is(err, batch.ErrEmptyBatch), errors.Is(err, batch.ErrNothingToRetry):
		fail(c, http.StatusConflict, ErrCodeNothingToSubmit, err.Error())
	case errors.Is(err, batch.ErrRecordLocked):
		fail(c, http.StatusConflict, ErrCodeRecordLocked, err.Error())
	case errors.Is(err, batch.ErrBatchFull):
		fail(c, http.StatusConflict, ErrCodeBatchFull, err.Error())
	case errors.As(err, &rerr):
		upstreamError(c, rerr)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// upstreamError reports a terminal pass API failure by category.
func upstreamError(c *gin.Context, rerr *retry.Error) {
	msg := rerr.Message
	if msg == "" {
		msg = rerr.Error()
	}
	switch rerr.Category {
	case retry.CategoryAuth:
		fail(c, http.StatusUnauthorized, ErrCodeUpstreamAuth, msg)
	case retry.CategoryNetwork, retry.CategoryServer:
		if rerr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(rerr.RetryAfter.Seconds()+0.5)))
		}
		fail(c, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, msg)
	case retry.CategoryValidation:
		fail(c, http.StatusBadGateway, ErrCodeUpstreamRejected, msg)
	default:
		fail(c, http.StatusBadGateway, ErrCodeUpstreamError, msg)
	}
}

// recordIndex parses the :index path parameter.
func recordIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "record index must be a non-negative integer")
		return 0, false
	}
	return i, true
}

//
// Handlers
//

// CreateBatch godoc
// @ID          createBatch
// @Summary     Open a batch
// @Description Starts a batch session for the current user with one empty record.
// @Tags        Batches
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateBatchRequest  false  "Optional event id"
//
// @Success     201  {object}  batch.State
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /batches [post]
func (h *Handlers) CreateBatch(c *gin.Context) {
	var req CreateBatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}

	st, err := h.batchSvc.Create(c.Request.Context(), userID(c), strings.TrimSpace(req.EventID))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, st)
}

// GetBatch godoc
// @ID          getBatch
// @Summary     Get batch state
// @Tags        Batches
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Batch ID"
// @Success     200  {object}  batch.State
// @Failure     404  {object}  handlers.ErrorResponse  "Batch not found"
// @Router      /batches/{id} [get]
func (h *Handlers) GetBatch(c *gin.Context) {
	st, err := h.batchSvc.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		batchError(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// DiscardBatch godoc
// @ID          discardBatch
// @Summary     Discard a batch
// @Description Drops the batch session. Refused while a submission is in flight.
// @Tags        Batches
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Batch ID"
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Batch not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Submission in progress"
// @Router      /batches/{id} [delete]
func (h *Handlers) DiscardBatch(c *gin.Context) {
	if err := h.batchSvc.Discard(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		batchError(c, err)
		return
	}
	noContent(c)
}

// SetEventID godoc
// @ID          setEventId
// @Summary     Set the batch event
// @Description Stores the event id on the batch and every record. An invalid id is kept and reported in eventIdError.
// @Tags        Batches
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Batch ID"
// @Param       body       body    handlers.SetEventIDRequest  true  "Event id"
// @Success     200  {object}  batch.State
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Batch not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Submission in progress"
// @Router      /batches/{id}/event [put]
func (h *Handlers) SetEventID(c *gin.Context) {
	var req SetEventIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	st, err := h.batchSvc.SetEventID(c.Request.Context(), userID(c), c.Param("id"), strings.TrimSpace(req.EventID))
	if err != nil {
		batchError(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// AddRecord godoc
// @ID          addRecord
// @Summary     Add a record
// @Tags        Records
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Batch ID"
// @Success     201  {object}  batch.PassRecord
// @Failure     404  {object}  handlers.ErrorResponse  "Batch not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Batch is full"
// @Router      /batches/{id}/records [post]
func (h *Handlers) AddRecord(c *gin.Context) {
	rec, err := h.batchSvc.AddRecord(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		batchError(c, err)
		return
	}
	ok(c, http.StatusCreated, rec)
}

// RemoveRecord godoc
// @ID          removeRecord
// @Summary     Remove a record
// @Description Removing an unknown record id is a no-op.
// @Tags        Records
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Batch ID"
// @Param       recordId   path    string  true  "Record ID"
// @Success     204  {string}  string "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Batch not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Record is being submitted"
// @Router      /batches/{id}/records/{recordId} [delete]
func (h *Handlers) RemoveRecord(c *gin.Context) {
	if err := h.batchSvc.RemoveRecord(c.Request.Context(), userID(c), c.Param("id"), c.Param("recordId")); err != nil {
		batchError(c, err)
		return
	}
	noContent(c)
}

// SetField godoc
// @ID          setField
// @Summary     Set a field value
// @Description Updates the value and marks the field dirty. No validation runs.
// @Tags        Records
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Batch ID"
// @Param       index      path    int     true  "Record position"  minimum(0)
// @Param       field      path    string  true  "Field name"       Enums(accountId, barcode, customerName, spotType, lotId)
// @Param       body       body    handlers.SetFieldRequest  true  "New value"
// @Success     200  {object}  batch.PassRecord
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Batch or record not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Record already created"
// @Router      /batches/{id}/records/{index}/fields/{field} [put]
func (h *Handlers) SetField(c *gin.Context) {
	idx, valid := recordIndex(c)
	if !valid {
		return
	}
	var req SetFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Value == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value required")
		return
	}
	rec, err := h.batchSvc.SetField(c.Request.Context(), userID(c), c.Param("id"), idx, c.Param("field"), *req.Value)
	if err != nil {
		batchError(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// BlurField godoc
// @ID          blurField
// @Summary     Validate a field
// @Description Marks the field touched and validates it, including in-batch duplicate barcodes.
// @Tags        Records
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Batch ID"
// @Param       index      path    int     true  "Record position"  minimum(0)
// @Param       field      path    string  true  "Field name"
// @Success     200  {object}  batch.FieldState
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Batch or record not found"
// @Router      /batches/{id}/records/{index}/fields/{field}/blur [post]
func (h *Handlers) BlurField(c *gin.Context) {
	idx, valid := recordIndex(c)
	if !valid {
		return
	}
	f, err := h.batchSvc.BlurField(c.Request.Context(), userID(c), c.Param("id"), idx, c.Param("field"))
	if err != nil {
		batchError(c, err)
		return
	}
	ok(c, http.StatusOK, f)
}
