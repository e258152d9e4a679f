// Response helpers shared by the batch, ledger and validation endpoints.
//
// Every failure is written as an ErrorResponse (or ValidationErrorResponse
// for a submit blocked by local checks) carrying the request id, a stable
// code from errors.go and a message that is safe to show next to the batch
// form. Server-side failures, including terminal pass API outages, are logged
// with the request-scoped logger.
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "submit_in_progress",
//	  "message": "batch submission already in progress"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"not_found"`
	// Safe to show to users
	Message string `json:"message" example:"batch not found"`
}

// ValidationErrorResponse is returned with 422 when a submit is blocked by
// local validation. Records maps record id to field name to message.
type ValidationErrorResponse struct {
	RequestID string                       `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Code      string                       `json:"code" example:"validation_failed"`
	Message   string                       `json:"message" example:"batch validation failed"`
	EventID   string                       `json:"event_id,omitempty" example:"Event ID must be exactly 7 characters"`
	Records   map[string]map[string]string `json:"records,omitempty"`
}

func requestID(c *gin.Context) string {
	return c.Writer.Header().Get("X-Request-ID")
}

// fail aborts the request with an ErrorResponse. Statuses >= 500 are logged
// at error level together with the batch id when the route has one.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg)
		if id := c.Param("id"); id != "" {
			ev = ev.Str("batch_id", id)
		}
		ev.Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: requestID(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
