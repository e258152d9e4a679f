// Ledger and validation HTTP handlers.
//
//   - GET  /events/{eventId}/passes  (created passes, paginated, ETag support)
//   - GET  /validation/rules         (field rule catalogue)
//   - POST /validation/field         (validate one value)
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/services"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/validation"
)

// ListPassesResponse wraps a page of ledger rows and pagination information.
type ListPassesResponse struct {
	Passes     []domain.Pass `json:"passes"`
	Pagination Pagination    `json:"pagination"`
}

// ValidateFieldRequest asks for one value to be checked against a field rule.
type ValidateFieldRequest struct {
	Field string `json:"field" binding:"required" example:"barcode"`
	Value string `json:"value" example:"BC100001"`
}

// ListPasses godoc
// @ID          listPasses
// @Summary     List created passes for an event
// @Description Returns a page of the pass ledger. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Passes
// @Produce     json
//
// @Param       eventId        path    string  true  "Event ID"                    example(EV12345)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListPassesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid event id"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /events/{eventId}/passes [get]
func (h *Handlers) ListPasses(c *gin.Context) {
	ctx := c.Request.Context()
	eventID := c.Param("eventId")
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, latest, err := h.passSvc.Stats(ctx, eventID); err == nil {
		var ts int64
		if latest != nil {
			ts = latest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"passes:%s:%d:%d:%d:%d"`, eventID, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.passSvc.ListPage(ctx, eventID, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEventID) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListPassesResponse{Passes: items, Pagination: newPagination(page, pageSize, total)})
}

// ValidationRules godoc
// @ID          validationRules
// @Summary     Field rule catalogue
// @Description Lists every field rule so a form can mirror server-side constraints.
// @Tags        Validation
// @Produce     json
// @Success     200  {array}  validation.RuleInfo
// @Router      /validation/rules [get]
func (h *Handlers) ValidationRules(c *gin.Context) {
	ok(c, http.StatusOK, validation.Catalogue())
}

// ValidateField godoc
// @ID          validateField
// @Summary     Validate one field value
// @Description Runs the field rule for a single value. Unknown fields are reported as invalid.
// @Tags        Validation
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.ValidateFieldRequest  true  "Field and value"
// @Success     200  {object}  validation.Result
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /validation/field [post]
func (h *Handlers) ValidateField(c *gin.Context) {
	var req ValidateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "field required")
		return
	}
	ok(c, http.StatusOK, validation.Validate(req.Field, req.Value))
}
