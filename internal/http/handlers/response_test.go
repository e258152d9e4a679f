package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// envelopeRouter sets a fixed request id and a captured scoped logger, the
// way RequestID and RedactingLogger do in production.
func envelopeRouter(logs *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	logger := zerolog.New(logs)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-1")
		c.Set("logger", &logger)
		c.Next()
	})
	return r
}

func TestFail_EnvelopeAndServerErrorLogging(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    string
		wantLog bool
	}{
		{"server error is logged", http.StatusInternalServerError, ErrCodeInternal, true},
		{"upstream unavailable is logged", http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, true},
		{"conflict is not logged", http.StatusConflict, ErrCodeSubmitInProgress, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			r := envelopeRouter(&logs)
			r.POST("/x", func(c *gin.Context) { Fail(c, tc.status, tc.code, "went wrong") })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			var er ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("json: %v", err)
			}
			if er.RequestID != "rid-1" || er.Code != tc.code || er.Message != "went wrong" {
				t.Fatalf("unexpected body: %+v", er)
			}
			if got := strings.Contains(logs.String(), `"level":"error"`); got != tc.wantLog {
				t.Fatalf("error log = %v, want %v: %s", got, tc.wantLog, logs.String())
			}
		})
	}
}

func TestOkAndNoContent(t *testing.T) {
	var logs bytes.Buffer
	r := envelopeRouter(&logs)
	r.POST("/records", func(c *gin.Context) { ok(c, http.StatusCreated, gin.H{"id": "r1", "status": "pending"}) })
	r.DELETE("/records/r1", func(c *gin.Context) { noContent(c) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/records", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["id"] != "r1" || body["status"] != "pending" {
		t.Fatalf("body = %s (%v)", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/records/r1", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("204 expected with empty body, got %d %q", w.Code, w.Body.String())
	}
}

func TestValidationErrorResponse_OmitsEmptyParts(t *testing.T) {
	b, err := json.Marshal(ValidationErrorResponse{Code: ErrCodeValidationFailed, Message: "batch validation failed"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "event_id") || strings.Contains(s, "records") || strings.Contains(s, "request_id") {
		t.Fatalf("empty parts must be omitted: %s", s)
	}
}
