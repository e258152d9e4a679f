package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header("X-Request-ID", "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/events/:eventId/passes", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "email=a.b+tag@example.com&phone=+1-555-123-4567&id=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodGet, "/events/EV12345/passes?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	req.Header.Set("X-Request-ID", "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/events/:eventId/passes"`,
		`"request_id":"rid-resp"`,
		`[REDACTED:email]`,
		`[REDACTED:phone]`,
		`[REDACTED:id]`,
		`"Authorization":"[REDACTED]"`,
		`"Cookie":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"X-Custom":"email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("missing %s in log: %s", want, logs)
		}
	}
	if strings.Contains(logs, "secret") || strings.Contains(logs, "shhh") {
		t.Fatalf("credential leaked: %s", logs)
	}
}

func TestRedactingLogger_LevelsAndRequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, p := range []string{"/warn", "/error"} {
		req := httptest.NewRequest(http.MethodGet, p, nil)
		req.Header.Set("X-Request-ID", "rid"+p)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid/warn"`) {
		t.Fatalf("warn log not found or missing request_id fallback: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid/error"`) {
		t.Fatalf("error log not found or missing request_id fallback: %s", logs)
	}
}

func TestRedactingLogger_ScopedLoggerCarriesBatchAndUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}))
	r.POST("/batches/:id/submit", func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("submitting")
		_ = c.Error(errBoom{})
		c.Status(http.StatusBadGateway)
	})

	req := httptest.NewRequest(http.MethodPost, "/batches/b-7/submit", nil)
	req.Header.Set("X-User-ID", "u-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	logs := buf.String()
	lines := strings.Split(strings.TrimSpace(logs), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected handler line and access line, got:\n%s", logs)
	}
	for _, l := range lines {
		if !strings.Contains(l, `"batch_id":"b-7"`) || !strings.Contains(l, `"user_id":"u-42"`) {
			t.Fatalf("line missing scoped fields: %s", l)
		}
	}
	if !strings.Contains(lines[1], `"level":"error"`) || !strings.Contains(lines[1], `"errors"`) {
		t.Fatalf("expected error access line, got: %s", lines[1])
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
