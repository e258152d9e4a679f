// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access log of the service. It
// never logs bodies (pass records carry customer names), masks credential
// headers outright and scrubs emails, phone numbers and UUID-like ids from
// the query string and the remaining headers.
//
// It also attaches a request-scoped zerolog.Logger (request id, user id and,
// under /batches/:id, the batch id) for LoggerFrom.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions adds header names (case-insensitive) whose values are
// replaced by "[REDACTED]" on top of Authorization, Cookie and Set-Cookie.
type RedactOptions struct {
	MaskHeaders []string
}

// UUIDs are scrubbed before phone numbers so the phone pattern cannot eat the
// digit groups of an id.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

func redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger logs one line per request at info, warn (4xx) or error
// (5xx, or when handlers recorded gin errors).
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		rid := c.Writer.Header().Get(requestIDHeader)
		if rid == "" {
			rid = c.GetHeader(requestIDHeader)
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = redact(strings.Join(vv, ", "))
		}

		lc := log.With().
			Str("request_id", rid).
			Str("user_id", userIDFromCtx(c)).
			Str("method", c.Request.Method).
			Str("path", path)
		if id := c.Param("id"); id != "" {
			lc = lc.Str("batch_id", id)
		}
		l := lc.Logger()
		c.Set("logger", &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = l.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = l.Warn()
		}

		ev.
			Str("query", truncate(redact(c.Request.URL.RawQuery), maxQueryLogLength)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Bool("replay", IsReplay(c)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
