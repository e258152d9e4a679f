// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware for the JSON API.
// It also exposes the API's own response headers (correlation id, replay
// marker, Retry-After, ETag) to browser clients, which the batch UI needs to
// show retry countdowns and detect replays.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// exposedHeaders are response headers browser code may read.
var exposedHeaders = []string{"X-Request-ID", "Idempotency-Replayed", "Retry-After", "ETag"}

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS   bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge   time.Duration // <= 0 means 180 days
	NoStore      bool          // Cache-Control: no-store plus legacy Pragma/Expires
	EnablePolicy bool          // Permissions-Policy and X-Permitted-Cross-Domain-Policies
}

// SecurityHeaders always sets nosniff, DENY framing and no-referrer, merges
// the API headers into Access-Control-Expose-Headers, and adds the optional
// headers selected by opt. HSTS is never sent over plain HTTP.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		const expose = "Access-Control-Expose-Headers"
		h.Set(expose, mergeHeaderList(h.Get(expose), exposedHeaders))

		c.Next()
	}
}

// mergeHeaderList appends the names missing from a comma-separated list,
// comparing case-insensitively and keeping the existing order.
func mergeHeaderList(cur string, names []string) string {
	have := make(map[string]struct{})
	var out []string
	for _, p := range strings.Split(cur, ",") {
		if p = strings.TrimSpace(p); p != "" {
			have[strings.ToLower(p)] = struct{}{}
			out = append(out, p)
		}
	}
	for _, n := range names {
		if _, ok := have[strings.ToLower(n)]; !ok {
			out = append(out, n)
		}
	}
	return strings.Join(out, ", ")
}

// isHTTPS reports TLS on the connection or X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
