// Package retry wraps remote calls so transient failures are retried with
// jittered exponential backoff while permanent failures fail fast.
//
// The package has three parts:
//   - Classify maps any failure into an *Error with a Category and a
//     retryable flag.
//   - Delay computes the wait before the next attempt.
//   - Execute drives the attempt/classify/wait loop.
//
// Execute keeps no state between calls; the attempt counter travels on the
// *Error value, which is replaced (never mutated) on each failure.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// Category groups failures by how they should be handled.
type Category string

const (
	CategoryNetwork    Category = "network"
	CategoryServer     Category = "server"
	CategoryAuth       Category = "auth"
	CategoryValidation Category = "validation"
	CategoryUnknown    Category = "unknown"
)

// Error is a classified failure. Attempt counts failed attempts observed for
// one Execute call; it starts at 0 for a freshly classified error.
type Error struct {
	Category  Category
	Retryable bool
	Attempt   int
	Message   string
	Cause     error

	// RetryAfter is a server-provided lower bound for the next delay.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Message == "" && e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Category, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// withAttempt returns a copy of e carrying attempt n.
func (e *Error) withAttempt(n int) *Error {
	cp := *e
	cp.Attempt = n
	return &cp
}

// Codes the remote API uses in its error envelope.
const (
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidToken      = "INVALID_TOKEN"
	CodeValidationError   = "VALIDATION_ERROR"
)

// StatusError is a failure for which the remote service did respond.
// Retryable is nil unless the server explicitly said whether the failure is
// worth retrying.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
	Retryable  *bool
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote status %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("remote status %d: %s", e.StatusCode, e.Message)
}

// Classify maps a raw failure into an *Error. It returns nil for a nil error.
// An error that is already classified is returned unchanged.
//
// Unrecognized failures are not retried.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var re *Error
	if errors.As(err, &re) {
		return re
	}

	var se *StatusError
	if errors.As(err, &se) {
		return classifyStatus(se, err)
	}

	if isNetwork(err) {
		return &Error{Category: CategoryNetwork, Retryable: true, Message: err.Error(), Cause: err}
	}

	return &Error{Category: CategoryUnknown, Retryable: false, Message: err.Error(), Cause: err}
}

func classifyStatus(se *StatusError, cause error) *Error {
	msg := se.Message
	if msg == "" {
		msg = http.StatusText(se.StatusCode)
	}
	out := &Error{Message: msg, Cause: cause, RetryAfter: se.RetryAfter}

	switch {
	// Rate limiting is transient by definition; any retryable=false flag on
	// the response is ignored.
	case se.StatusCode == http.StatusTooManyRequests || se.Code == CodeRateLimitExceeded:
		out.Category, out.Retryable = CategoryServer, true
	case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden ||
		se.Code == CodeUnauthorized || se.Code == CodeInvalidToken:
		out.Category, out.Retryable = CategoryAuth, false
	case se.StatusCode >= 500:
		out.Category = CategoryServer
		out.Retryable = se.Retryable == nil || *se.Retryable
	case se.StatusCode == http.StatusRequestTimeout:
		out.Category, out.Retryable = CategoryNetwork, true
	case se.StatusCode == http.StatusBadRequest || se.StatusCode == http.StatusUnprocessableEntity ||
		se.Code == CodeValidationError:
		out.Category, out.Retryable = CategoryValidation, false
	default:
		out.Category, out.Retryable = CategoryUnknown, false
	}
	return out
}

// isNetwork reports whether err means no response was received.
func isNetwork(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	// *url.Error satisfies net.Error for every client failure, so only its
	// timeout flag counts here.
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	// TLS alerts from the peer arrive as an OpError with Op "remote error".
	var oe *net.OpError
	if errors.As(err, &oe) && oe.Op != "remote error" {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "connection refused") ||
		strings.Contains(low, "connection reset") ||
		strings.Contains(low, "no such host")
}
