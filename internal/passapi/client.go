// Package passapi is the HTTP client for the remote event-management API's
// batch pass creation endpoint.
//
// The client performs a single attempt per call. It turns every non-success
// response into a *retry.StatusError so callers can run it through
// retry.Execute; transport failures (timeouts, refused connections) are
// returned as-is for retry.Classify to recognise.
package passapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/observability"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/retry"
)

// BatchCreatePath is the remote endpoint, relative to the base URL.
const BatchCreatePath = "/passes/batch"

// maxErrorBody caps how much of an error response body is read.
const maxErrorBody = 64 << 10

// PassPayload is one pass to create.
type PassPayload struct {
	EventID      string `json:"eventId"`
	AccountID    string `json:"accountId"`
	Barcode      string `json:"barcode"`
	CustomerName string `json:"customerName"`
	SpotType     string `json:"spotType"`
	LotID        string `json:"lotId"`
}

// CreatedPass is a successfully created item.
type CreatedPass struct {
	Barcode      string `json:"barcode"`
	PassID       string `json:"passId"`
	CustomerName string `json:"customerName"`
}

// ItemError is the server's reason for rejecting one item.
type ItemError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// FailedPass is a rejected item.
type FailedPass struct {
	Barcode      string    `json:"barcode"`
	CustomerName string    `json:"customerName"`
	Error        ItemError `json:"error"`
}

// BatchData is the per-item outcome of a batch call.
type BatchData struct {
	Successful   []CreatedPass `json:"successful"`
	Failed       []FailedPass  `json:"failed"`
	TotalSuccess int           `json:"totalSuccess"`
	TotalFailed  int           `json:"totalFailed"`
}

// apiError is the error object of the response envelope.
type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable *bool  `json:"retryable,omitempty"`
}

// envelope is the response wrapper the remote API uses for every reply.
type envelope struct {
	Success bool       `json:"success"`
	Data    *BatchData `json:"data,omitempty"`
	Error   *apiError  `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
}

// ErrEmptyBatch is returned when CreateBatch is called with no payloads.
var ErrEmptyBatch = errors.New("passapi: empty batch")

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RPS and Burst pace outbound calls; RPS <= 0 disables pacing.
	RPS   float64
	Burst int
	// HTTPClient overrides the default client (Timeout is then ignored).
	HTTPClient *http.Client
}

// Client calls the remote pass API. It is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	hc      *http.Client
	limiter *rate.Limiter
}

// New builds a Client from opts.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	var lim *rate.Limiter
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		hc:      hc,
		limiter: lim,
	}
}

// CreateBatch posts passes to the batch-create endpoint and returns the
// per-item outcome. A partially failed batch is not an error.
func (c *Client) CreateBatch(ctx context.Context, passes []PassPayload) (*BatchData, error) {
	tr := observability.Tracer("passapi")
	ctx, span := tr.Start(ctx, "CreateBatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Int("batch.size", len(passes))),
	)
	defer span.End()

	data, err := c.createBatch(ctx, passes)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("batch.success", data.TotalSuccess),
		attribute.Int("batch.failed", data.TotalFailed),
	)
	return data, nil
}

func (c *Client) createBatch(ctx context.Context, passes []PassPayload) (*BatchData, error) {
	if len(passes) == 0 {
		return nil, ErrEmptyBatch
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(passes)
	if err != nil {
		return nil, fmt.Errorf("passapi: encode batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+BatchCreatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("passapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &retry.StatusError{
			StatusCode: resp.StatusCode,
			Message:    "malformed response: " + err.Error(),
		}
	}
	if !env.Success && env.Data == nil {
		se := &retry.StatusError{StatusCode: resp.StatusCode, Message: env.Message}
		if env.Error != nil {
			se.Code, se.Message, se.Retryable = env.Error.Code, env.Error.Message, env.Error.Retryable
		}
		return nil, se
	}
	if env.Data == nil {
		env.Data = &BatchData{}
	}
	return env.Data, nil
}

// statusError builds a *retry.StatusError from a non-2xx response, reading
// the error envelope when one is present.
func statusError(resp *http.Response) error {
	se := &retry.StatusError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var env envelope
	if len(raw) > 0 && json.Unmarshal(raw, &env) == nil {
		if env.Error != nil {
			se.Code = env.Error.Code
			se.Message = env.Error.Message
			se.Retryable = env.Error.Retryable
		} else if env.Message != "" {
			se.Message = env.Message
		}
	}
	if se.Message == "" {
		se.Message = strings.TrimSpace(string(raw))
	}
	if se.Message == "" {
		se.Message = http.StatusText(resp.StatusCode)
	}
	return se
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
