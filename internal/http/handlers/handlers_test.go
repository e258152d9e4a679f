package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/batch"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/retry"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/services"
)

// --- stubs ---

type stubBatchSvc struct {
	CreateFn   func(ctx context.Context, userID, eventID string) (batch.State, error)
	GetFn      func(ctx context.Context, userID, id string) (batch.State, error)
	SetFieldFn func(ctx context.Context, userID, id string, index int, field, value string) (batch.PassRecord, error)
	SubmitFn   func(ctx context.Context, userID, id, idemKey string, existing []string) (*services.SubmitResult, error)
	RetryFn    func(ctx context.Context, userID, id, idemKey string, recordIDs, existing []string) (*services.SubmitResult, error)
	RunsFn     func(ctx context.Context, userID, id string) ([]domain.BatchRun, error)
}

func (s *stubBatchSvc) Create(ctx context.Context, userID, eventID string) (batch.State, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, userID, eventID)
	}
	return batch.State{ID: "b1", EventID: eventID}, nil
}
func (s *stubBatchSvc) Get(ctx context.Context, userID, id string) (batch.State, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, userID, id)
	}
	return batch.State{ID: id}, nil
}
func (s *stubBatchSvc) Discard(context.Context, string, string) error { return nil }
func (s *stubBatchSvc) SetEventID(_ context.Context, _, id, eventID string) (batch.State, error) {
	return batch.State{ID: id, EventID: eventID}, nil
}
func (s *stubBatchSvc) AddRecord(context.Context, string, string) (batch.PassRecord, error) {
	return batch.PassRecord{ID: "r1"}, nil
}
func (s *stubBatchSvc) RemoveRecord(context.Context, string, string, string) error { return nil }
func (s *stubBatchSvc) SetField(ctx context.Context, userID, id string, index int, field, value string) (batch.PassRecord, error) {
	if s.SetFieldFn != nil {
		return s.SetFieldFn(ctx, userID, id, index, field, value)
	}
	return batch.PassRecord{ID: "r1"}, nil
}
func (s *stubBatchSvc) BlurField(context.Context, string, string, int, string) (batch.FieldState, error) {
	return batch.FieldState{Touched: true}, nil
}
func (s *stubBatchSvc) Submit(ctx context.Context, userID, id, idemKey string, existing []string) (*services.SubmitResult, error) {
	return s.SubmitFn(ctx, userID, id, idemKey, existing)
}
func (s *stubBatchSvc) Retry(ctx context.Context, userID, id, idemKey string, recordIDs, existing []string) (*services.SubmitResult, error) {
	return s.RetryFn(ctx, userID, id, idemKey, recordIDs, existing)
}
func (s *stubBatchSvc) Runs(ctx context.Context, userID, id string) ([]domain.BatchRun, error) {
	if s.RunsFn != nil {
		return s.RunsFn(ctx, userID, id)
	}
	return nil, nil
}

type stubPassSvc struct {
	ListPageFn func(ctx context.Context, eventID string, page, pageSize int) ([]domain.Pass, int64, error)
	StatsFn    func(ctx context.Context, eventID string) (int64, *time.Time, error)
}

func (s *stubPassSvc) ListPage(ctx context.Context, eventID string, page, pageSize int) ([]domain.Pass, int64, error) {
	return s.ListPageFn(ctx, eventID, page, pageSize)
}
func (s *stubPassSvc) Stats(ctx context.Context, eventID string) (int64, *time.Time, error) {
	if s.StatsFn != nil {
		return s.StatsFn(ctx, eventID)
	}
	return 0, nil, errors.New("no stats")
}

func newRouter(bs BatchService, ps PassService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(bs, ps)
	r.POST("/batches", h.CreateBatch)
	r.GET("/batches/:id", h.GetBatch)
	r.PUT("/batches/:id/records/:index/fields/:field", h.SetField)
	r.POST("/batches/:id/submit", h.SubmitBatch)
	r.POST("/batches/:id/retry", h.RetryBatch)
	r.GET("/batches/:id/runs", h.ListRuns)
	r.GET("/events/:eventId/passes", h.ListPasses)
	r.POST("/validation/field", h.ValidateField)
	return r
}

func send(r http.Handler, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeErr(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return er
}

// --- tests ---

func TestBatchError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		retryAfter string
	}{
		{"not found", services.ErrBatchNotFound, http.StatusNotFound, ErrCodeNotFound, ""},
		{"bad index", fmt.Errorf("get: %w", batch.ErrRecordIndex), http.StatusNotFound, ErrCodeNotFound, ""},
		{"unknown field", batch.ErrUnknownField, http.StatusBadRequest, ErrCodeBadRequest, ""},
		{"in progress", batch.ErrSubmitInProgress, http.StatusConflict, ErrCodeSubmitInProgress, ""},
		{"empty", batch.ErrEmptyBatch, http.StatusConflict, ErrCodeNothingToSubmit, ""},
		{"nothing to retry", batch.ErrNothingToRetry, http.StatusConflict, ErrCodeNothingToSubmit, ""},
		{"locked", batch.ErrRecordLocked, http.StatusConflict, ErrCodeRecordLocked, ""},
		{"full", batch.ErrBatchFull, http.StatusConflict, ErrCodeBatchFull, ""},
		{"upstream auth", &retry.Error{Category: retry.CategoryAuth, Message: "bad token"}, http.StatusUnauthorized, ErrCodeUpstreamAuth, ""},
		{"upstream server", &retry.Error{Category: retry.CategoryServer, Message: "rate limited", RetryAfter: 3 * time.Second}, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, "3"},
		{"upstream network", &retry.Error{Category: retry.CategoryNetwork, Message: "timeout"}, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, ""},
		{"upstream validation", &retry.Error{Category: retry.CategoryValidation, Message: "bad payload"}, http.StatusBadGateway, ErrCodeUpstreamRejected, ""},
		{"upstream unknown", &retry.Error{Category: retry.CategoryUnknown, Message: "?"}, http.StatusBadGateway, ErrCodeUpstreamError, ""},
		{"other", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bs := &stubBatchSvc{GetFn: func(context.Context, string, string) (batch.State, error) {
				return batch.State{}, tc.err
			}}
			w := send(newRouter(bs, &stubPassSvc{}), http.MethodGet, "/batches/b1", "")
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.wantStatus, w.Body.String())
			}
			if er := decodeErr(t, w); er.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", er.Code, tc.wantCode)
			}
			if got := w.Header().Get("Retry-After"); got != tc.retryAfter {
				t.Fatalf("Retry-After = %q, want %q", got, tc.retryAfter)
			}
		})
	}
}

func TestBatchError_ValidationBody(t *testing.T) {
	verr := &batch.ValidationError{
		EventID: "Event ID is required",
		Records: map[string]map[string]string{"r1": {"barcode": "Barcode is required"}},
	}
	bs := &stubBatchSvc{SubmitFn: func(context.Context, string, string, string, []string) (*services.SubmitResult, error) {
		return nil, verr
	}}
	w := send(newRouter(bs, &stubPassSvc{}), http.MethodPost, "/batches/b1/submit", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
	var body ValidationErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != ErrCodeValidationFailed || body.EventID != verr.EventID || body.Records["r1"]["barcode"] != "Barcode is required" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestCreateBatch_OptionalBody(t *testing.T) {
	var gotEvent, gotUser string
	bs := &stubBatchSvc{CreateFn: func(_ context.Context, userID, eventID string) (batch.State, error) {
		gotUser, gotEvent = userID, eventID
		return batch.State{ID: "b1", EventID: eventID}, nil
	}}
	r := newRouter(bs, &stubPassSvc{})

	if w := send(r, http.MethodPost, "/batches", ""); w.Code != http.StatusCreated || gotEvent != "" || gotUser != "demo-user" {
		t.Fatalf("empty body: %d event=%q user=%q", w.Code, gotEvent, gotUser)
	}
	if w := send(r, http.MethodPost, "/batches", `{"eventId":"  EV12345 "}`, "X-User-ID", "u9"); w.Code != http.StatusCreated || gotEvent != "EV12345" || gotUser != "u9" {
		t.Fatalf("with body: %d event=%q user=%q", w.Code, gotEvent, gotUser)
	}
	if w := send(r, http.MethodPost, "/batches", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", w.Code)
	}
}

func TestSetField_RequestChecks(t *testing.T) {
	var got struct {
		index        int
		field, value string
	}
	bs := &stubBatchSvc{SetFieldFn: func(_ context.Context, _, _ string, index int, field, value string) (batch.PassRecord, error) {
		got.index, got.field, got.value = index, field, value
		return batch.PassRecord{ID: "r1"}, nil
	}}
	r := newRouter(bs, &stubPassSvc{})

	if w := send(r, http.MethodPut, "/batches/b1/records/x/fields/barcode", `{"value":"A"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric index: %d", w.Code)
	}
	if w := send(r, http.MethodPut, "/batches/b1/records/-1/fields/barcode", `{"value":"A"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("negative index: %d", w.Code)
	}
	if w := send(r, http.MethodPut, "/batches/b1/records/0/fields/barcode", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing value: %d", w.Code)
	}
	// An empty string is a legitimate value (clearing a field).
	if w := send(r, http.MethodPut, "/batches/b1/records/2/fields/barcode", `{"value":""}`); w.Code != http.StatusOK {
		t.Fatalf("empty value: %d %s", w.Code, w.Body.String())
	}
	if got.index != 2 || got.field != "barcode" || got.value != "" {
		t.Fatalf("unexpected call: %+v", got)
	}
}

func TestSubmitAndRetry_PassArguments(t *testing.T) {
	var submitExisting, retryIDs []string
	bs := &stubBatchSvc{
		SubmitFn: func(_ context.Context, _, _, _ string, existing []string) (*services.SubmitResult, error) {
			submitExisting = existing
			return &services.SubmitResult{RunID: "run1", Outcome: "success", Result: &batch.Result{}}, nil
		},
		RetryFn: func(_ context.Context, _, _, _ string, recordIDs, _ []string) (*services.SubmitResult, error) {
			retryIDs = recordIDs
			return &services.SubmitResult{RunID: "run2", Outcome: "partial", Replayed: true, Result: &batch.Result{}}, nil
		},
	}
	r := newRouter(bs, &stubPassSvc{})

	w := send(r, http.MethodPost, "/batches/b1/submit", `{"existingBarcodes":["AB123456"]}`)
	if w.Code != http.StatusOK || len(submitExisting) != 1 || submitExisting[0] != "AB123456" {
		t.Fatalf("submit: %d %v", w.Code, submitExisting)
	}
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Fatalf("fresh run must not be marked replayed")
	}

	w = send(r, http.MethodPost, "/batches/b1/retry", `{"recordIds":["r2"]}`)
	if w.Code != http.StatusOK || len(retryIDs) != 1 || retryIDs[0] != "r2" {
		t.Fatalf("retry: %d %v", w.Code, retryIDs)
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replayed run must carry the header")
	}
}

func TestListRuns_EmptyIsArray(t *testing.T) {
	w := send(newRouter(&stubBatchSvc{}, &stubPassSvc{}), http.MethodGet, "/batches/b1/runs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body != `{"runs":[]}` {
		t.Fatalf("body = %s", body)
	}
}

func TestListPasses_ETagAndErrors(t *testing.T) {
	latest := time.Unix(1700000000, 0)
	calls := 0
	ps := &stubPassSvc{
		StatsFn: func(context.Context, string) (int64, *time.Time, error) { return 2, &latest, nil },
		ListPageFn: func(_ context.Context, eventID string, page, size int) ([]domain.Pass, int64, error) {
			calls++
			if eventID == "bad" {
				return nil, 0, services.ErrInvalidEventID
			}
			return []domain.Pass{{Barcode: "AB123456"}, {Barcode: "AB123457"}}, 2, nil
		},
	}
	r := newRouter(&stubBatchSvc{}, ps)

	w := send(r, http.MethodGet, "/events/EV12345/passes?page=1&page_size=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := fmt.Sprintf(`W/"passes:EV12345:2:%d:1:10"`, latest.UnixNano())
	if got := w.Header().Get("ETag"); got != want {
		t.Fatalf("ETag = %q, want %q", got, want)
	}
	var resp ListPassesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || len(resp.Passes) != 2 || resp.Pagination.Total != 2 {
		t.Fatalf("body: %s", w.Body.String())
	}

	if w := send(r, http.MethodGet, "/events/EV12345/passes?page=1&page_size=10", "", "If-None-Match", want); w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
	if calls != 1 {
		t.Fatalf("304 must not list, calls=%d", calls)
	}

	if w := send(r, http.MethodGet, "/events/bad/passes", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid event: %d", w.Code)
	}
}

func TestValidateField(t *testing.T) {
	r := newRouter(&stubBatchSvc{}, &stubPassSvc{})

	w := send(r, http.MethodPost, "/validation/field", `{"field":"barcode","value":"AB123456"}`)
	if w.Code != http.StatusOK || w.Body.String() != `{"valid":true}` {
		t.Fatalf("valid barcode: %d %s", w.Code, w.Body.String())
	}
	w = send(r, http.MethodPost, "/validation/field", `{"field":"barcode","value":"ab123456"}`)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"valid":false`)) {
		t.Fatalf("invalid barcode: %d %s", w.Code, w.Body.String())
	}
}
