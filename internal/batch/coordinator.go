package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/observability"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/passapi"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/retry"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/validation"
)

// Transport creates passes on the remote service in one call.
type Transport interface {
	CreateBatch(ctx context.Context, passes []passapi.PassPayload) (*passapi.BatchData, error)
}

// Config tunes a Coordinator.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// MaxRecords caps the number of records; <= 0 means unlimited.
	MaxRecords int
	// OnRetry, when set, is notified before each backoff wait in addition
	// to the batch's own retry status.
	OnRetry func(batchID string, status RetryStatus)
}

// Coordinator owns one batch and is the only way to change it.
// It is safe for concurrent use.
type Coordinator struct {
	id        string
	mu        sync.Mutex
	s         *store
	transport Transport
	cfg       Config
	log       zerolog.Logger
}

// NewCoordinator creates a batch with the given id and event id. The batch
// starts empty.
func NewCoordinator(id, eventID string, t Transport, cfg Config) *Coordinator {
	c := &Coordinator{
		id:        id,
		s:         newStore(id, eventID),
		transport: t,
		cfg:       cfg,
		log:       log.With().Str("batch_id", id).Logger(),
	}
	c.s.eventIDError = eventIDError(eventID)
	return c
}

func eventIDError(eventID string) *string {
	if eventID == "" {
		return nil
	}
	if res := validation.ValidateEventID(eventID); !res.Valid {
		return &res.Error
	}
	return nil
}

// ID returns the batch id.
func (c *Coordinator) ID() string { return c.id }

// State returns a snapshot of the batch.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.snapshot()
}

// AddRecord appends a record with default values and the current event id.
func (c *Coordinator) AddRecord() (PassRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.MaxRecords > 0 && len(c.s.order) >= c.cfg.MaxRecords {
		return PassRecord{}, ErrBatchFull
	}
	r := c.s.add()
	c.s.recomputeValidity()
	return r.clone(), nil
}

// RemoveRecord deletes the record with id. It reports whether a record was
// removed; removing an unknown id is a no-op. A record that is part of the
// submission in flight cannot be removed until the response is merged.
func (c *Coordinator) RemoveRecord(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.s.inFlight[id]; busy {
		return false, ErrSubmitInProgress
	}
	ok := c.s.remove(id)
	if ok {
		c.s.recomputeValidity()
	}
	return ok, nil
}

// SetField stores a new value for one field and marks it dirty. It does not
// validate the field; that happens on blur or submit.
func (c *Coordinator) SetField(index int, field, value string) (PassRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.s.at(index)
	if err != nil {
		return PassRecord{}, err
	}
	f, ok := r.Fields[field]
	if !ok {
		return PassRecord{}, ErrUnknownField
	}
	if r.Status == StatusCreated {
		return PassRecord{}, ErrRecordLocked
	}
	f.Value = value
	f.Dirty = true
	r.Fields[field] = f
	r.Data.set(field, value)
	c.s.recomputeValidity()
	return r.clone(), nil
}

// BlurField marks a field touched and validates it. A barcode that is also
// used by another record of this batch is reported as a duplicate.
func (c *Coordinator) BlurField(index int, field string) (FieldState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, err := c.s.at(index)
	if err != nil {
		return FieldState{}, err
	}
	f, ok := r.Fields[field]
	if !ok {
		return FieldState{}, ErrUnknownField
	}

	res := validation.Validate(field, f.Value)
	if field == validation.FieldBarcode && res.Valid {
		for _, other := range c.s.list() {
			if other.ID != r.ID && other.Fields[validation.FieldBarcode].Value == f.Value {
				res = validation.Result{Valid: false, Error: validation.MsgDuplicateBarcode}
				break
			}
		}
	}
	r.setFieldError(field, res.Error, true)
	return r.clone().Fields[field], nil
}

// SetEventID sets the batch event id and copies it into every record. It is
// refused while a submission is in flight, since the response is merged
// against the event the records were sent with.
func (c *Coordinator) SetEventID(eventID string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.isSubmitting {
		return State{}, ErrSubmitInProgress
	}
	c.s.setEventID(eventID)
	c.s.eventIDError = eventIDError(eventID)
	c.s.recomputeValidity()
	return c.s.snapshot(), nil
}

// Reset discards every record and result, keeping the event id.
func (c *Coordinator) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.isSubmitting {
		return ErrSubmitInProgress
	}
	eventID := c.s.eventID
	c.s = newStore(c.id, eventID)
	c.s.eventIDError = eventIDError(eventID)
	return nil
}

// Submit validates every record not yet created and sends them in one batch
// call. existing lists barcodes already committed for the event.
//
// A local validation failure returns a *ValidationError (errors.Is
// ErrValidationFailed) without any network call and leaves IsSubmitting
// untouched. A terminal remote failure returns the *retry.Error and keeps
// every record as entered. A partially successful batch is not an error.
func (c *Coordinator) Submit(ctx context.Context, existing []string) (*Result, error) {
	c.mu.Lock()
	if c.s.isSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	recs := c.s.pending()
	if len(recs) == 0 {
		c.mu.Unlock()
		return nil, ErrEmptyBatch
	}
	return c.submitLocked(ctx, "Submit", recs, existing, false)
}

// RetryFailed resubmits only records in the failed state, optionally limited
// to ids. Created records are never resubmitted. The new result is merged
// with the previous one.
func (c *Coordinator) RetryFailed(ctx context.Context, ids []string, existing []string) (*Result, error) {
	c.mu.Lock()
	if c.s.isSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var recs []*PassRecord
	for _, r := range c.s.list() {
		if r.Status != StatusFailed {
			continue
		}
		if _, ok := want[r.ID]; len(want) > 0 && !ok {
			continue
		}
		recs = append(recs, r)
	}
	if len(recs) == 0 {
		c.mu.Unlock()
		return nil, ErrNothingToRetry
	}
	return c.submitLocked(ctx, "RetryFailed", recs, existing, true)
}

// submitLocked runs with c.mu held and releases it before the network call.
func (c *Coordinator) submitLocked(ctx context.Context, op string, recs []*PassRecord, existing []string, merge bool) (*Result, error) {
	tr := observability.Tracer("batch")
	ctx, span := tr.Start(ctx, op, trace.WithAttributes(
		attribute.String("batch.id", c.id),
		attribute.String("event.id", c.s.eventID),
		attribute.Int("batch.records", len(recs)),
	))
	defer span.End()

	if verr := c.validateLocked(recs, existing); verr != nil {
		c.s.isValid = false
		c.mu.Unlock()
		submissions.WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, "validation failed")
		c.log.Info().Int("records", len(verr.Records)).Msg("batch rejected by local validation")
		return nil, verr
	}
	c.s.isValid = true

	sub := make([]submitted, 0, len(recs))
	payloads := make([]passapi.PassPayload, 0, len(recs))
	retried := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		p := toPayload(r.Data)
		sub = append(sub, submitted{recordID: r.ID, payload: p})
		payloads = append(payloads, p)
		retried[r.ID] = struct{}{}
	}
	c.s.isSubmitting = true
	c.s.inFlight = retried
	c.s.retry = nil
	c.s.lastError = ""
	c.mu.Unlock()

	// An attempt that reached the network runs to completion even if the
	// caller goes away; ctx only bounds the backoff waits.
	attemptCtx := context.WithoutCancel(ctx)
	start := time.Now()
	data, err := retry.Execute(ctx, func(context.Context) (*passapi.BatchData, error) {
		return c.transport.CreateBatch(attemptCtx, payloads)
	}, retry.Options{
		MaxRetries: c.cfg.MaxRetries,
		BaseDelay:  c.cfg.BaseDelay,
		MaxDelay:   c.cfg.MaxDelay,
		OnRetry:    c.onRetry,
	})
	submitLatency.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.s.isSubmitting = false
	c.s.inFlight = nil
	c.s.retry = nil

	if err != nil {
		c.s.lastError = err.Error()
		submissions.WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		ev := c.log.Warn()
		var re *retry.Error
		if errors.As(err, &re) {
			ev = ev.Str("category", string(re.Category)).Int("attempts", re.Attempt)
		}
		ev.Err(err).Int("records", len(payloads)).Msg("batch submission failed")
		return nil, err
	}

	res := buildResult(sub, data)
	c.s.apply(sub, res)
	if merge {
		res = mergeResults(c.s.lastResult, res, retried)
	}
	c.s.lastResult = res
	c.s.recomputeValidity()

	submissions.WithLabelValues(res.Outcome()).Inc()
	recordOutcomes.WithLabelValues("created").Add(float64(res.TotalSuccess))
	recordOutcomes.WithLabelValues("failed").Add(float64(len(res.Failed)))
	span.SetAttributes(
		attribute.Int("batch.success", res.TotalSuccess),
		attribute.Int("batch.failed", res.TotalFailed),
	)
	c.log.Info().
		Str("op", op).
		Int("submitted", len(payloads)).
		Int("created", res.TotalSuccess).
		Int("failed", res.TotalFailed).
		Msg("batch submission processed")
	return res, nil
}

// validateLocked validates recs with every field touched and its error
// refreshed. Barcodes collide with existing, with records already created in
// this batch, and with each other.
func (c *Coordinator) validateLocked(recs []*PassRecord, existing []string) *ValidationError {
	verr := &ValidationError{Records: map[string]map[string]string{}}
	if res := validation.ValidateEventID(c.s.eventID); !res.Valid {
		verr.EventID = res.Error
		msg := res.Error
		c.s.eventIDError = &msg
	} else {
		c.s.eventIDError = nil
	}

	committed := validation.BarcodeSet(existing, c.s.createdBarcodes())
	dups := duplicateBarcodes(c.s.pending())

	for _, r := range recs {
		res := validation.ValidateRecord(r.values(), committed)
		errs := res.Errors
		if b := r.Fields[validation.FieldBarcode].Value; errs[validation.FieldBarcode] == "" {
			if _, dup := dups[b]; dup {
				if errs == nil {
					errs = map[string]string{}
				}
				errs[validation.FieldBarcode] = validation.MsgDuplicateBarcode
			}
		}
		for name := range r.Fields {
			r.setFieldError(name, errs[name], true)
		}
		if len(errs) > 0 {
			verr.Records[r.ID] = errs
		}
	}

	if verr.EventID == "" && len(verr.Records) == 0 {
		return nil
	}
	return verr
}

// onRetry publishes the pending retry on the batch state before the backoff
// wait starts.
func (c *Coordinator) onRetry(err *retry.Error, n int, delay time.Duration) {
	status := RetryStatus{
		Attempt:  n,
		DelayMs:  delay.Milliseconds(),
		Category: string(err.Category),
		Message:  err.Message,
	}
	c.mu.Lock()
	c.s.retry = &status
	c.mu.Unlock()

	retries.WithLabelValues(string(err.Category)).Inc()
	c.log.Warn().
		Str("category", string(err.Category)).
		Int("retry", n).
		Dur("delay", delay).
		Str("error", err.Message).
		Msg("retrying batch submission")

	if c.cfg.OnRetry != nil {
		c.cfg.OnRetry(c.id, status)
	}
}
