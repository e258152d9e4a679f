// Package services – BatchService
//
// BatchService owns the in-memory batch sessions (one batch.Coordinator per
// session) and persists what a submission produces: ledger rows for created
// passes, a run row with the serialized result, and an idempotency record
// when the caller supplied an Idempotency-Key.
//
// Sessions are process-local and evicted after SessionTTL of inactivity,
// using the same opportunistic sweep as the inbound rate limiter.
package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/batch"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/domain"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/observability"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/repo"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/retry"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/utils"
)

// sweepEvery is the number of session lookups between idle sweeps.
const sweepEvery = 500

// SubmitResult is what a submit or retry returns to the caller.
type SubmitResult struct {
	RunID    string        `json:"runId"`
	Outcome  string        `json:"outcome"`
	Replayed bool          `json:"replayed"`
	Result   *batch.Result `json:"result"`
}

type session struct {
	coord    *batch.Coordinator
	owner    string
	lastSeen time.Time
}

// BatchService manages batch sessions. It is safe for concurrent use.
type BatchService struct {
	DB        *gorm.DB
	Transport batch.Transport
	Batch     batch.Config

	// SessionTTL evicts sessions idle for at least this long; <= 0 keeps them forever.
	SessionTTL time.Duration
	// IdempotencyTTL bounds how long a submit key can be replayed.
	IdempotencyTTL time.Duration

	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	lookups  uint64
}

// NewBatchService constructs a BatchService.
func NewBatchService(db *gorm.DB, t batch.Transport, cfg batch.Config, sessionTTL, idemTTL time.Duration) *BatchService {
	return &BatchService{
		DB:             db,
		Transport:      t,
		Batch:          cfg,
		SessionTTL:     sessionTTL,
		IdempotencyTTL: idemTTL,
		now:            time.Now,
		sessions:       make(map[string]*session),
	}
}

func (s *BatchService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// session returns the caller's session and refreshes its idle timer.
// A session owned by another user is reported as missing.
func (s *BatchService) session(userID, id string) (*batch.Coordinator, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Sweep before the lookup so an expired session is not revived.
	s.lookups++
	if s.lookups >= sweepEvery {
		s.sweepLocked(now)
		s.lookups = 0
	}

	sess, ok := s.sessions[id]
	if !ok || sess.owner != userID {
		return nil, ErrBatchNotFound
	}
	if s.SessionTTL > 0 && now.Sub(sess.lastSeen) >= s.SessionTTL {
		if !sess.coord.State().IsSubmitting {
			delete(s.sessions, id)
			return nil, ErrBatchNotFound
		}
	}
	sess.lastSeen = now
	return sess.coord, nil
}

// sweepLocked drops idle sessions. In-flight submissions are never dropped.
func (s *BatchService) sweepLocked(now time.Time) {
	if s.SessionTTL <= 0 {
		return
	}
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) >= s.SessionTTL && !sess.coord.State().IsSubmitting {
			delete(s.sessions, id)
		}
	}
}

// Create opens a new batch for userID with one empty record.
func (s *BatchService) Create(ctx context.Context, userID, eventID string) (batch.State, error) {
	id := uuid.NewString()
	coord := batch.NewCoordinator(id, eventID, s.Transport, s.Batch)
	if _, err := coord.AddRecord(); err != nil {
		return batch.State{}, err
	}

	s.mu.Lock()
	s.sessions[id] = &session{coord: coord, owner: userID, lastSeen: s.clock()}
	s.mu.Unlock()

	log.Debug().Str("batch_id", id).Str("user_id", userID).Msg("batch created")
	return coord.State(), nil
}

// Get returns the current state of a batch.
func (s *BatchService) Get(ctx context.Context, userID, id string) (batch.State, error) {
	coord, err := s.session(userID, id)
	if err != nil {
		return batch.State{}, err
	}
	return coord.State(), nil
}

// Discard drops a batch. It is refused while a submission is in flight.
func (s *BatchService) Discard(ctx context.Context, userID, id string) error {
	coord, err := s.session(userID, id)
	if err != nil {
		return err
	}
	if err := coord.Reset(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// SetEventID changes the batch's event id.
func (s *BatchService) SetEventID(ctx context.Context, userID, id, eventID string) (batch.State, error) {
	coord, err := s.session(userID, id)
	if err != nil {
		return batch.State{}, err
	}
	return coord.SetEventID(eventID)
}

// AddRecord appends an empty record.
func (s *BatchService) AddRecord(ctx context.Context, userID, id string) (batch.PassRecord, error) {
	coord, err := s.session(userID, id)
	if err != nil {
		return batch.PassRecord{}, err
	}
	return coord.AddRecord()
}

// RemoveRecord deletes a record; an unknown record id is not an error.
// Records being submitted are refused with batch.ErrSubmitInProgress.
func (s *BatchService) RemoveRecord(ctx context.Context, userID, id, recordID string) error {
	coord, err := s.session(userID, id)
	if err != nil {
		return err
	}
	_, err = coord.RemoveRecord(recordID)
	return err
}

// SetField updates a field value without validating it.
func (s *BatchService) SetField(ctx context.Context, userID, id string, index int, field, value string) (batch.PassRecord, error) {
	coord, err := s.session(userID, id)
	if err != nil {
		return batch.PassRecord{}, err
	}
	return coord.SetField(index, field, value)
}

// BlurField validates a field and marks it touched.
func (s *BatchService) BlurField(ctx context.Context, userID, id string, index int, field string) (batch.FieldState, error) {
	coord, err := s.session(userID, id)
	if err != nil {
		return batch.FieldState{}, err
	}
	return coord.BlurField(index, field)
}

// Submit sends every pending record. With a non-empty idemKey a previous
// run for the same key is replayed instead of submitting again.
func (s *BatchService) Submit(ctx context.Context, userID, id, idemKey string, existing []string) (*SubmitResult, error) {
	return s.run(ctx, userID, id, idemKey, false, nil, existing)
}

// Retry resubmits failed records (all of them when recordIDs is empty) and
// returns the result merged with the previous one.
func (s *BatchService) Retry(ctx context.Context, userID, id, idemKey string, recordIDs, existing []string) (*SubmitResult, error) {
	return s.run(ctx, userID, id, idemKey, true, recordIDs, existing)
}

func (s *BatchService) run(ctx context.Context, userID, id, idemKey string, isRetry bool, recordIDs, existing []string) (*SubmitResult, error) {
	ctx, span := observability.Tracer("services").Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("batch.id", id),
			attribute.String("user.id", userID),
			attribute.Bool("batch.retry", isRetry),
		),
	)
	defer span.End()

	coord, err := s.session(userID, id)
	if err != nil {
		return nil, err
	}

	if idemKey != "" {
		if out, err := s.Replay(ctx, userID, id, idemKey); err == nil {
			return out, nil
		} else if !errors.Is(err, ErrRunNotFound) {
			return nil, err
		}
	}

	st := coord.State()
	taken, err := repo.ListBarcodes(ctx, s.DB, st.EventID)
	if err != nil {
		return nil, err
	}
	taken = utils.MergeUnique(taken, existing)

	var res *batch.Result
	if isRetry {
		res, err = coord.RetryFailed(ctx, recordIDs, taken)
	} else {
		res, err = coord.Submit(ctx, taken)
	}
	// The history and ledger are written even if the caller has gone away.
	dbCtx := context.WithoutCancel(ctx)
	if err != nil {
		var rerr *retry.Error
		if errors.As(err, &rerr) {
			// The transport gave up; keep a trace of the attempt in the history.
			s.recordFailure(dbCtx, userID, st.EventID, id, isRetry, sendable(st, isRetry, recordIDs), rerr)
		}
		return nil, err
	}

	out := &SubmitResult{Outcome: res.Outcome(), Result: res}
	run, err := s.persist(dbCtx, userID, id, idemKey, isRetry, coord.State(), res)
	if err != nil {
		// The passes exist upstream already; the caller still gets the result.
		log.Error().Err(err).Str("batch_id", id).Msg("persist submission run")
		return out, nil
	}
	out.RunID = run.ID
	return out, nil
}

// persist writes ledger rows, the run and the idempotency key in one transaction.
func (s *BatchService) persist(ctx context.Context, userID, id, idemKey string, isRetry bool, st batch.State, res *batch.Result) (*domain.BatchRun, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]batch.PassRecord, len(st.Records))
	for _, r := range st.Records {
		byID[r.ID] = r
	}

	run := &domain.BatchRun{
		ID:         uuid.NewString(),
		BatchID:    id,
		EventID:    st.EventID,
		UserID:     userID,
		Retry:      isRetry,
		Submitted:  res.Submitted,
		Succeeded:  res.TotalSuccess,
		Failed:     res.TotalFailed,
		Outcome:    res.Outcome(),
		ResultJSON: string(body),
		CreatedAt:  s.clock().UTC(),
	}

	passes := make([]domain.Pass, 0, len(res.Successful))
	for _, ok := range res.Successful {
		p := domain.Pass{
			ID:           uuid.NewString(),
			PassID:       ok.ServerID,
			EventID:      st.EventID,
			Barcode:      ok.Barcode,
			CustomerName: ok.CustomerName,
			BatchID:      id,
			RunID:        run.ID,
			CreatedAt:    run.CreatedAt,
		}
		// A created pass always reaches the ledger, even if its record is
		// no longer in the session.
		if r, found := byID[ok.RecordID]; found {
			p.EventID = r.Data.EventID
			p.AccountID = r.Data.AccountID
			p.SpotType = r.Data.SpotType
			p.LotID = r.Data.LotID
		}
		passes = append(passes, p)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateRun(ctx, tx, run); err != nil {
			return err
		}
		if _, err := repo.CreatePasses(ctx, tx, passes); err != nil {
			return err
		}
		if idemKey != "" {
			_, err := repo.CreateIdempotency(ctx, tx, userID, id, idemKey, run.ID, http.StatusOK, s.IdempotencyTTL)
			if err != nil && !errors.Is(err, repo.ErrDuplicate) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// sendable counts the records a submit or retry of st would send.
func sendable(st batch.State, isRetry bool, recordIDs []string) int {
	want := make(map[string]struct{}, len(recordIDs))
	for _, id := range recordIDs {
		want[id] = struct{}{}
	}
	n := 0
	for _, r := range st.Records {
		switch {
		case !isRetry && r.Status != batch.StatusCreated:
			n++
		case isRetry && r.Status == batch.StatusFailed:
			if _, ok := want[r.ID]; len(want) == 0 || ok {
				n++
			}
		}
	}
	return n
}

func (s *BatchService) recordFailure(ctx context.Context, userID, eventID, id string, isRetry bool, n int, rerr *retry.Error) {
	run := &domain.BatchRun{
		BatchID:   id,
		EventID:   eventID,
		UserID:    userID,
		Retry:     isRetry,
		Submitted: n,
		Outcome:   domain.OutcomeError,
		Error:     rerr.Error(),
	}
	if err := repo.CreateRun(ctx, s.DB, run); err != nil {
		log.Warn().Err(err).Str("batch_id", id).Msg("record failed run")
	}
}

// Replay returns the stored result for an idempotency key, or ErrRunNotFound.
func (s *BatchService) Replay(ctx context.Context, userID, id, key string) (*SubmitResult, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, id, key, s.clock().UTC())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	run, err := repo.GetRun(ctx, s.DB, id, rec.RunID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	var res batch.Result
	if err := json.Unmarshal([]byte(run.ResultJSON), &res); err != nil {
		return nil, err
	}
	return &SubmitResult{RunID: run.ID, Outcome: run.Outcome, Replayed: true, Result: &res}, nil
}

// HasReplay reports whether a still-valid idempotency record exists.
// Its signature matches middleware.IdempotencyLookup.
func (s *BatchService) HasReplay(ctx context.Context, userID, id, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.DB, userID, id, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// PurgeExpiredKeys drops idempotency keys past their TTL.
func (s *BatchService) PurgeExpiredKeys(ctx context.Context) (int64, error) {
	n, err := repo.PurgeExpiredIdempotency(ctx, s.DB, s.clock().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Debug().Int64("rows", n).Msg("purged expired idempotency keys")
	}
	return n, nil
}

// Runs returns the submission history of a batch.
func (s *BatchService) Runs(ctx context.Context, userID, id string) ([]domain.BatchRun, error) {
	if _, err := s.session(userID, id); err != nil {
		return nil, err
	}
	return repo.ListRuns(ctx, s.DB, id)
}

// Len reports the number of live sessions.
func (s *BatchService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
