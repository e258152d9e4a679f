package batch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrValidationFailed is the local submit failure; no network call is made.
	ErrValidationFailed = errors.New("batch validation failed")

	// ErrSubmitInProgress is returned when a submit or retry is already running.
	ErrSubmitInProgress = errors.New("batch submission already in progress")

	// ErrEmptyBatch is returned when there is nothing left to submit.
	ErrEmptyBatch = errors.New("batch has no records to submit")

	// ErrNothingToRetry is returned by RetryFailed when no record is in the
	// failed state.
	ErrNothingToRetry = errors.New("no failed records to retry")

	// ErrRecordIndex is returned for an out-of-range record index.
	ErrRecordIndex = errors.New("record index out of range")

	// ErrUnknownField is returned when a field name is not part of a record.
	ErrUnknownField = errors.New("unknown field")

	// ErrRecordLocked is returned when editing a record that was already created.
	ErrRecordLocked = errors.New("record already created")

	// ErrBatchFull is returned by AddRecord once the record cap is reached.
	ErrBatchFull = errors.New("batch is full")
)

// ValidationError lists the problems that blocked a submit. It matches
// ErrValidationFailed with errors.Is.
type ValidationError struct {
	// EventID is the event id error, empty when the event id is valid.
	EventID string `json:"eventId,omitempty"`
	// Records maps record id to field errors.
	Records map[string]map[string]string `json:"records,omitempty"`
}

func (e *ValidationError) Error() string {
	var parts []string
	if e.EventID != "" {
		parts = append(parts, "eventId: "+e.EventID)
	}
	ids := make([]string, 0, len(e.Records))
	for id := range e.Records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("record %s: %d field error(s)", id, len(e.Records[id])))
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }
