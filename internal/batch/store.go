// Package batch holds the editable collection of pass records for one event
// and coordinates its submission to the remote batch-create endpoint.
//
// A Coordinator owns exactly one batch. All mutation goes through its
// methods; state is serialized by a mutex so the merge of an asynchronous
// submit response cannot race with user edits. The lock is released while
// the network call (and any retry backoff) is in flight, so edits keep
// flowing during a submit and are preserved by the merge.
package batch

import (
	"github.com/google/uuid"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/validation"
)

// FieldState is the UI state of one field. Error is nil exactly when the
// value was last found valid.
type FieldState struct {
	Value   string  `json:"value"`
	Touched bool    `json:"touched"`
	Dirty   bool    `json:"dirty"`
	Error   *string `json:"error"`
}

// PassData is the payload of one record.
type PassData struct {
	EventID      string `json:"eventId"`
	AccountID    string `json:"accountId"`
	Barcode      string `json:"barcode"`
	CustomerName string `json:"customerName"`
	SpotType     string `json:"spotType"`
	LotID        string `json:"lotId"`
}

func (d *PassData) set(field, value string) {
	switch field {
	case validation.FieldAccountID:
		d.AccountID = value
	case validation.FieldBarcode:
		d.Barcode = value
	case validation.FieldCustomerName:
		d.CustomerName = value
	case validation.FieldSpotType:
		d.SpotType = value
	case validation.FieldLotID:
		d.LotID = value
	}
}

// RecordStatus is the submission lifecycle of a record.
type RecordStatus string

const (
	StatusDraft   RecordStatus = "draft"
	StatusCreated RecordStatus = "created"
	StatusFailed  RecordStatus = "failed"
)

// ServerError is the remote service's reason for rejecting a record.
type ServerError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// PassRecord is one pass entry. ID is generated when the record is added and
// never changes; there is no server id until the pass is created.
type PassRecord struct {
	ID          string                `json:"id"`
	Data        PassData              `json:"data"`
	Fields      map[string]FieldState `json:"fields"`
	Status      RecordStatus          `json:"status"`
	PassID      string                `json:"passId,omitempty"`
	ServerError *ServerError          `json:"serverError,omitempty"`
}

func (r *PassRecord) values() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for name, f := range r.Fields {
		out[name] = f.Value
	}
	return out
}

func (r *PassRecord) clone() PassRecord {
	cp := *r
	cp.Fields = make(map[string]FieldState, len(r.Fields))
	for k, v := range r.Fields {
		if v.Error != nil {
			msg := *v.Error
			v.Error = &msg
		}
		cp.Fields[k] = v
	}
	if r.ServerError != nil {
		se := *r.ServerError
		cp.ServerError = &se
	}
	return cp
}

func (r *PassRecord) setFieldError(field, msg string, touch bool) {
	f, ok := r.Fields[field]
	if !ok {
		return
	}
	if msg == "" {
		f.Error = nil
	} else {
		m := msg
		f.Error = &m
	}
	if touch {
		f.Touched = true
	}
	r.Fields[field] = f
}

func newRecord(eventID string) *PassRecord {
	r := &PassRecord{
		ID:     uuid.NewString(),
		Data:   PassData{EventID: eventID},
		Fields: make(map[string]FieldState, len(validation.RecordFields)),
		Status: StatusDraft,
	}
	for _, name := range validation.RecordFields {
		v := validation.DefaultValue(name)
		r.Fields[name] = FieldState{Value: v}
		r.Data.set(name, v)
	}
	return r
}

// RetryStatus describes a pending automatic retry of the current submit.
type RetryStatus struct {
	Attempt  int    `json:"attempt"`
	DelayMs  int64  `json:"delayMs"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// State is a read-only snapshot of a batch.
type State struct {
	ID           string       `json:"id"`
	EventID      string       `json:"eventId"`
	EventIDError *string      `json:"eventIdError"`
	Records      []PassRecord `json:"records"`
	IsValid      bool         `json:"isValid"`
	IsSubmitting bool         `json:"isSubmitting"`
	Retry        *RetryStatus `json:"retry,omitempty"`
	LastError    string       `json:"lastError,omitempty"`
	LastResult   *Result      `json:"lastResult,omitempty"`
}

// store is the arena of records: ids in insertion order plus an id index.
// Callers must hold Coordinator.mu.
type store struct {
	id           string
	eventID      string
	eventIDError *string
	order        []string
	records      map[string]*PassRecord

	isValid      bool
	isSubmitting bool
	// inFlight holds the ids of records in the submission being sent.
	inFlight map[string]struct{}
	retry        *RetryStatus
	lastError    string
	lastResult   *Result
}

func newStore(id, eventID string) *store {
	return &store{
		id:      id,
		eventID: eventID,
		records: make(map[string]*PassRecord),
	}
}

func (s *store) add() *PassRecord {
	r := newRecord(s.eventID)
	s.order = append(s.order, r.ID)
	s.records[r.ID] = r
	return r
}

func (s *store) remove(id string) bool {
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	for i, rid := range s.order {
		if rid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *store) at(index int) (*PassRecord, error) {
	if index < 0 || index >= len(s.order) {
		return nil, ErrRecordIndex
	}
	return s.records[s.order[index]], nil
}

// list returns records in order.
func (s *store) list() []*PassRecord {
	out := make([]*PassRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// setEventID propagates the event id to every record in one step.
func (s *store) setEventID(eventID string) {
	s.eventID = eventID
	for _, r := range s.records {
		r.Data.EventID = eventID
	}
}

// createdBarcodes returns the barcodes of records created in this batch.
func (s *store) createdBarcodes() []string {
	var out []string
	for _, r := range s.list() {
		if r.Status == StatusCreated {
			out = append(out, r.Data.Barcode)
		}
	}
	return out
}

// duplicateBarcodes returns barcodes that appear on more than one of recs.
func duplicateBarcodes(recs []*PassRecord) map[string]struct{} {
	seen := make(map[string]int, len(recs))
	for _, r := range recs {
		if b := r.Fields[validation.FieldBarcode].Value; b != "" {
			seen[b]++
		}
	}
	dups := make(map[string]struct{})
	for b, n := range seen {
		if n > 1 {
			dups[b] = struct{}{}
		}
	}
	return dups
}

// pending returns the records that have not been created yet.
func (s *store) pending() []*PassRecord {
	var out []*PassRecord
	for _, r := range s.list() {
		if r.Status != StatusCreated {
			out = append(out, r)
		}
	}
	return out
}

// recomputeValidity refreshes isValid without touching field errors: the
// event id is valid, every pending record validates, no pending barcode is
// shared by two records or collides with one already created, and there is
// at least one pending record.
func (s *store) recomputeValidity() {
	pending := s.pending()
	if len(pending) == 0 || !validation.ValidateEventID(s.eventID).Valid {
		s.isValid = false
		return
	}
	existing := validation.BarcodeSet(s.createdBarcodes())
	if len(duplicateBarcodes(pending)) > 0 {
		s.isValid = false
		return
	}
	for _, r := range pending {
		if !validation.ValidateRecord(r.values(), existing).Valid {
			s.isValid = false
			return
		}
	}
	s.isValid = true
}

func (s *store) snapshot() State {
	st := State{
		ID:           s.id,
		EventID:      s.eventID,
		IsValid:      s.isValid,
		IsSubmitting: s.isSubmitting,
		LastError:    s.lastError,
		LastResult:   s.lastResult,
		Records:      make([]PassRecord, 0, len(s.order)),
	}
	if s.eventIDError != nil {
		msg := *s.eventIDError
		st.EventIDError = &msg
	}
	if s.retry != nil {
		rs := *s.retry
		st.Retry = &rs
	}
	for _, r := range s.list() {
		st.Records = append(st.Records, r.clone())
	}
	return st
}
