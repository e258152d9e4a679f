package batch

import (
	"strings"

	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/passapi"
	"github.com/jump-sdk/web-app-to-add-parkhub-passes-ypbiqe-sub001/internal/validation"
)

// CodeNoResult marks a submitted record the server reported on neither list.
const CodeNoResult = "NO_RESULT"

// Success is a record the server created.
type Success struct {
	RecordID     string `json:"recordId"`
	Barcode      string `json:"barcode"`
	ServerID     string `json:"serverId"`
	CustomerName string `json:"customerName"`
}

// Failure is a record the server rejected.
type Failure struct {
	RecordID     string `json:"recordId"`
	Barcode      string `json:"barcode"`
	CustomerName string `json:"customerName"`
	Code         string `json:"code,omitempty"`
	Message      string `json:"message"`
	Field        string `json:"field,omitempty"`
}

// Result is the outcome of one submission attempt. A Result is never
// modified after it is built; a retry of failed records yields a new Result
// merged with the prior one.
type Result struct {
	Successful   []Success `json:"successful"`
	Failed       []Failure `json:"failed"`
	TotalSuccess int       `json:"totalSuccess"`
	TotalFailed  int       `json:"totalFailed"`
	// Submitted is the number of records sent by the attempt that produced
	// this result. A merged result carries the count of the latest attempt.
	Submitted    int       `json:"submitted"`
}

// Outcome summarises a result as success, partial or failed.
func (r *Result) Outcome() string {
	switch {
	case r == nil:
		return "failed"
	case r.TotalFailed == 0:
		return "success"
	case r.TotalSuccess == 0:
		return "failed"
	default:
		return "partial"
	}
}

// submitted pairs a payload with the record it was taken from.
type submitted struct {
	recordID string
	payload  passapi.PassPayload
}

// buildResult maps the server's per-item lists back to record ids through
// the submitted barcodes. Items matching nothing that was submitted are
// ignored; submitted items missing from both lists are reported as failed.
func buildResult(sub []submitted, data *passapi.BatchData) *Result {
	byBarcode := make(map[string]submitted, len(sub))
	for _, s := range sub {
		byBarcode[s.payload.Barcode] = s
	}
	reported := make(map[string]struct{}, len(sub))

	res := &Result{Successful: []Success{}, Failed: []Failure{}}
	for _, ok := range data.Successful {
		s, found := byBarcode[ok.Barcode]
		if !found {
			continue
		}
		if _, dup := reported[s.recordID]; dup {
			continue
		}
		reported[s.recordID] = struct{}{}
		name := ok.CustomerName
		if name == "" {
			name = s.payload.CustomerName
		}
		res.Successful = append(res.Successful, Success{
			RecordID:     s.recordID,
			Barcode:      ok.Barcode,
			ServerID:     ok.PassID,
			CustomerName: name,
		})
	}
	for _, f := range data.Failed {
		s, found := byBarcode[f.Barcode]
		if !found {
			continue
		}
		if _, dup := reported[s.recordID]; dup {
			continue
		}
		reported[s.recordID] = struct{}{}
		name := f.CustomerName
		if name == "" {
			name = s.payload.CustomerName
		}
		res.Failed = append(res.Failed, Failure{
			RecordID:     s.recordID,
			Barcode:      f.Barcode,
			CustomerName: name,
			Code:         f.Error.Code,
			Message:      f.Error.Message,
			Field:        f.Error.Field,
		})
	}
	for _, s := range sub {
		if _, ok := reported[s.recordID]; ok {
			continue
		}
		res.Failed = append(res.Failed, Failure{
			RecordID:     s.recordID,
			Barcode:      s.payload.Barcode,
			CustomerName: s.payload.CustomerName,
			Code:         CodeNoResult,
			Message:      "no result reported for this pass",
		})
	}
	res.TotalSuccess = len(res.Successful)
	res.TotalFailed = len(res.Failed)
	res.Submitted = len(sub)
	return res
}

// mergeResults combines the result of a retry of failed records with the
// prior result: prior successes are kept, prior failures for the retried
// records are replaced by the new outcome.
func mergeResults(prior, next *Result, retried map[string]struct{}) *Result {
	if prior == nil {
		return next
	}
	out := &Result{
		Successful: make([]Success, 0, len(prior.Successful)+len(next.Successful)),
		Failed:     make([]Failure, 0, len(prior.Failed)+len(next.Failed)),
		Submitted:  next.Submitted,
	}
	out.Successful = append(out.Successful, prior.Successful...)
	out.Successful = append(out.Successful, next.Successful...)
	for _, f := range prior.Failed {
		if _, ok := retried[f.RecordID]; !ok {
			out.Failed = append(out.Failed, f)
		}
	}
	out.Failed = append(out.Failed, next.Failed...)
	out.TotalSuccess = len(out.Successful)
	out.TotalFailed = len(out.Failed)
	return out
}

// apply writes a result into the store. Created records are flagged and
// their data reset to what the server created; failed records keep the
// current user input and get the server error on the offending field.
func (s *store) apply(sub []submitted, res *Result) {
	payloads := make(map[string]passapi.PassPayload, len(sub))
	for _, it := range sub {
		payloads[it.recordID] = it.payload
	}

	for _, ok := range res.Successful {
		r, found := s.records[ok.RecordID]
		if !found {
			continue
		}
		if p, has := payloads[ok.RecordID]; has {
			r.Data = PassData(p)
			for name, f := range r.Fields {
				f.Value = fieldOf(r.Data, name)
				f.Error = nil
				f.Dirty = false
				r.Fields[name] = f
			}
		}
		r.Status = StatusCreated
		r.PassID = ok.ServerID
		r.ServerError = nil
	}

	for _, f := range res.Failed {
		r, found := s.records[f.RecordID]
		if !found {
			continue
		}
		r.Status = StatusFailed
		r.ServerError = &ServerError{Code: f.Code, Message: f.Message, Field: f.Field}
		if field := errorField(f); field != "" {
			r.setFieldError(field, f.Message, true)
		}
	}
}

// errorField picks the record field a server failure belongs to.
func errorField(f Failure) string {
	if _, ok := validation.RuleFor(f.Field); ok && f.Field != validation.FieldEventID {
		return f.Field
	}
	if f.Field == "" && strings.Contains(strings.ToLower(f.Message), "barcode") {
		return validation.FieldBarcode
	}
	return ""
}

func fieldOf(d PassData, field string) string {
	switch field {
	case validation.FieldAccountID:
		return d.AccountID
	case validation.FieldBarcode:
		return d.Barcode
	case validation.FieldCustomerName:
		return d.CustomerName
	case validation.FieldSpotType:
		return d.SpotType
	case validation.FieldLotID:
		return d.LotID
	}
	return ""
}

func toPayload(d PassData) passapi.PassPayload {
	return passapi.PassPayload(d)
}
