package validation

import (
	"strings"
	"unicode/utf8"
)

// Message used whenever a barcode collides with another barcode already
// committed for the event or used elsewhere in the same batch.
const MsgDuplicateBarcode = "Barcode already exists"

// RecordErrorKey holds record-level (not field-level) problems in
// RecordResult.Errors.
const RecordErrorKey = "_record"

// Result is the outcome of validating a single field value.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func invalid(msg string) Result { return Result{Valid: false, Error: msg} }

// Validate checks value against the registered rule for field.
//
// An unknown field name is reported as invalid; that is a programming error
// on the caller's side rather than user input.
func Validate(field, value string) Result {
	r, ok := rules[field]
	if !ok {
		return invalid("unknown field: " + field)
	}
	return ValidateWith(r, value)
}

// ValidateWith checks value against an explicit rule. Checks run in a fixed
// order: required, length bounds, then pattern (or enum membership for
// enumerated fields).
func ValidateWith(r Rule, value string) Result {
	if strings.TrimSpace(value) == "" {
		if r.Required {
			return invalid(r.requiredMessage())
		}
		return Result{Valid: true}
	}

	if len(r.Enum) > 0 {
		for _, v := range r.Enum {
			if v == value {
				return Result{Valid: true}
			}
		}
		return invalid(r.enumMessage())
	}

	n := utf8.RuneCountInString(value)
	if r.MinLen > 0 && n < r.MinLen {
		return invalid(r.minMessage())
	}
	if r.MaxLen > 0 && n > r.MaxLen {
		return invalid(r.maxMessage())
	}

	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		return invalid(r.patternMessage())
	}
	return Result{Valid: true}
}

// ValidateEventID validates the batch-wide event id.
func ValidateEventID(eventID string) Result {
	return Validate(FieldEventID, eventID)
}

// RecordResult aggregates the field results of one record.
type RecordResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ValidateRecord validates every field of a record independently and
// collects all failures. When the barcode passes its field rule but is
// present in existing (exact, case-sensitive match) it is reported as a
// duplicate. A record without fields is invalid.
func ValidateRecord(values map[string]string, existing map[string]struct{}) RecordResult {
	if len(values) == 0 {
		return RecordResult{
			Valid:  false,
			Errors: map[string]string{RecordErrorKey: "record has no fields"},
		}
	}

	errs := make(map[string]string)
	for field, value := range values {
		res := Validate(field, value)
		if field == FieldBarcode && res.Valid {
			if _, dup := existing[value]; dup {
				res = invalid(MsgDuplicateBarcode)
			}
		}
		if !res.Valid {
			errs[field] = res.Error
		}
	}

	if len(errs) == 0 {
		return RecordResult{Valid: true}
	}
	return RecordResult{Valid: false, Errors: errs}
}

// BarcodeSet builds a lookup set from a list of barcodes, skipping blanks.
func BarcodeSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, l := range lists {
		for _, b := range l {
			if b = strings.TrimSpace(b); b != "" {
				set[b] = struct{}{}
			}
		}
	}
	return set
}
