// Package validation implements the field and record rules for pass entries.
//
// Rules are declared once per field name in a fixed catalogue and never
// mutated at runtime. Field validation is pure: the same (field, value, rule)
// input always yields the same Result. Record validation composes field
// validation across all fields of one pass entry and adds the barcode
// uniqueness check.
package validation

import (
	"fmt"
	"regexp"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field names used by the remote pass API and the batch store.
const (
	FieldEventID      = "eventId"
	FieldAccountID    = "accountId"
	FieldBarcode      = "barcode"
	FieldCustomerName = "customerName"
	FieldSpotType     = "spotType"
	FieldLotID        = "lotId"
)

// Spot types accepted by the remote service.
const (
	SpotStandard = "standard"
	SpotPremium  = "premium"
	SpotReserved = "reserved"
)

// RecordFields lists the editable fields of one pass entry, in display order.
// The event id is shared by the whole batch and is validated separately.
var RecordFields = []string{
	FieldAccountID,
	FieldBarcode,
	FieldCustomerName,
	FieldSpotType,
	FieldLotID,
}

// Rule is the declarative constraint set for a single field.
//
// Exactly one of Pattern or Enum is meaningful for a rule; when Enum is
// non-empty the field is an enumerated selection and length/pattern checks
// do not apply.
type Rule struct {
	Label    string
	Required bool
	MinLen   int // runes; 0 disables
	MaxLen   int // runes; 0 disables
	Pattern  *regexp.Regexp
	Enum     []string

	RequiredMessage string
	MinMessage      string
	MaxMessage      string
	PatternMessage  string
	EnumMessage     string
}

var rules = map[string]Rule{
	FieldEventID: {
		Label:           "Event ID",
		Required:        true,
		MinLen:          7,
		MaxLen:          7,
		Pattern:         regexp.MustCompile(`^EV\d{5}$`),
		RequiredMessage: "Event ID is required",
		MinMessage:      "Event ID must be exactly 7 characters",
		MaxMessage:      "Event ID must be exactly 7 characters",
		PatternMessage:  "Event ID must start with EV followed by 5 digits",
	},
	FieldAccountID: {
		Label:           "Account ID",
		Required:        true,
		MinLen:          3,
		MaxLen:          50,
		RequiredMessage: "Account ID is required",
	},
	FieldBarcode: {
		Label:           "Barcode",
		Required:        true,
		MinLen:          8,
		MaxLen:          8,
		Pattern:         regexp.MustCompile(`^[A-Z]{2}\d{6}$`),
		RequiredMessage: "Barcode is required",
		MinMessage:      "Barcode must be exactly 8 characters",
		MaxMessage:      "Barcode must be exactly 8 characters",
		PatternMessage:  "Barcode must be 2 uppercase letters followed by 6 digits",
	},
	FieldCustomerName: {
		Label:           "Customer name",
		Required:        true,
		MinLen:          2,
		MaxLen:          100,
		RequiredMessage: "Customer name is required",
	},
	FieldSpotType: {
		Label:           "Spot type",
		Required:        true,
		Enum:            []string{SpotStandard, SpotPremium, SpotReserved},
		RequiredMessage: "Spot type is required",
		EnumMessage:     "Invalid selection",
	},
	FieldLotID: {
		Label:           "Lot ID",
		Required:        true,
		MinLen:          1,
		MaxLen:          20,
		RequiredMessage: "Lot ID is required",
	},
}

// RuleFor returns the rule registered for field.
func RuleFor(field string) (Rule, bool) {
	r, ok := rules[field]
	return r, ok
}

// DefaultValue is the initial value a new record gets for field.
func DefaultValue(field string) string {
	if field == FieldSpotType {
		return SpotStandard
	}
	return ""
}

func (r Rule) minMessage() string {
	if r.MinMessage != "" {
		return r.MinMessage
	}
	return fmt.Sprintf("%s must be at least %d characters", r.Label, r.MinLen)
}

func (r Rule) maxMessage() string {
	if r.MaxMessage != "" {
		return r.MaxMessage
	}
	return fmt.Sprintf("%s must be at most %d characters", r.Label, r.MaxLen)
}

func (r Rule) requiredMessage() string {
	if r.RequiredMessage != "" {
		return r.RequiredMessage
	}
	return r.Label + " is required"
}

func (r Rule) patternMessage() string {
	if r.PatternMessage != "" {
		return r.PatternMessage
	}
	return r.Label + " has an invalid format"
}

func (r Rule) enumMessage() string {
	if r.EnumMessage != "" {
		return r.EnumMessage
	}
	return "Invalid selection"
}

// Option is one selectable value of an enumerated field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// RuleInfo is the client-facing description of a rule.
type RuleInfo struct {
	Field    string   `json:"field"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	MinLen   int      `json:"minLength,omitempty"`
	MaxLen   int      `json:"maxLength,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
	Options  []Option `json:"options,omitempty"`
}

// Catalogue describes every registered rule, sorted by field name, so a
// browser form can mirror the server-side constraints.
func Catalogue() []RuleInfo {
	title := cases.Title(language.English)

	out := make([]RuleInfo, 0, len(rules))
	for name, r := range rules {
		info := RuleInfo{
			Field:    name,
			Label:    r.Label,
			Required: r.Required,
			MinLen:   r.MinLen,
			MaxLen:   r.MaxLen,
		}
		if r.Pattern != nil {
			info.Pattern = r.Pattern.String()
		}
		for _, v := range r.Enum {
			info.Options = append(info.Options, Option{Value: v, Label: title.String(v)})
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
