package domain

import (
	"fmt"
	"strconv"
	"time"
)

// SlotKind identifies which variant a SlotValue carries.
type SlotKind string

const (
	SlotText      SlotKind = "text"
	SlotDateRange SlotKind = "date_range"
	SlotAmount    SlotKind = "amount"
)

// DateRange is an inclusive time interval.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Amount is a monetary value with its ISO 4217 currency code.
type Amount struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// SlotValue is a validated slot value. Exactly one payload matches Kind.
type SlotValue struct {
	Kind   SlotKind   `json:"kind"`
	Text   string     `json:"text,omitempty"`
	Range  *DateRange `json:"range,omitempty"`
	Amount *Amount    `json:"amount,omitempty"`
}

// TextSlot wraps a plain string value.
func TextSlot(s string) SlotValue {
	return SlotValue{Kind: SlotText, Text: s}
}

// RangeSlot wraps a date range.
func RangeSlot(start, end time.Time) SlotValue {
	return SlotValue{Kind: SlotDateRange, Range: &DateRange{Start: start, End: end}}
}

// AmountSlot wraps a monetary amount.
func AmountSlot(value float64, currency string) SlotValue {
	return SlotValue{Kind: SlotAmount, Amount: &Amount{Value: value, Currency: currency}}
}

// String renders the value the way it appears in responses.
func (v SlotValue) String() string {
	switch v.Kind {
	case SlotDateRange:
		if v.Range == nil {
			return ""
		}
		return fmt.Sprintf("%s to %s", v.Range.Start.Format(time.DateOnly), v.Range.End.Format(time.DateOnly))
	case SlotAmount:
		if v.Amount == nil {
			return ""
		}
		return strconv.FormatFloat(v.Amount.Value, 'f', 2, 64) + " " + v.Amount.Currency
	default:
		return v.Text
	}
}

// Equal compares two slot values by content.
func (v SlotValue) Equal(o SlotValue) bool {
	if v.Kind != o.Kind || v.Text != o.Text {
		return false
	}
	switch {
	case (v.Range == nil) != (o.Range == nil):
		return false
	case v.Range != nil && (!v.Range.Start.Equal(o.Range.Start) || !v.Range.End.Equal(o.Range.End)):
		return false
	case (v.Amount == nil) != (o.Amount == nil):
		return false
	case v.Amount != nil && *v.Amount != *o.Amount:
		return false
	}
	return true
}

func (v SlotValue) clone() SlotValue {
	out := v
	if v.Range != nil {
		r := *v.Range
		out.Range = &r
	}
	if v.Amount != nil {
		a := *v.Amount
		out.Amount = &a
	}
	return out
}

// Slots maps slot names to validated values.
type Slots map[string]SlotValue

// Has reports whether the named slot is set.
func (s Slots) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Clone returns a deep copy.
func (s Slots) Clone() Slots {
	out := make(Slots, len(s))
	for k, v := range s {
		out[k] = v.clone()
	}
	return out
}

// Strings renders every slot with SlotValue.String, for template binding.
func (s Slots) Strings() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v.String()
	}
	return out
}

// Equal compares two slot maps by content.
func (s Slots) Equal(o Slots) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
