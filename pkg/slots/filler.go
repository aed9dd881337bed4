// Package slots normalises recognised entities into typed slot values and
// tracks which required slots an intent is still missing.
package slots

import (
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
)

// Validator turns raw entity text into a typed slot value.
// A false result means "no match" and is never an error.
type Validator func(text string, now time.Time) (domain.SlotValue, bool)

// RequiredTable maps an intent to its required slot names, in elicitation order.
type RequiredTable map[string][]string

// DefaultRequired is the canonical required-slot table.
func DefaultRequired() RequiredTable {
	return RequiredTable{
		domain.IntentGetBalance:         {domain.SlotAccountType},
		domain.IntentBalanceInquiry:     {domain.SlotAccountType},
		domain.IntentTransactionHistory: {domain.SlotAccountType, domain.SlotDateRangeName},
		domain.IntentTransferMoney:      {domain.SlotSourceAccount, domain.SlotTargetAccount, domain.SlotAmountName},
		domain.IntentLostOrStolenCard:   {domain.SlotCardLast4},
	}
}

// DefaultValidators returns the validator for every slot of the default table.
func DefaultValidators() map[string]Validator {
	return map[string]Validator{
		domain.SlotAccountType:   textValidator(AccountType),
		domain.SlotSourceAccount: textValidator(AccountRef),
		domain.SlotTargetAccount: textValidator(AccountRef),
		domain.SlotCardLast4:     textValidator(CardLast4),
		domain.SlotDateRangeName: func(text string, now time.Time) (domain.SlotValue, bool) {
			r, ok := DateRange(text, now)
			if !ok {
				return domain.SlotValue{}, false
			}
			return domain.RangeSlot(r.Start, r.End), true
		},
		domain.SlotAmountName: func(text string, _ time.Time) (domain.SlotValue, bool) {
			a, ok := Amount(text)
			if !ok {
				return domain.SlotValue{}, false
			}
			return domain.AmountSlot(a.Value, a.Currency), true
		},
	}
}

func textValidator(fn func(string) (string, bool)) Validator {
	return func(text string, _ time.Time) (domain.SlotValue, bool) {
		v, ok := fn(text)
		if !ok {
			return domain.SlotValue{}, false
		}
		return domain.TextSlot(v), true
	}
}

// Filler merges validated entities into slots.
// It is immutable after construction and safe for concurrent use.
type Filler struct {
	required   RequiredTable
	validators map[string]Validator
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Filler.
type Option func(*Filler)

// WithClock sets the time source used by relative date validators.
func WithClock(now func() time.Time) Option {
	return func(f *Filler) { f.now = now }
}

// WithValidator registers or replaces the validator for a slot name.
func WithValidator(slot string, v Validator) Option {
	return func(f *Filler) { f.validators[strings.ToLower(slot)] = v }
}

// WithRequired replaces the required-slot table.
func WithRequired(table RequiredTable) Option {
	return func(f *Filler) { f.required = table }
}

// WithLogger sets the logger used to report dropped validators.
func WithLogger(l *slog.Logger) Option {
	return func(f *Filler) { f.logger = l }
}

// New creates a Filler with the default table and validators.
//
// Validators for names that no intent requires are discarded, so Fill can
// never introduce a slot outside the required-slot vocabulary.
func New(opts ...Option) *Filler {
	f := &Filler{
		required:   DefaultRequired(),
		validators: DefaultValidators(),
		now:        time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	vocab := f.Vocabulary()
	for name := range f.validators {
		if _, ok := vocab[name]; !ok {
			f.logger.Warn("dropping validator outside slot vocabulary", "slot", name)
			delete(f.validators, name)
		}
	}
	return f
}

// Vocabulary is the set of every slot name any intent requires.
func (f *Filler) Vocabulary() map[string]struct{} {
	out := make(map[string]struct{})
	for _, names := range f.required {
		for _, n := range names {
			out[n] = struct{}{}
		}
	}
	return out
}

// Fill validates entities into slots. Entities with an unknown type or
// failing validation are dropped; a later entity of the same type wins.
func (f *Filler) Fill(entities []domain.Entity, intent string) domain.Slots {
	out := make(domain.Slots)
	now := f.now()
	for _, e := range entities {
		typ := strings.ToLower(e.Type)
		validate, ok := f.validators[typ]
		if !ok {
			continue
		}
		if v, ok := validate(e.Text, now); ok {
			out[typ] = v
		}
	}
	return out
}

// Required returns the required slots of intent; unknown intents have none.
func (f *Filler) Required(intent string) []string {
	names := f.required[intent]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Missing returns the required slots of intent absent from filled, in table order.
func (f *Filler) Missing(intent string, filled domain.Slots) []string {
	var missing []string
	for _, name := range f.required[intent] {
		if !filled.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
