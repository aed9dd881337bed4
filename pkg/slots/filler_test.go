package slots_test

import (
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/slots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func newFiller(opts ...slots.Option) *slots.Filler {
	return slots.New(append([]slots.Option{slots.WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

func TestFill_ValidatesAndLowercasesTypes(t *testing.T) {
	f := newFiller()

	got := f.Fill([]domain.Entity{
		{Type: "ACCOUNT_TYPE", Text: "Savings"},
		{Type: "date_range", Text: "last week"},
		{Type: "amount", Text: "$42.10"},
	}, domain.IntentTransactionHistory)

	require.Len(t, got, 3)
	assert.Equal(t, domain.TextSlot("savings"), got[domain.SlotAccountType])
	assert.Equal(t, domain.RangeSlot(fixedNow.AddDate(0, 0, -7), fixedNow), got[domain.SlotDateRangeName])
	assert.Equal(t, domain.AmountSlot(42.10, "USD"), got[domain.SlotAmountName])
}

func TestFill_DropsUnknownAndInvalid(t *testing.T) {
	f := newFiller()

	got := f.Fill([]domain.Entity{
		{Type: "PERSON", Text: "Alice"},
		{Type: "card_last4", Text: "no digits"},
		{Type: "account_type", Text: "brokerage"},
	}, domain.IntentLostOrStolenCard)

	assert.Empty(t, got)
}

func TestFill_LastWriteWins(t *testing.T) {
	f := newFiller()

	got := f.Fill([]domain.Entity{
		{Type: "account_type", Text: "checking"},
		{Type: "account_type", Text: "savings"},
	}, domain.IntentGetBalance)

	assert.Equal(t, domain.TextSlot("savings"), got[domain.SlotAccountType])
}

func TestNew_DropsValidatorsOutsideVocabulary(t *testing.T) {
	f := newFiller(slots.WithValidator("person", func(text string, _ time.Time) (domain.SlotValue, bool) {
		return domain.TextSlot(text), true
	}))

	got := f.Fill([]domain.Entity{{Type: "PERSON", Text: "Alice"}}, domain.IntentGetBalance)
	assert.Empty(t, got)

	_, known := f.Vocabulary()["person"]
	assert.False(t, known)
}

func TestRequiredAndMissing(t *testing.T) {
	f := newFiller()

	assert.Equal(t, []string{"source_account", "target_account", "amount"}, f.Required(domain.IntentTransferMoney))
	assert.Empty(t, f.Required("unknown_intent"))
	assert.Empty(t, f.Missing("unknown_intent", nil))

	filled := domain.Slots{domain.SlotTargetAccount: domain.TextSlot("savings")}
	assert.Equal(t, []string{"source_account", "amount"}, f.Missing(domain.IntentTransferMoney, filled))

	// Mutating the returned slice must not affect the table.
	req := f.Required(domain.IntentGetBalance)
	req[0] = "tampered"
	assert.Equal(t, []string{"account_type"}, f.Required(domain.IntentGetBalance))
}

func TestMissing_Monotonic(t *testing.T) {
	f := newFiller()
	entities := []domain.Entity{
		{Type: "amount", Text: "$500"},
		{Type: "target_account", Text: "savings"},
		{Type: "noise", Text: "whatever"},
		{Type: "source_account", Text: "1234567890"},
	}

	for _, intent := range []string{domain.IntentTransferMoney, domain.IntentTransactionHistory, domain.IntentGetBalance} {
		filled := domain.Slots{}
		prev := len(f.Missing(intent, filled))
		for _, e := range entities {
			for k, v := range f.Fill([]domain.Entity{e}, intent) {
				filled[k] = v
			}
			cur := len(f.Missing(intent, filled))
			assert.LessOrEqual(t, cur, prev, "intent %s after %s", intent, e.Type)
			prev = cur
		}
	}
}

func TestWithRequired(t *testing.T) {
	f := newFiller(slots.WithRequired(slots.RequiredTable{"check_card": {"card_last4"}}))

	assert.Equal(t, []string{"card_last4"}, f.Required("check_card"))
	assert.Empty(t, f.Required(domain.IntentGetBalance))

	got := f.Fill([]domain.Entity{{Type: "account_type", Text: "checking"}}, "check_card")
	assert.Empty(t, got, "account_type left the vocabulary with the custom table")
}
