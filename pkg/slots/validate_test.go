package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccountNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1234567890", "1234567890", true},
		{"123-456 7890", "1234567890", true},
		{"123456789", "", false},
		{"12345678901", "", false},
		{"acct 1234567890", "", false},
	}
	for _, tt := range tests {
		got, ok := AccountNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestCardLast4(t *testing.T) {
	got, ok := CardLast4("card ending in 4821")
	assert.True(t, ok)
	assert.Equal(t, "4821", got)

	got, ok = CardLast4("123456")
	assert.True(t, ok)
	assert.Equal(t, "1234", got)

	_, ok = CardLast4("no digits 12")
	assert.False(t, ok)
}

func TestDateRange(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	r, ok := DateRange("show me Last Week", now)
	assert.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, -7), r.Start)
	assert.Equal(t, now, r.End)

	r, ok = DateRange("last month please", now)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), r.Start)

	r, ok = DateRange("from 2024-01-01 through 2024-01-31", now)
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), r.End)

	_, ok = DateRange("2024-01-01-2024-01-05", now)
	assert.True(t, ok)

	r, ok = DateRange("last week or 2020-01-01 to 2020-02-01", now)
	assert.True(t, ok)
	assert.Equal(t, now, r.End, "relative keywords take precedence")

	_, ok = DateRange("2024-13-01 to 2024-14-01", now)
	assert.False(t, ok, "malformed explicit dates")

	_, ok = DateRange("yesterday", now)
	assert.False(t, ok)
}

func TestAmount(t *testing.T) {
	tests := []struct {
		in       string
		value    float64
		currency string
	}{
		{"$500", 500, "USD"},
		{"€ 12.50", 12.5, "EUR"},
		{"£7", 7, "GBP"},
		{"¥1000", 1000, "JPY"},
		{"250 CAD", 250, "CAD"},
		{"transfer 500", 500, "USD"},
		{"$20 EUR", 20, "EUR"},
	}
	for _, tt := range tests {
		a, ok := Amount(tt.in)
		assert.True(t, ok, tt.in)
		assert.InDelta(t, tt.value, a.Value, 1e-9, tt.in)
		assert.Equal(t, tt.currency, a.Currency, tt.in)
	}

	_, ok := Amount("nothing")
	assert.False(t, ok)
}

func TestAccountTypeAndRef(t *testing.T) {
	for in, want := range map[string]string{
		"Checking":        AccountChecking,
		"my savings":      AccountSavings,
		"credit card":     AccountCreditCard,
		"  Credit   Card": AccountCreditCard,
	} {
		got, ok := AccountType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := AccountType("brokerage")
	assert.False(t, ok)

	got, ok := AccountRef("savings")
	assert.True(t, ok)
	assert.Equal(t, AccountSavings, got)

	got, ok = AccountRef("9876543210")
	assert.True(t, ok)
	assert.Equal(t, "9876543210", got)

	_, ok = AccountRef("mattress")
	assert.False(t, ok)
}
