package slots

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
)

var (
	accountNumberRe = regexp.MustCompile(`^\d{10}$`)
	last4Re         = regexp.MustCompile(`\d{4}`)
	explicitRangeRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s*(?:to|through|-)\s*(\d{4}-\d{2}-\d{2})`)
	amountRe        = regexp.MustCompile(`([$€¥£]?)\s*(\d+\.?\d*)\s*([A-Z]{3})?`)
)

var currencyBySymbol = map[string]string{
	"$": "USD",
	"€": "EUR",
	"¥": "JPY",
	"£": "GBP",
}

// DefaultCurrency applies when an amount carries neither a code nor a symbol.
const DefaultCurrency = "USD"

// Account types understood by the account_type slot.
const (
	AccountChecking   = "checking"
	AccountSavings    = "savings"
	AccountCreditCard = "credit_card"
)

var accountTypeAliases = map[string]string{
	"checking":         AccountChecking,
	"chequing":         AccountChecking,
	"current":          AccountChecking,
	"savings":          AccountSavings,
	"saving":           AccountSavings,
	"credit":           AccountCreditCard,
	"credit card":      AccountCreditCard,
	"credit_card":      AccountCreditCard,
	"credit-card":      AccountCreditCard,
	"creditcard":       AccountCreditCard,
	"checking account": AccountChecking,
	"savings account":  AccountSavings,
}

// AccountNumber accepts exactly ten digits once spaces and dashes are removed.
func AccountNumber(text string) (string, bool) {
	compact := strings.NewReplacer(" ", "", "-", "").Replace(text)
	if !accountNumberRe.MatchString(compact) {
		return "", false
	}
	return compact, true
}

// CardLast4 returns the first run of four digits anywhere in text.
func CardLast4(text string) (string, bool) {
	m := last4Re.FindString(text)
	return m, m != ""
}

// DateRange parses "last week", "last month" or an explicit
// "YYYY-MM-DD to YYYY-MM-DD" range. Relative keywords win over explicit dates.
func DateRange(text string, now time.Time) (domain.DateRange, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "last week"):
		return domain.DateRange{Start: now.AddDate(0, 0, -7), End: now}, true
	case strings.Contains(lower, "last month"):
		return domain.DateRange{Start: now.AddDate(0, 0, -30), End: now}, true
	}

	m := explicitRangeRe.FindStringSubmatch(text)
	if m == nil {
		return domain.DateRange{}, false
	}
	start, err := time.Parse(time.DateOnly, m[1])
	if err != nil {
		return domain.DateRange{}, false
	}
	end, err := time.Parse(time.DateOnly, m[2])
	if err != nil {
		return domain.DateRange{}, false
	}
	return domain.DateRange{Start: start, End: end}, true
}

// Amount parses an optional currency symbol, a number and an optional ISO code.
func Amount(text string) (domain.Amount, bool) {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return domain.Amount{}, false
	}
	value, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return domain.Amount{}, false
	}
	currency := m[3]
	if currency == "" {
		currency = DefaultCurrency
		if code, ok := currencyBySymbol[m[1]]; ok {
			currency = code
		}
	}
	return domain.Amount{Value: value, Currency: currency}, true
}

// AccountType normalises an account type mention to checking, savings or credit_card.
func AccountType(text string) (string, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if t, ok := accountTypeAliases[key]; ok {
		return t, true
	}
	for _, word := range strings.Fields(key) {
		if t, ok := accountTypeAliases[word]; ok {
			return t, true
		}
	}
	return "", false
}

// AccountRef identifies a transfer endpoint by account type or ten-digit number.
func AccountRef(text string) (string, bool) {
	if t, ok := AccountType(text); ok {
		return t, true
	}
	return AccountNumber(text)
}
