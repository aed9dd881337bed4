package offline

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/slots"
)

type account struct {
	balance float64
	id      string
}

var merchants = []string{"Amazon", "Starbucks", "Walmart", "Gas Station", "Netflix"}

// Bank is a mock banking backend with fixed balances and random transactions.
type Bank struct {
	accounts map[string]account
	routes   *registry.Registry

	mu  sync.Mutex
	rng *rand.Rand
}

// BankOption configures a Bank.
type BankOption func(*Bank)

// WithSeed makes generated transactions and confirmation codes reproducible.
func WithSeed(seed uint64) BankOption {
	return func(b *Bank) { b.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// NewBank creates the mock backend.
func NewBank(opts ...BankOption) *Bank {
	b := &Bank{
		accounts: map[string]account{
			slots.AccountChecking:   {balance: 2450.32, id: "****7890"},
			slots.AccountSavings:    {balance: 15230.50, id: "****3421"},
			slots.AccountCreditCard: {balance: -1250.00, id: "****5678"},
		},
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.routes = registry.NewRegistry()
	b.routes.RegisterFunc(domain.IntentGetBalance, b.balance)
	b.routes.RegisterFunc(domain.IntentBalanceInquiry, b.balance)
	b.routes.RegisterFunc(domain.IntentTransactionHistory, b.transactions)
	b.routes.RegisterFunc(domain.IntentTransferMoney, b.transfer)
	b.routes.RegisterFunc(domain.IntentLostOrStolenCard, func(context.Context, domain.Slots) (map[string]any, error) {
		return map[string]any{"status": "reported", "new_card_eta": "3-5 business days"}, nil
	})
	b.routes.SetFallback(ports.BackendFunc(func(context.Context, string, domain.Slots) (map[string]any, error) {
		return map[string]any{"message": "Request processed"}, nil
	}))
	return b
}

// Query implements ports.Backend.
func (b *Bank) Query(ctx context.Context, intent string, filled domain.Slots) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.routes.Query(ctx, intent, filled)
}

func (b *Bank) balance(_ context.Context, filled domain.Slots) (map[string]any, error) {
	accountType := slots.AccountChecking
	if v, ok := filled[domain.SlotAccountType]; ok {
		accountType = v.String()
	}
	acc, ok := b.accounts[accountType]
	if !ok {
		acc = b.accounts[slots.AccountChecking]
	}
	return map[string]any{
		"balance":      acc.balance,
		"account_id":   acc.id,
		"account_type": accountType,
	}, nil
}

func (b *Bank) transactions(context.Context, domain.Slots) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	txs := make([]map[string]any, 5)
	for i := range txs {
		txs[i] = map[string]any{
			"merchant": merchants[b.rng.IntN(len(merchants))],
			"amount":   math.Round((5+b.rng.Float64()*195)*100) / 100,
			"type":     "debit",
		}
	}
	return map[string]any{"transactions": txs}, nil
}

func (b *Bank) transfer(context.Context, domain.Slots) (map[string]any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return map[string]any{
		"status":            "success",
		"confirmation_code": fmt.Sprintf("TRANS%d", 100000+b.rng.IntN(900000)),
	}, nil
}
