package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bank_ledger/internal/domain"
)

// DefaultWaitTimeout bounds how long a withdrawal waits for funds.
const DefaultWaitTimeout = 3 * time.Second

// Ledger is the open set of accounts. Its mutex guards only the account
// map; balance mutation is synchronized per account, so there is no global
// lock across money movement.
type Ledger struct {
	mu          sync.RWMutex
	accounts    map[string]*Account
	nextSeq     atomic.Uint64
	waitTimeout time.Duration
}

// NewLedger creates an empty ledger. A non-positive waitTimeout selects
// DefaultWaitTimeout.
func NewLedger(waitTimeout time.Duration) *Ledger {
	if waitTimeout <= 0 {
		waitTimeout = DefaultWaitTimeout
	}
	return &Ledger{
		accounts:    make(map[string]*Account),
		waitTimeout: waitTimeout,
	}
}

// Open creates an account with a zero balance for holder. The sequence
// number assigned here fixes the account's position in the lock order for
// two-account operations.
func (l *Ledger) Open(holder domain.AccountHolder) *Account {
	seq := l.nextSeq.Add(1)
	a := newAccount(uuid.NewString(), seq, holder, l.waitTimeout)

	l.mu.Lock()
	l.accounts[a.id] = a
	l.mu.Unlock()
	return a
}

// Get resolves an account by ID.
func (l *Ledger) Get(id string) (*Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return a, nil
}

// Count reports how many accounts are open.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}

// Transfer resolves both accounts and moves amount between them.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) (*domain.Operation, error) {
	from, err := l.Get(fromID)
	if err != nil {
		return nil, err
	}
	to, err := l.Get(toID)
	if err != nil {
		return nil, err
	}
	return from.TransferTo(ctx, to, amount)
}

// TotalBalance sums every balance as one consistent cut: all account locks
// are held at once, acquired in sequence order, so no in-flight transfer
// can be observed half-applied.
func (l *Ledger) TotalBalance() decimal.Decimal {
	l.mu.RLock()
	accounts := make([]*Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		accounts = append(accounts, a)
	}
	l.mu.RUnlock()

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].seq < accounts[j].seq })

	for _, a := range accounts {
		a.mu.Lock()
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.balance)
	}
	for i := len(accounts) - 1; i >= 0; i-- {
		accounts[i].mu.Unlock()
	}
	return total
}
