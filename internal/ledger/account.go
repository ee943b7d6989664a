package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bank_ledger/internal/domain"
)

// Account owns a balance and the history of operations against it. All
// mutable state sits behind mu; callers waiting for funds are woken through
// the changed channel, which is closed and replaced under the lock on every
// credit. seq is the account's position in the global lock-acquisition
// order and never changes after creation.
type Account struct {
	id       string
	seq      uint64
	holder   domain.AccountHolder
	openedAt time.Time
	closedAt time.Time

	waitTimeout time.Duration

	mu      sync.Mutex
	balance decimal.Decimal
	history []*domain.Operation
	changed chan struct{}
}

func newAccount(id string, seq uint64, holder domain.AccountHolder, waitTimeout time.Duration) *Account {
	return &Account{
		id:          id,
		seq:         seq,
		holder:      holder,
		openedAt:    time.Now(),
		waitTimeout: waitTimeout,
		balance:     decimal.Zero,
		changed:     make(chan struct{}),
	}
}

func (a *Account) ID() string {
	return a.id
}

func (a *Account) Holder() domain.AccountHolder {
	return a.holder
}

func (a *Account) OpenedAt() time.Time {
	return a.openedAt
}

// Balance returns the balance as of the call.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// History returns a copy of the operation log in append order.
func (a *Account) History() []domain.Operation {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.Operation, len(a.history))
	for i, op := range a.history {
		out[i] = *op
	}
	return out
}

// Deposit credits amount to the account. It never blocks; any caller
// waiting for funds on this account is woken.
func (a *Account) Deposit(amount decimal.Decimal) (*domain.Operation, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	op := domain.NewOperation(domain.KindDeposit, amount)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.creditLocked(amount)
	_ = op.Complete()
	a.history = append(a.history, op)
	return op, nil
}

// Withdraw debits amount from the account. When the balance is short the
// caller waits, with the lock released, for a credit to make it sufficient,
// up to the account's wait timeout. The attempt is recorded either way:
// completed when the debit applied, canceled on timeout or context
// cancellation. The balance check and debit happen in one critical section,
// so a failed withdrawal never leaves a partial debit.
func (a *Account) Withdraw(ctx context.Context, amount decimal.Decimal) (*domain.Operation, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	op := domain.NewOperation(domain.KindWithdrawal, amount)
	deadline := time.Now().Add(a.waitTimeout)

	a.mu.Lock()
	for a.balance.LessThan(amount) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			a.cancelLocked(op)
			a.mu.Unlock()
			return op, ErrInsufficientFunds
		}

		ch := a.changed
		a.mu.Unlock()
		if err := waitChange(ctx, ch, remaining); err != nil {
			a.mu.Lock()
			a.cancelLocked(op)
			a.mu.Unlock()
			return op, err
		}
		a.mu.Lock()
	}

	a.balance = a.balance.Sub(amount)
	_ = op.Complete()
	a.history = append(a.history, op)
	a.mu.Unlock()
	return op, nil
}

// TransferTo moves amount from this account to recipient. The debit and
// credit happen inside one critical section covering both accounts, locked
// in ascending sequence order regardless of transfer direction, so no
// observer holding either lock sees the debit without the credit. When the
// sender's funds are short the debit phase waits with both locks released,
// under the same timeout as Withdraw. The balance fields are mutated
// directly here; the public Deposit and Withdraw entry points are never
// called with a lock held.
func (a *Account) TransferTo(ctx context.Context, to *Account, amount decimal.Decimal) (*domain.Operation, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if to == nil || to.id == a.id {
		return nil, ErrSameAccount
	}

	debit := domain.NewOperation(domain.KindWithdrawal, amount)
	deadline := time.Now().Add(a.waitTimeout)

	first, second := a, to
	if to.seq < a.seq {
		first, second = to, a
	}

	for {
		first.mu.Lock()
		second.mu.Lock()

		if a.balance.GreaterThanOrEqual(amount) {
			a.balance = a.balance.Sub(amount)
			_ = debit.Complete()
			a.history = append(a.history, debit)

			credit := domain.NewOperation(domain.KindDeposit, amount)
			to.creditLocked(amount)
			_ = credit.Complete()
			to.history = append(to.history, credit)

			second.mu.Unlock()
			first.mu.Unlock()
			return debit, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			a.cancelLocked(debit)
			second.mu.Unlock()
			first.mu.Unlock()
			return debit, ErrInsufficientFunds
		}

		ch := a.changed
		second.mu.Unlock()
		first.mu.Unlock()
		if err := waitChange(ctx, ch, remaining); err != nil {
			a.mu.Lock()
			a.cancelLocked(debit)
			a.mu.Unlock()
			return debit, err
		}
	}
}

// creditLocked adds to the balance and wakes every waiter. Callers must
// hold a.mu.
func (a *Account) creditLocked(amount decimal.Decimal) {
	a.balance = a.balance.Add(amount)
	close(a.changed)
	a.changed = make(chan struct{})
}

// cancelLocked records a failed attempt in the history. Callers must hold
// a.mu.
func (a *Account) cancelLocked(op *domain.Operation) {
	_ = op.Cancel()
	a.history = append(a.history, op)
}

// waitChange blocks until the change channel fires, the wait budget runs
// out, or ctx is done. A nil return means the caller should re-check the
// balance.
func waitChange(ctx context.Context, ch <-chan struct{}, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ch:
		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
