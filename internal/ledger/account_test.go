package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bank_ledger/internal/domain"
)

func testHolder() domain.AccountHolder {
	return domain.NewAccountHolder("Doe", "Jane", 700)
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestAccount_Deposit(t *testing.T) {
	account := NewLedger(0).Open(testHolder())

	op, err := account.Deposit(dec(100))

	if err != nil {
		t.Fatalf("unexpected error on Deposit: %v", err)
	}
	if !account.Balance().Equal(dec(100)) {
		t.Errorf("expected balance 100, got %s", account.Balance())
	}
	if op.Kind != domain.KindDeposit || op.Status != domain.StatusCompleted {
		t.Errorf("expected completed deposit operation, got %+v", op)
	}

	history := account.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 operation in history, got %d", len(history))
	}
	if history[0].ID != op.ID {
		t.Errorf("expected history to contain operation %s, got %s", op.ID, history[0].ID)
	}
}

func TestAccount_Deposit_InvalidAmount(t *testing.T) {
	account := NewLedger(0).Open(testHolder())
	_, _ = account.Deposit(dec(100))

	for _, amount := range []decimal.Decimal{dec(0), dec(-5)} {
		_, err := account.Deposit(amount)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("Deposit(%s): expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if !account.Balance().Equal(dec(100)) {
		t.Errorf("expected balance unchanged at 100, got %s", account.Balance())
	}
	if len(account.History()) != 1 {
		t.Errorf("expected rejected deposits to leave no history entries, got %d", len(account.History()))
	}
}

func TestAccount_Withdraw_ImmediateSuccess(t *testing.T) {
	account := NewLedger(0).Open(testHolder())
	_, _ = account.Deposit(dec(100))

	op, err := account.Withdraw(context.Background(), dec(40))

	if err != nil {
		t.Fatalf("unexpected error on Withdraw: %v", err)
	}
	if !account.Balance().Equal(dec(60)) {
		t.Errorf("expected balance 60, got %s", account.Balance())
	}
	if op.Kind != domain.KindWithdrawal || op.Status != domain.StatusCompleted {
		t.Errorf("expected completed withdrawal operation, got %+v", op)
	}
}

func TestAccount_Withdraw_ExactBalance(t *testing.T) {
	account := NewLedger(0).Open(testHolder())
	_, _ = account.Deposit(dec(100))

	start := time.Now()
	_, err := account.Withdraw(context.Background(), dec(100))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error on Withdraw: %v", err)
	}
	if !account.Balance().IsZero() {
		t.Errorf("expected balance 0, got %s", account.Balance())
	}
	if elapsed > time.Second {
		t.Errorf("expected an exact-balance withdrawal not to wait, took %s", elapsed)
	}
}

func TestAccount_Withdraw_InvalidAmount(t *testing.T) {
	account := NewLedger(0).Open(testHolder())
	_, _ = account.Deposit(dec(100))

	_, err := account.Withdraw(context.Background(), dec(-1))

	if !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if !account.Balance().Equal(dec(100)) {
		t.Errorf("expected balance unchanged at 100, got %s", account.Balance())
	}
}

func TestAccount_Withdraw_TimesOut(t *testing.T) {
	account := NewLedger(100 * time.Millisecond).Open(testHolder())
	_, _ = account.Deposit(dec(50))

	op, err := account.Withdraw(context.Background(), dec(80))

	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !account.Balance().Equal(dec(50)) {
		t.Errorf("expected balance unchanged at 50, got %s", account.Balance())
	}
	if op.Status != domain.StatusCanceled {
		t.Errorf("expected canceled operation, got %s", op.Status)
	}

	history := account.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 operations in history, got %d", len(history))
	}
	if history[1].Kind != domain.KindWithdrawal || history[1].Status != domain.StatusCanceled {
		t.Errorf("expected a canceled withdrawal recorded, got %+v", history[1])
	}
}

func TestAccount_Withdraw_WokenByDeposit(t *testing.T) {
	account := NewLedger(2 * time.Second).Open(testHolder())

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = account.Deposit(dec(100))
	}()

	start := time.Now()
	_, err := account.Withdraw(context.Background(), dec(100))
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("expected withdrawal to succeed after deposit, got %v", err)
	}
	if elapsed >= 2*time.Second {
		t.Errorf("expected withdrawal to be woken before the timeout, took %s", elapsed)
	}
	if !account.Balance().IsZero() {
		t.Errorf("expected balance 0, got %s", account.Balance())
	}
}

func TestAccount_Withdraw_ContextCanceled(t *testing.T) {
	account := NewLedger(5 * time.Second).Open(testHolder())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	op, err := account.Withdraw(ctx, dec(100))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if op.Status != domain.StatusCanceled {
		t.Errorf("expected canceled operation, got %s", op.Status)
	}
	if !account.Balance().IsZero() {
		t.Errorf("expected balance unchanged at 0, got %s", account.Balance())
	}
}

func TestAccount_History_PreservesOrder(t *testing.T) {
	account := NewLedger(50 * time.Millisecond).Open(testHolder())

	_, _ = account.Deposit(dec(100))
	_, _ = account.Withdraw(context.Background(), dec(30))
	_, _ = account.Withdraw(context.Background(), dec(500))
	_, _ = account.Deposit(dec(10))

	history := account.History()
	want := []struct {
		kind   domain.OperationKind
		status domain.OperationStatus
	}{
		{domain.KindDeposit, domain.StatusCompleted},
		{domain.KindWithdrawal, domain.StatusCompleted},
		{domain.KindWithdrawal, domain.StatusCanceled},
		{domain.KindDeposit, domain.StatusCompleted},
	}

	if len(history) != len(want) {
		t.Fatalf("expected %d operations, got %d", len(want), len(history))
	}
	for i, w := range want {
		if history[i].Kind != w.kind || history[i].Status != w.status {
			t.Errorf("operation %d: expected %s/%s, got %s/%s",
				i, w.kind, w.status, history[i].Kind, history[i].Status)
		}
	}
}

func TestAccount_ConcurrentDeposits(t *testing.T) {
	account := NewLedger(0).Open(testHolder())

	const workers = 50
	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = account.Deposit(dec(1))
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}

	if !account.Balance().Equal(dec(workers)) {
		t.Errorf("expected balance %d, got %s", workers, account.Balance())
	}
	if len(account.History()) != workers {
		t.Errorf("expected %d history entries, got %d", workers, len(account.History()))
	}
}
