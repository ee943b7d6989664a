package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OperationKind string
type OperationStatus string

const (
	KindDeposit    OperationKind = "deposit"
	KindWithdrawal OperationKind = "withdrawal"

	StatusPending   OperationStatus = "pending"
	StatusCompleted OperationStatus = "completed"
	StatusCanceled  OperationStatus = "canceled"
)

var ErrOperationFinished = errors.New("operation already in a terminal status")

// Operation records one requested balance change and its outcome. An
// operation starts pending and moves to exactly one terminal status;
// a second transition is rejected.
type Operation struct {
	ID        string          `json:"id"`
	Kind      OperationKind   `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	Status    OperationStatus `json:"status"`
}

func NewOperation(kind OperationKind, amount decimal.Decimal) *Operation {
	return &Operation{
		ID:        generateOperationID(),
		Kind:      kind,
		Amount:    amount,
		CreatedAt: time.Now(),
		Status:    StatusPending,
	}
}

// Complete marks the operation as applied to the balance.
func (op *Operation) Complete() error {
	return op.finish(StatusCompleted)
}

// Cancel marks the operation as attempted but not applied.
func (op *Operation) Cancel() error {
	return op.finish(StatusCanceled)
}

func (op *Operation) finish(status OperationStatus) error {
	if op.Status != StatusPending {
		return fmt.Errorf("%w: %s %s is already %s", ErrOperationFinished, op.Kind, op.ID, op.Status)
	}
	op.Status = status
	return nil
}

func generateOperationID() string {
	return uuid.NewString()
}
