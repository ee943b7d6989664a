package server

import (
	"time"

	"bank_ledger/internal/domain"
)

// The wire protocol is newline-delimited JSON: one Request per line in, one
// Response per line out, on a plain TCP connection.

const (
	ActionOpen     = "open"
	ActionDeposit  = "deposit"
	ActionWithdraw = "withdraw"
	ActionTransfer = "transfer"
	ActionBalance  = "balance"
	ActionHistory  = "history"
)

type Request struct {
	Action       string `json:"action"`
	AccountID    string `json:"account_id,omitempty"`
	ToAccountID  string `json:"to_account_id,omitempty"`
	Amount       string `json:"amount,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	CreditRating int    `json:"credit_rating,omitempty"`
}

type Response struct {
	Status     string          `json:"status"`
	Error      string          `json:"error,omitempty"`
	Code       string          `json:"code,omitempty"`
	AccountID  string          `json:"account_id,omitempty"`
	Balance    string          `json:"balance,omitempty"`
	Operations []OperationView `json:"operations,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

type OperationView struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newOperationView(op domain.Operation) OperationView {
	return OperationView{
		ID:        op.ID,
		Kind:      string(op.Kind),
		Amount:    op.Amount.String(),
		Status:    string(op.Status),
		CreatedAt: op.CreatedAt,
	}
}
