// Package ledger implements the concurrent account core: per-account
// synchronized balances, operation history, bounded waiting for funds and
// deadlock-free two-account transfers.
package ledger

import "errors"

var (
	// ErrInvalidAmount rejects non-positive amounts on any operation.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds means a withdrawal could not be satisfied
	// within the wait timeout.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSameAccount rejects a transfer whose sender and recipient are
	// the same account.
	ErrSameAccount = errors.New("cannot transfer to the same account")

	// ErrAccountNotFound means the ledger has no account with that ID.
	ErrAccountNotFound = errors.New("account not found")
)
