package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"bank_ledger/internal/domain"
	"bank_ledger/internal/ledger"
)

func (s *Server) handle(ctx context.Context, req Request) Response {
	switch req.Action {
	case ActionOpen:
		return s.handleOpen(req)
	case ActionDeposit:
		return s.handleDeposit(req)
	case ActionWithdraw:
		return s.handleWithdraw(ctx, req)
	case ActionTransfer:
		return s.handleTransfer(ctx, req)
	case ActionBalance:
		return s.handleBalance(req)
	case ActionHistory:
		return s.handleHistory(req)
	default:
		return errorResponse("unknown action: "+req.Action, "UNKNOWN_ACTION")
	}
}

func (s *Server) handleOpen(req Request) Response {
	holder := domain.NewAccountHolder(req.LastName, req.FirstName, req.CreditRating)
	account := s.ledger.Open(holder)
	s.metrics.AccountOpened()

	s.logger.Info("Account opened",
		slog.String("account_id", account.ID()),
		slog.String("holder", req.LastName))

	return Response{
		Status:    StatusOK,
		AccountID: account.ID(),
		Balance:   account.Balance().String(),
	}
}

func (s *Server) handleDeposit(req Request) Response {
	amount, resp, ok := parseAmount(req.Amount)
	if !ok {
		return resp
	}
	account, err := s.ledger.Get(req.AccountID)
	if err != nil {
		return ledgerError(err)
	}

	start := time.Now()
	_, err = account.Deposit(amount)
	s.metrics.RecordOperation(string(domain.KindDeposit), time.Since(start), err == nil)
	if err != nil {
		return ledgerError(err)
	}

	balance := account.Balance()
	s.metrics.UpdateAccountBalance(account.ID(), balance.InexactFloat64())
	return Response{Status: StatusOK, AccountID: account.ID(), Balance: balance.String()}
}

func (s *Server) handleWithdraw(ctx context.Context, req Request) Response {
	amount, resp, ok := parseAmount(req.Amount)
	if !ok {
		return resp
	}
	account, err := s.ledger.Get(req.AccountID)
	if err != nil {
		return ledgerError(err)
	}

	start := time.Now()
	_, err = account.Withdraw(ctx, amount)
	elapsed := time.Since(start)
	s.metrics.RecordOperation(string(domain.KindWithdrawal), elapsed, err == nil)
	s.metrics.RecordWithdrawalWait(elapsed)
	if err != nil {
		s.logger.Warn("Withdrawal failed",
			slog.String("account_id", req.AccountID),
			slog.String("error", err.Error()))
		return ledgerError(err)
	}

	balance := account.Balance()
	s.metrics.UpdateAccountBalance(account.ID(), balance.InexactFloat64())
	return Response{Status: StatusOK, AccountID: account.ID(), Balance: balance.String()}
}

func (s *Server) handleTransfer(ctx context.Context, req Request) Response {
	amount, resp, ok := parseAmount(req.Amount)
	if !ok {
		return resp
	}

	start := time.Now()
	_, err := s.ledger.Transfer(ctx, req.AccountID, req.ToAccountID, amount)
	s.metrics.RecordOperation("transfer", time.Since(start), err == nil)
	if err != nil {
		s.logger.Warn("Transfer failed",
			slog.String("from", req.AccountID),
			slog.String("to", req.ToAccountID),
			slog.String("error", err.Error()))
		return ledgerError(err)
	}

	from, err := s.ledger.Get(req.AccountID)
	if err != nil {
		return ledgerError(err)
	}
	balance := from.Balance()
	s.metrics.UpdateAccountBalance(req.AccountID, balance.InexactFloat64())
	return Response{Status: StatusOK, AccountID: req.AccountID, Balance: balance.String()}
}

func (s *Server) handleBalance(req Request) Response {
	account, err := s.ledger.Get(req.AccountID)
	if err != nil {
		return ledgerError(err)
	}
	return Response{Status: StatusOK, AccountID: account.ID(), Balance: account.Balance().String()}
}

func (s *Server) handleHistory(req Request) Response {
	account, err := s.ledger.Get(req.AccountID)
	if err != nil {
		return ledgerError(err)
	}

	history := account.History()
	views := make([]OperationView, len(history))
	for i, op := range history {
		views[i] = newOperationView(op)
	}
	return Response{
		Status:     StatusOK,
		AccountID:  account.ID(),
		Balance:    account.Balance().String(),
		Operations: views,
	}
}

func parseAmount(raw string) (decimal.Decimal, Response, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errorResponse("amount is not a valid decimal", "INVALID_AMOUNT"), false
	}
	return amount, Response{}, true
}

func ledgerError(err error) Response {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return errorResponse(err.Error(), "INVALID_AMOUNT")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return errorResponse(err.Error(), "INSUFFICIENT_FUNDS")
	case errors.Is(err, ledger.ErrSameAccount):
		return errorResponse(err.Error(), "SAME_ACCOUNT")
	case errors.Is(err, ledger.ErrAccountNotFound):
		return errorResponse(err.Error(), "NOT_FOUND")
	default:
		return errorResponse(err.Error(), "SERVER_ERROR")
	}
}

func errorResponse(message, code string) Response {
	return Response{Status: StatusError, Error: message, Code: code}
}
