package bankoffice

import (
	"context"
	"errors"
)

// Deposit credits the account and returns the DEPOSIT transaction.
func (s *CoreService) Deposit(ctx context.Context, req CashReq) (*Transaction, error) {
	if err := validateAmount("amount", req.Amount); err != nil {
		return nil, err
	}
	wctx, err := begin(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.NowUTC()
	var txn Transaction
	err = s.repo.InTx(wctx, func(tx Tx) error {
		acct, err := lockActive(wctx, tx, req.AccountNumber)
		if err != nil {
			return err
		}
		txn, err = s.ledger(tx, now).post(wctx, acct, posting{
			typ:       TxnDeposit,
			amount:    req.Amount,
			performer: req.PerformedBy,
			note:      strPtr(req.Note),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.readBackTransaction(wctx, txn.ID)
}

// Withdraw debits the account. If the balance does not cover the amount, an
// overdraft event is persisted and returned in the outcome alongside an
// ErrInsufficientFunds; no balance changes in that case.
func (s *CoreService) Withdraw(ctx context.Context, req CashReq) (*WithdrawOutcome, error) {
	if err := validateAmount("amount", req.Amount); err != nil {
		return nil, err
	}
	wctx, err := begin(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.NowUTC()
	var (
		txn   Transaction
		short Account
	)
	err = s.repo.InTx(wctx, func(tx Tx) error {
		acct, err := lockActive(wctx, tx, req.AccountNumber)
		if err != nil {
			return err
		}
		if acct.Balance.LessThan(req.Amount) {
			short = *acct
			return errShortBalance
		}
		txn, err = s.ledger(tx, now).post(wctx, acct, posting{
			typ:       TxnWithdrawal,
			amount:    req.Amount,
			performer: req.PerformedBy,
			note:      strPtr(req.Note),
		})
		return err
	})
	if errors.Is(err, errShortBalance) {
		ev, err := s.recordOverdraft(wctx, short, req.Amount, overdraftWithdrawNote)
		if err != nil {
			return nil, err
		}
		return &WithdrawOutcome{Overdraft: ev}, insufficientFunds(short, req.Amount, ev)
	}
	if err != nil {
		return nil, err
	}

	stored, err := s.readBackTransaction(wctx, txn.ID)
	if err != nil {
		return nil, err
	}
	return &WithdrawOutcome{Transaction: stored}, nil
}
