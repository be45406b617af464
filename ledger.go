package bankoffice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// errShortBalance aborts a transaction whose sufficiency check failed. It
// never leaves the package; callers see ErrInsufficientFunds instead.
var errShortBalance = errors.New("balance below requested amount")

// ledger is the only place a balance is changed. Every change is written
// together with its Transaction row through the same Tx.
type ledger struct {
	tx  Tx
	ids IDGenerator
	now time.Time
}

type posting struct {
	typ       TransactionType
	amount    decimal.Decimal
	performer string
	note      *string
	reference *string
}

// post applies p to acct and appends the matching Transaction. acct.Balance
// is updated in place so later postings in the same Tx see it.
func (l *ledger) post(ctx context.Context, acct *Account, p posting) (Transaction, error) {
	newBal := acct.Balance.Add(p.typ.Signed(p.amount))
	if err := l.tx.SetBalance(ctx, acct.Number, newBal); err != nil {
		return Transaction{}, fmt.Errorf("set balance of `%s`: %w", acct.Number, err)
	}
	txn := Transaction{
		ID:            l.ids.NextID(),
		AccountNumber: acct.Number,
		Type:          p.typ,
		Amount:        p.amount,
		Timestamp:     l.now,
		PerformedBy:   p.performer,
		Note:          p.note,
		BalanceAfter:  newBal,
		ReferenceCode: p.reference,
	}
	if err := l.tx.InsertTransaction(ctx, txn); err != nil {
		return Transaction{}, fmt.Errorf("insert %s transaction for `%s`: %w", p.typ, acct.Number, err)
	}
	acct.Balance = newBal
	return txn, nil
}

// lockActive locks the account row and checks that it may move money.
func lockActive(ctx context.Context, tx Tx, number string) (*Account, error) {
	acct, err := tx.LockAccount(ctx, number)
	if err != nil {
		return nil, err
	}
	if acct.Status != AccountActive {
		return nil, ErrInactiveAccount{AccountNumber: acct.Number, Status: acct.Status}
	}
	return acct, nil
}

// recordOverdraft persists a rejected debit in a transaction of its own. It
// is not undone by anything that happens afterwards.
func (s *CoreService) recordOverdraft(ctx context.Context, acct Account, amount decimal.Decimal, note string) (*OverdraftEvent, error) {
	ev := OverdraftEvent{
		ID:            s.ids.NextID(),
		AccountNumber: acct.Number,
		Amount:        amount,
		OccurredAt:    s.clock.NowUTC(),
		Note:          strPtr(note),
		BalanceAfter:  acct.Balance,
	}
	err := s.repo.InTx(ctx, func(tx Tx) error {
		return tx.InsertOverdraftEvent(ctx, ev)
	})
	if err != nil {
		return nil, fmt.Errorf("record overdraft event for `%s`: %w", acct.Number, err)
	}
	s.log.Warn().
		Str("account", acct.Number).
		Str("attempted", amount.String()).
		Str("balance", acct.Balance.String()).
		Int64("event_id", ev.ID.Int64()).
		Msg("overdraft attempt recorded")
	return &ev, nil
}

func insufficientFunds(acct Account, attempted decimal.Decimal, ev *OverdraftEvent) ErrInsufficientFunds {
	return ErrInsufficientFunds{
		AccountNumber: acct.Number,
		Attempted:     attempted,
		Balance:       acct.Balance,
		Event:         ev,
	}
}
