package bankoffice

import (
	"context"
	"errors"
	"strings"
)

// Transfer moves money between two active accounts. The Transfer row, both
// balance changes and both mirrored transactions commit together or not at
// all. An uncovered amount is handled like Withdraw: an overdraft event is
// persisted against the source and ErrInsufficientFunds is returned.
func (s *CoreService) Transfer(ctx context.Context, req TransferReq) (*TransferOutcome, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.From) == "" {
		fields["from_account"] = "missing"
	}
	if strings.TrimSpace(req.To) == "" {
		fields["to_account"] = "missing"
	}
	if req.From != "" && req.From == req.To {
		fields["to_account"] = "must differ from source account"
	}
	checkMoney(fields, "amount", req.Amount)
	if len(fields) > 0 {
		return nil, ErrBadRequest{Fields: fields}
	}
	wctx, err := begin(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.NowUTC()
	var (
		out   = &TransferOutcome{}
		short Account
	)
	tr := Transfer{
		ID:          s.ids.NextID(),
		FromAccount: req.From,
		ToAccount:   req.To,
		Amount:      req.Amount,
		Timestamp:   now,
		Status:      TransferCompleted,
		Note:        strPtr(req.Note),
	}
	err = s.repo.InTx(wctx, func(tx Tx) error {
		src, dst, err := lockPair(wctx, tx, req.From, req.To)
		if err != nil {
			return err
		}
		if src.Status != AccountActive {
			return ErrInactiveAccount{AccountNumber: src.Number, Status: src.Status}
		}
		if dst.Status != AccountActive {
			return ErrInactiveAccount{AccountNumber: dst.Number, Status: dst.Status}
		}
		if src.Balance.LessThan(req.Amount) {
			short = *src
			return errShortBalance
		}

		if err = tx.InsertTransfer(wctx, tr); err != nil {
			return err
		}
		ref := tr.ID.String()
		l := s.ledger(tx, now)
		debit, err := l.post(wctx, src, posting{
			typ:       TxnTransferOut,
			amount:    req.Amount,
			performer: req.PerformedBy,
			note:      tr.Note,
			reference: &ref,
		})
		if err != nil {
			return err
		}
		credit, err := l.post(wctx, dst, posting{
			typ:       TxnTransferIn,
			amount:    req.Amount,
			performer: req.PerformedBy,
			note:      tr.Note,
			reference: &ref,
		})
		if err != nil {
			return err
		}
		out.Out, out.In = &debit, &credit
		return nil
	})
	if errors.Is(err, errShortBalance) {
		ev, err := s.recordOverdraft(wctx, short, req.Amount, overdraftTransferNote)
		if err != nil {
			return nil, err
		}
		return &TransferOutcome{Overdraft: ev}, insufficientFunds(short, req.Amount, ev)
	}
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.GetTransfer(wctx, tr.ID)
	if err != nil {
		var nf ErrNotFound
		if errors.As(err, &nf) {
			return nil, s.integrity("transfer", tr.ID.String())
		}
		return nil, err
	}
	out.Transfer = stored
	return out, nil
}

// lockPair locks both accounts in account-number order so that two opposite
// transfers cannot deadlock each other.
func lockPair(ctx context.Context, tx Tx, from, to string) (*Account, *Account, error) {
	first, second := from, to
	if second < first {
		first, second = second, first
	}
	a, err := tx.LockAccount(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := tx.LockAccount(ctx, second)
	if err != nil {
		return nil, nil, err
	}
	if a.Number == from {
		return a, b, nil
	}
	return b, a, nil
}
