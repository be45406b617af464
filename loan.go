package bankoffice

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const maxTermMonths = 600

// rate is NUMERIC(9,4).
var maxRate = decimal.New(1, 5)

var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanPending:  {LoanApproved, LoanRejected},
	LoanApproved: {LoanClosed},
}

func loanTransitionAllowed(from, to LoanStatus) bool {
	for _, st := range loanTransitions[from] {
		if st == to {
			return true
		}
	}
	return false
}

// RequestLoan records a PENDING loan against an active account.
func (s *CoreService) RequestLoan(ctx context.Context, req LoanReq) (*Loan, error) {
	fields := map[string]string{}
	checkMoney(fields, "principal", req.Principal)
	switch {
	case req.TermMonths <= 0:
		fields["term_months"] = "must be greater than zero"
	case req.TermMonths > maxTermMonths:
		fields["term_months"] = fmt.Sprintf("must be at most %d", maxTermMonths)
	}
	switch {
	case req.Rate.IsNegative():
		fields["rate"] = "must not be negative"
	case !req.Rate.Equal(req.Rate.Truncate(moneyScale)):
		fields["rate"] = "must have at most 4 decimal places"
	case req.Rate.GreaterThanOrEqual(maxRate):
		fields["rate"] = "too large"
	}
	if len(fields) > 0 {
		return nil, ErrBadRequest{Fields: fields}
	}
	wctx, err := begin(ctx)
	if err != nil {
		return nil, err
	}

	loan := Loan{
		ID:               s.ids.NextID(),
		AccountNumber:    req.AccountNumber,
		Principal:        req.Principal,
		BalanceRemaining: req.Principal,
		Rate:             req.Rate,
		TermMonths:       req.TermMonths,
		StartDate:        s.clock.NowUTC(),
		Status:           LoanPending,
	}
	err = s.repo.InTx(wctx, func(tx Tx) error {
		if _, err := lockActive(wctx, tx, req.AccountNumber); err != nil {
			return err
		}
		return tx.InsertLoan(wctx, loan)
	})
	if err != nil {
		return nil, err
	}

	return s.readBackLoan(wctx, loan.ID)
}

// ListLoans lists the account's loans, or every loan when accountNumber is empty.
func (s *CoreService) ListLoans(ctx context.Context, accountNumber string) ([]Loan, error) {
	return s.repo.ListLoans(ctx, accountNumber)
}

// UpdateLoanStatus sets the loan status. Any status may follow any other
// unless the service was built WithStrictLoanTransitions.
func (s *CoreService) UpdateLoanStatus(ctx context.Context, id snowflake.ID, status LoanStatus) (*Loan, error) {
	st, ok := ParseLoanStatus(string(status))
	if !ok {
		return nil, badRequest("status", "must be one of PENDING, APPROVED, REJECTED, CLOSED")
	}
	wctx, err := begin(ctx)
	if err != nil {
		return nil, err
	}
	if s.strictLoans {
		cur, err := s.repo.GetLoan(wctx, id)
		if err != nil {
			return nil, err
		}
		if !loanTransitionAllowed(cur.Status, st) {
			return nil, badRequest("status", fmt.Sprintf("cannot move loan from %s to %s", cur.Status, st))
		}
	}
	if err = s.repo.SetLoanStatus(wctx, id, st); err != nil {
		return nil, err
	}
	s.log.Info().
		Int64("loan_id", id.Int64()).
		Str("status", string(st)).
		Msg("loan status updated")
	return s.readBackLoan(wctx, id)
}

// DeletePendingLoan removes the loan if it is still PENDING. Any other state,
// including an unknown id, leaves the store untouched and is not an error.
func (s *CoreService) DeletePendingLoan(ctx context.Context, id snowflake.ID) (bool, error) {
	wctx, err := begin(ctx)
	if err != nil {
		return false, err
	}
	return s.repo.DeletePendingLoan(wctx, id)
}

func (s *CoreService) readBackLoan(ctx context.Context, id snowflake.ID) (*Loan, error) {
	loan, err := s.repo.GetLoan(ctx, id)
	if err != nil {
		var nf ErrNotFound
		if errors.As(err, &nf) {
			return nil, s.integrity("loan", id.String())
		}
		return nil, err
	}
	return loan, nil
}
