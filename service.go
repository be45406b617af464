package bankoffice

//go:generate mockgen -destination=mocks/service.go -package=mocks . Service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type CustomerReq struct {
	ID          int64  `json:"customer_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PerformedBy string `json:"-"`
}

type OpenAccountReq struct {
	Number         string          `json:"account_number"`
	CustomerID     int64           `json:"customer_id"`
	Type           string          `json:"account_type"`
	Currency       string          `json:"currency"`
	OpeningDeposit decimal.Decimal `json:"opening_deposit"`
	PerformedBy    string          `json:"-"`
}

type CashReq struct {
	AccountNumber string          `json:"-"`
	Amount        decimal.Decimal `json:"amount"`
	PerformedBy   string          `json:"-"`
	Note          string          `json:"note"`
}

type TransferReq struct {
	From        string          `json:"-"`
	To          string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	PerformedBy string          `json:"-"`
	Note        string          `json:"note"`
}

type LoanReq struct {
	AccountNumber string          `json:"-"`
	Principal     decimal.Decimal `json:"principal"`
	Rate          decimal.Decimal `json:"rate"`
	TermMonths    int             `json:"term_months"`
}

type StatementReq struct {
	AccountNumber string
	From          *time.Time
	To            *time.Time
}

// WithdrawOutcome is the result of a withdrawal. When the attempt was
// rejected for insufficient funds, Transaction is nil and Overdraft holds the
// event that was persisted anyway.
type WithdrawOutcome struct {
	Transaction *Transaction    `json:"transaction,omitempty"`
	Overdraft   *OverdraftEvent `json:"overdraft_event,omitempty"`
}

func (o *WithdrawOutcome) Rejected() bool {
	return o != nil && o.Overdraft != nil
}

// TransferOutcome mirrors WithdrawOutcome for transfers. Out and In are the
// two Transaction rows whose reference code is Transfer.ID.
type TransferOutcome struct {
	Transfer  *Transfer       `json:"transfer,omitempty"`
	Out       *Transaction    `json:"transfer_out,omitempty"`
	In        *Transaction    `json:"transfer_in,omitempty"`
	Overdraft *OverdraftEvent `json:"overdraft_event,omitempty"`
}

func (o *TransferOutcome) Rejected() bool {
	return o != nil && o.Overdraft != nil
}

type Service interface {
	CreateCustomer(ctx context.Context, req CustomerReq) (*Customer, error)
	OpenAccount(ctx context.Context, req OpenAccountReq) (*Account, error)
	GetAccount(ctx context.Context, number string) (*Account, error)
	ListAccounts(ctx context.Context, customerID int64) ([]Account, error)
	UpdateAccountStatus(ctx context.Context, number string, status AccountStatus) (*Account, error)

	Deposit(ctx context.Context, req CashReq) (*Transaction, error)
	Withdraw(ctx context.Context, req CashReq) (*WithdrawOutcome, error)
	Transfer(ctx context.Context, req TransferReq) (*TransferOutcome, error)

	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	ListTransfers(ctx context.Context, accountNumber string) ([]Transfer, error)
	ListOverdraftEvents(ctx context.Context, accountNumber string) ([]OverdraftEvent, error)
	PurgeOverdraftEvents(ctx context.Context, olderThanDays int) (int64, error)

	RequestLoan(ctx context.Context, req LoanReq) (*Loan, error)
	ListLoans(ctx context.Context, accountNumber string) ([]Loan, error)
	UpdateLoanStatus(ctx context.Context, id snowflake.ID, status LoanStatus) (*Loan, error)
	DeletePendingLoan(ctx context.Context, id snowflake.ID) (bool, error)

	AccountSummary(ctx context.Context, accountNumber string) (*AccountSummary, error)
	Statement(ctx context.Context, w io.Writer, req StatementReq) error
}

var (
	_ Service = (*CoreService)(nil)
)

type ServiceOption func(*CoreService)

// WithStrictLoanTransitions restricts loan status changes to
// PENDING->APPROVED|REJECTED and APPROVED->CLOSED.
func WithStrictLoanTransitions() ServiceOption {
	return func(s *CoreService) {
		s.strictLoans = true
	}
}

// CoreService implements Service on top of a Repository.
type CoreService struct {
	repo        Repository
	ids         IDGenerator
	clock       Clock
	log         *zerolog.Logger
	strictLoans bool
}

func NewService(repo Repository, ids IDGenerator, clock Clock, log *zerolog.Logger, opts ...ServiceOption) (*CoreService, error) {
	if repo == nil {
		return nil, errors.New("nil repository")
	}
	if ids == nil {
		return nil, errors.New("nil id generator")
	}
	if clock == nil {
		clock = NewClock()
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	svc := &CoreService{
		repo:  repo,
		ids:   ids,
		clock: clock,
		log:   log,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// begin gates a command on ctx. Once it returns, the command runs to
// completion on a context that ignores cancellation; the store's own lock
// timeout bounds how long it can wait.
func begin(ctx context.Context) (context.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return context.WithoutCancel(ctx), nil
}

func (s *CoreService) ledger(tx Tx, now time.Time) *ledger {
	return &ledger{tx: tx, ids: s.ids, now: now}
}

// Money is stored as NUMERIC(19,4).
const moneyScale = 4

var maxMoney = decimal.New(1, 15)

// checkMoney records a field error when amount is not a positive value that
// the store can hold exactly.
func checkMoney(fields map[string]string, field string, amount decimal.Decimal) {
	switch {
	case !amount.IsPositive():
		fields[field] = "must be greater than zero"
	case !amount.Equal(amount.Truncate(moneyScale)):
		fields[field] = "must have at most 4 decimal places"
	case amount.GreaterThanOrEqual(maxMoney):
		fields[field] = "too large"
	}
}

func validateAmount(field string, amount decimal.Decimal) error {
	fields := map[string]string{}
	checkMoney(fields, field, amount)
	if len(fields) > 0 {
		return ErrBadRequest{Fields: fields}
	}
	return nil
}

// CreateCustomer registers a customer so accounts can be opened for them. A
// zero ID is replaced with a generated one.
func (s *CoreService) CreateCustomer(ctx context.Context, req CustomerReq) (*Customer, error) {
	fields := map[string]string{}
	if req.ID < 0 {
		fields["customer_id"] = "must not be negative"
	}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "missing"
	}
	if !strings.Contains(req.Email, "@") {
		fields["email"] = "invalid email"
	}
	if len(fields) > 0 {
		return nil, ErrBadRequest{Fields: fields}
	}
	wctx, err := begin(ctx)
	if err != nil {
		return nil, err
	}

	c := Customer{
		ID:    req.ID,
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	}
	if c.ID == 0 {
		c.ID = s.ids.NextID().Int64()
	}
	if err = s.repo.CreateCustomer(wctx, c); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("customer_id", c.ID).
		Str("performed_by", req.PerformedBy).
		Msg("customer created")
	return &c, nil
}

func (s *CoreService) OpenAccount(ctx context.Context, req OpenAccountReq) (*Account, error) {
	fields := map[string]string{}
	if req.CustomerID <= 0 {
		fields["customer_id"] = "missing or invalid"
	}
	if strings.TrimSpace(req.Type) == "" {
		fields["account_type"] = "missing"
	}
	if len(req.Currency) != 3 {
		fields["currency"] = "must be a 3-letter code"
	}
	if req.OpeningDeposit.IsNegative() {
		fields["opening_deposit"] = "must not be negative"
	} else if !req.OpeningDeposit.IsZero() {
		checkMoney(fields, "opening_deposit", req.OpeningDeposit)
	}
	if len(fields) > 0 {
		return nil, ErrBadRequest{Fields: fields}
	}
	wctx, err := begin(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.NowUTC()
	acct := Account{
		Number:     req.Number,
		CustomerID: req.CustomerID,
		Type:       strings.ToUpper(strings.TrimSpace(req.Type)),
		Balance:    decimal.Zero,
		Currency:   strings.ToUpper(req.Currency),
		Status:     AccountActive,
		OpenedAt:   now,
	}
	if acct.Number == "" {
		acct.Number = s.ids.NextID().String()
	}
	err = s.repo.InTx(wctx, func(tx Tx) error {
		if err := tx.InsertAccount(wctx, acct); err != nil {
			return err
		}
		if !req.OpeningDeposit.IsPositive() {
			return nil
		}
		_, err := s.ledger(tx, now).post(wctx, &acct, posting{
			typ:       TxnDeposit,
			amount:    req.OpeningDeposit,
			performer: req.PerformedBy,
			note:      strPtr("Opening deposit"),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("account", acct.Number).
		Int64("customer_id", acct.CustomerID).
		Str("performed_by", req.PerformedBy).
		Msg("account opened")
	return s.readBackAccount(wctx, acct.Number)
}

func (s *CoreService) GetAccount(ctx context.Context, number string) (*Account, error) {
	return s.repo.GetAccount(ctx, number)
}

func (s *CoreService) ListAccounts(ctx context.Context, customerID int64) ([]Account, error) {
	return s.repo.ListAccountsByOwner(ctx, customerID)
}

func (s *CoreService) UpdateAccountStatus(ctx context.Context, number string, status AccountStatus) (*Account, error) {
	st, ok := ParseAccountStatus(string(status))
	if !ok {
		return nil, badRequest("status", "must be one of ACTIVE, FROZEN, CLOSED")
	}
	wctx, err := begin(ctx)
	if err != nil {
		return nil, err
	}
	if err = s.repo.SetAccountStatus(wctx, number, st); err != nil {
		return nil, err
	}
	return s.readBackAccount(wctx, number)
}

func (s *CoreService) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, badRequest("from", "must not be after `to`")
	}
	if filter.Type != nil {
		if _, ok := ParseTransactionType(string(*filter.Type)); !ok {
			return nil, badRequest("type", "unknown transaction type")
		}
	}
	return s.repo.ListTransactions(ctx, filter)
}

func (s *CoreService) ListTransfers(ctx context.Context, accountNumber string) ([]Transfer, error) {
	return s.repo.ListTransfers(ctx, accountNumber)
}

func (s *CoreService) ListOverdraftEvents(ctx context.Context, accountNumber string) ([]OverdraftEvent, error) {
	return s.repo.ListOverdraftEvents(ctx, accountNumber)
}

// PurgeOverdraftEvents deletes events that occurred more than olderThanDays
// days ago and returns how many were removed.
func (s *CoreService) PurgeOverdraftEvents(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays < 0 {
		return 0, badRequest("older_than_days", "must not be negative")
	}
	wctx, err := begin(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := s.clock.NowUTC().AddDate(0, 0, -olderThanDays)
	n, err := s.repo.DeleteOverdraftEventsBefore(wctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.log.Info().
		Int("older_than_days", olderThanDays).
		Int64("deleted", n).
		Msg("overdraft events purged")
	return n, nil
}

func (s *CoreService) readBackAccount(ctx context.Context, number string) (*Account, error) {
	acct, err := s.repo.GetAccount(ctx, number)
	if err != nil {
		var nf ErrNotFound
		if errors.As(err, &nf) {
			return nil, s.integrity("account", number)
		}
		return nil, err
	}
	return acct, nil
}

func (s *CoreService) readBackTransaction(ctx context.Context, id snowflake.ID) (*Transaction, error) {
	txn, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		var nf ErrNotFound
		if errors.As(err, &nf) {
			return nil, s.integrity("transaction", id.String())
		}
		return nil, err
	}
	return txn, nil
}

func (s *CoreService) integrity(kind, id string) error {
	err := ErrIntegrity{Kind: kind, ID: id}
	s.log.Error().Err(err).Msg("row missing after committed write")
	return fmt.Errorf("read back: %w", err)
}
