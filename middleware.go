package bankoffice

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
)

type Middleware func(Service) Service

// Chain wraps svc so that mws[0] is the outermost layer.
func Chain(svc Service, mws ...Middleware) Service {
	for i := len(mws) - 1; i >= 0; i-- {
		svc = mws[i](svc)
	}
	return svc
}

var accountNumberRe = regexp.MustCompile(`^[A-Za-z0-9-]{1,34}$`)

func checkAccountNumber(fields map[string]string, field, number string) {
	if !accountNumberRe.MatchString(number) {
		fields[field] = "invalid account number"
	}
}

func checkPerformer(fields map[string]string, performer string) {
	if strings.TrimSpace(performer) == "" {
		fields["performer"] = "missing"
	}
}

func fieldsErr(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return ErrBadRequest{Fields: fields}
}

// validationMiddleware rejects malformed account numbers and commands
// without a performer before they reach the store.
type validationMiddleware struct {
	Service
}

var (
	_ Service = (*validationMiddleware)(nil)
)

func NewValidationMiddleware() Middleware {
	return func(svc Service) Service {
		return &validationMiddleware{Service: svc}
	}
}

func (v *validationMiddleware) CreateCustomer(ctx context.Context, req CustomerReq) (*Customer, error) {
	fields := map[string]string{}
	checkPerformer(fields, req.PerformedBy)
	if err := fieldsErr(fields); err != nil {
		return nil, err
	}
	return v.Service.CreateCustomer(ctx, req)
}

func (v *validationMiddleware) OpenAccount(ctx context.Context, req OpenAccountReq) (*Account, error) {
	fields := map[string]string{}
	if req.Number != "" {
		checkAccountNumber(fields, "account_number", req.Number)
	}
	checkPerformer(fields, req.PerformedBy)
	if err := fieldsErr(fields); err != nil {
		return nil, err
	}
	return v.Service.OpenAccount(ctx, req)
}

func (v *validationMiddleware) GetAccount(ctx context.Context, number string) (*Account, error) {
	fields := map[string]string{}
	checkAccountNumber(fields, "account_number", number)
	if err := fieldsErr(fields); err != nil {
		return nil, err
	}
	return v.Service.GetAccount(ctx, number)
}

func (v *validationMiddleware) UpdateAccountStatus(ctx context.Context, number string, status AccountStatus) (*Account, error) {
	fields := map[string]string{}
	checkAccountNumber(fields, "account_number", number)
	if err := fieldsErr(fields); err != nil {
		return nil, err
	}
	return v.Service.UpdateAccountStatus(ctx, number, status)
}

func (v *validationMiddleware) Deposit(ctx context.Context, req CashReq) (*Transaction, error) {
	fields := map[string]string{}
	checkAccountNumber(fields, "account_number", req.AccountNumber)
	checkPerformer(fields, req.PerformedBy)
	if err := fieldsErr(fields); err != nil {
		return nil, err
	}
	return v.Service.Deposit(ctx, req)
}

func (v *validationMiddleware) Withdraw(ctx context.Context, req CashReq) (*WithdrawOutcome, error) {
	fields := map[string]string{}
	checkAccountNumber(fields, "account_number", req.AccountNumber)
	checkPerformer(fields, req.PerformedBy)
	if err := fieldsErr(fields); err != nil {
		return nil, err
	}
	return v.Service.Withdraw(ctx, req)
}

func (v *validationMiddleware) Transfer(ctx context.Context, req TransferReq) (*TransferOutcome, error) {
	fields := map[string]string{}
	checkAccountNumber(fields, "from_account", req.From)
	checkAccountNumber(fields, "to_account", req.To)
	checkPerformer(fields, req.PerformedBy)
	if err := fieldsErr(fields); err != nil {
		return nil, err
	}
	return v.Service.Transfer(ctx, req)
}

func (v *validationMiddleware) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	fields := map[string]string{}
	checkAccountNumber(fields, "account_number", filter.AccountNumber)
	if err := fieldsErr(fields); err != nil {
		return nil, err
	}
	return v.Service.ListTransactions(ctx, filter)
}

func (v *validationMiddleware) RequestLoan(ctx context.Context, req LoanReq) (*Loan, error) {
	fields := map[string]string{}
	checkAccountNumber(fields, "account_number", req.AccountNumber)
	if err := fieldsErr(fields); err != nil {
		return nil, err
	}
	return v.Service.RequestLoan(ctx, req)
}

func (v *validationMiddleware) Statement(ctx context.Context, w io.Writer, req StatementReq) error {
	fields := map[string]string{}
	checkAccountNumber(fields, "account_number", req.AccountNumber)
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		fields["from"] = "must not be after `to`"
	}
	if err := fieldsErr(fields); err != nil {
		return err
	}
	return v.Service.Statement(ctx, w, req)
}

//
// Rate limiting middlewares
//

// limitMiddleware limits the number of in-flight commands per operation with
// a weighted semaphore and an acquisition timeout. A command that cannot get
// a slot in time fails with ErrTransientStore and is never started.
type limitMiddleware struct {
	Service
	limits *ServiceLimits
}

var (
	_ Service = (*limitMiddleware)(nil)
)

type ServiceLimits struct {
	AcquireTimeout time.Duration

	OpenAccount *semaphore.Weighted
	Deposit     *semaphore.Weighted
	Withdraw    *semaphore.Weighted
	Transfer    *semaphore.Weighted
	RequestLoan *semaphore.Weighted
	Statement   *semaphore.Weighted
}

func NewServiceLimits(cfg LimitsConfig) *ServiceLimits {
	return &ServiceLimits{
		AcquireTimeout: cfg.AcquireTimeout,
		OpenAccount:    semaphore.NewWeighted(cfg.Commands),
		Deposit:        semaphore.NewWeighted(cfg.Commands),
		Withdraw:       semaphore.NewWeighted(cfg.Commands),
		Transfer:       semaphore.NewWeighted(cfg.Commands),
		RequestLoan:    semaphore.NewWeighted(cfg.Commands),
		Statement:      semaphore.NewWeighted(cfg.Commands),
	}
}

func NewLimitMiddleware(limits *ServiceLimits) Middleware {
	return func(next Service) Service {
		return &limitMiddleware{
			Service: next,
			limits:  limits,
		}
	}
}

// acquire takes one slot of sem and returns its release func.
func (l *limitMiddleware) acquire(ctx context.Context, op string, sem *semaphore.Weighted) (func(), error) {
	actx := ctx
	if l.limits.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, l.limits.AcquireTimeout)
		defer cancel()
	}
	if err := sem.Acquire(actx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTransientStore{Op: op, Err: errors.New("too many in-flight requests")}
	}
	return func() { sem.Release(1) }, nil
}

func (l *limitMiddleware) OpenAccount(ctx context.Context, req OpenAccountReq) (*Account, error) {
	release, err := l.acquire(ctx, "open account", l.limits.OpenAccount)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.Service.OpenAccount(ctx, req)
}

func (l *limitMiddleware) Deposit(ctx context.Context, req CashReq) (*Transaction, error) {
	release, err := l.acquire(ctx, "deposit", l.limits.Deposit)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.Service.Deposit(ctx, req)
}

func (l *limitMiddleware) Withdraw(ctx context.Context, req CashReq) (*WithdrawOutcome, error) {
	release, err := l.acquire(ctx, "withdraw", l.limits.Withdraw)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.Service.Withdraw(ctx, req)
}

func (l *limitMiddleware) Transfer(ctx context.Context, req TransferReq) (*TransferOutcome, error) {
	release, err := l.acquire(ctx, "transfer", l.limits.Transfer)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.Service.Transfer(ctx, req)
}

func (l *limitMiddleware) RequestLoan(ctx context.Context, req LoanReq) (*Loan, error) {
	release, err := l.acquire(ctx, "request loan", l.limits.RequestLoan)
	if err != nil {
		return nil, err
	}
	defer release()
	return l.Service.RequestLoan(ctx, req)
}

func (l *limitMiddleware) Statement(ctx context.Context, w io.Writer, req StatementReq) error {
	release, err := l.acquire(ctx, "statement", l.limits.Statement)
	if err != nil {
		return err
	}
	defer release()
	return l.Service.Statement(ctx, w, req)
}

type ServiceBreaker struct {
	OpenAccount *gobreaker.TwoStepCircuitBreaker[*Account]
	Deposit     *gobreaker.TwoStepCircuitBreaker[*Transaction]
	Withdraw    *gobreaker.TwoStepCircuitBreaker[*WithdrawOutcome]
	Transfer    *gobreaker.TwoStepCircuitBreaker[*TransferOutcome]
	RequestLoan *gobreaker.TwoStepCircuitBreaker[*Loan]
	Statement   *gobreaker.TwoStepCircuitBreaker[any]
}

func NewServiceBreaker(cfg BreakerConfig, log *zerolog.Logger) *ServiceBreaker {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &ServiceBreaker{
		OpenAccount: newBreaker[*Account]("open account", cfg, log),
		Deposit:     newBreaker[*Transaction]("deposit", cfg, log),
		Withdraw:    newBreaker[*WithdrawOutcome]("withdraw", cfg, log),
		Transfer:    newBreaker[*TransferOutcome]("transfer", cfg, log),
		RequestLoan: newBreaker[*Loan]("request loan", cfg, log),
		Statement:   newBreaker[any]("statement", cfg, log),
	}
}

func newBreaker[T any](name string, cfg BreakerConfig, log *zerolog.Logger) *gobreaker.TwoStepCircuitBreaker[T] {
	return gobreaker.NewTwoStepCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

// circuitBreakMiddleware implements the circuit breaker pattern per command.
// Only transient store failures count against a breaker; business rejections
// such as insufficient funds are successes from its point of view. It sits in
// front of limitMiddleware, so a store that is too slow to release limit
// slots trips the breaker and callers fail fast until it recovers.
type circuitBreakMiddleware struct {
	Service
	brkrs *ServiceBreaker
}

var (
	_ Service = (*circuitBreakMiddleware)(nil)
)

func NewCircuitBreakMiddleware(brkrs *ServiceBreaker) Middleware {
	return func(next Service) Service {
		return &circuitBreakMiddleware{
			Service: next,
			brkrs:   brkrs,
		}
	}
}

func breakerErr(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrTransientStore{Op: op, Err: err}
	}
	return err
}

func (c *circuitBreakMiddleware) OpenAccount(ctx context.Context, req OpenAccountReq) (*Account, error) {
	done, err := c.brkrs.OpenAccount.Allow()
	if err != nil {
		return nil, breakerErr("open account", err)
	}
	acct, err := c.Service.OpenAccount(ctx, req)
	done(!IsTransient(err))
	return acct, err
}

func (c *circuitBreakMiddleware) Deposit(ctx context.Context, req CashReq) (*Transaction, error) {
	done, err := c.brkrs.Deposit.Allow()
	if err != nil {
		return nil, breakerErr("deposit", err)
	}
	txn, err := c.Service.Deposit(ctx, req)
	done(!IsTransient(err))
	return txn, err
}

func (c *circuitBreakMiddleware) Withdraw(ctx context.Context, req CashReq) (*WithdrawOutcome, error) {
	done, err := c.brkrs.Withdraw.Allow()
	if err != nil {
		return nil, breakerErr("withdraw", err)
	}
	out, err := c.Service.Withdraw(ctx, req)
	done(!IsTransient(err))
	return out, err
}

func (c *circuitBreakMiddleware) Transfer(ctx context.Context, req TransferReq) (*TransferOutcome, error) {
	done, err := c.brkrs.Transfer.Allow()
	if err != nil {
		return nil, breakerErr("transfer", err)
	}
	out, err := c.Service.Transfer(ctx, req)
	done(!IsTransient(err))
	return out, err
}

func (c *circuitBreakMiddleware) RequestLoan(ctx context.Context, req LoanReq) (*Loan, error) {
	done, err := c.brkrs.RequestLoan.Allow()
	if err != nil {
		return nil, breakerErr("request loan", err)
	}
	loan, err := c.Service.RequestLoan(ctx, req)
	done(!IsTransient(err))
	return loan, err
}

func (c *circuitBreakMiddleware) Statement(ctx context.Context, w io.Writer, req StatementReq) error {
	done, err := c.brkrs.Statement.Allow()
	if err != nil {
		return breakerErr("statement", err)
	}
	err = c.Service.Statement(ctx, w, req)
	done(!IsTransient(err))
	return err
}

// loggingMiddleware logs every state-changing call with its outcome.
type loggingMiddleware struct {
	Service
	log *zerolog.Logger
}

var (
	_ Service = (*loggingMiddleware)(nil)
)

func NewLoggingMiddleware(log *zerolog.Logger) Middleware {
	return func(next Service) Service {
		return &loggingMiddleware{
			Service: next,
			log:     log,
		}
	}
}

func (m *loggingMiddleware) logCall(method string, begin time.Time, err error) {
	var evt *zerolog.Event
	switch {
	case err == nil:
		evt = m.log.Info()
	case IsTransient(err):
		evt = m.log.Warn().Err(err)
	default:
		var (
			br  ErrBadRequest
			nf  ErrNotFound
			ina ErrInactiveAccount
			isf ErrInsufficientFunds
		)
		if errors.As(err, &br) || errors.As(err, &nf) || errors.As(err, &ina) || errors.As(err, &isf) {
			evt = m.log.Info().Err(err)
		} else {
			evt = m.log.Error().Err(err)
		}
	}
	evt.Str("method", method).
		Dur("took", time.Since(begin)).
		Msg("service call")
}

func (m *loggingMiddleware) CreateCustomer(ctx context.Context, req CustomerReq) (c *Customer, err error) {
	defer func(begin time.Time) { m.logCall("create_customer", begin, err) }(time.Now())
	return m.Service.CreateCustomer(ctx, req)
}

func (m *loggingMiddleware) OpenAccount(ctx context.Context, req OpenAccountReq) (acct *Account, err error) {
	defer func(begin time.Time) { m.logCall("open_account", begin, err) }(time.Now())
	return m.Service.OpenAccount(ctx, req)
}

func (m *loggingMiddleware) UpdateAccountStatus(ctx context.Context, number string, status AccountStatus) (acct *Account, err error) {
	defer func(begin time.Time) { m.logCall("update_account_status", begin, err) }(time.Now())
	return m.Service.UpdateAccountStatus(ctx, number, status)
}

func (m *loggingMiddleware) Deposit(ctx context.Context, req CashReq) (txn *Transaction, err error) {
	defer func(begin time.Time) { m.logCall("deposit", begin, err) }(time.Now())
	return m.Service.Deposit(ctx, req)
}

func (m *loggingMiddleware) Withdraw(ctx context.Context, req CashReq) (out *WithdrawOutcome, err error) {
	defer func(begin time.Time) { m.logCall("withdraw", begin, err) }(time.Now())
	return m.Service.Withdraw(ctx, req)
}

func (m *loggingMiddleware) Transfer(ctx context.Context, req TransferReq) (out *TransferOutcome, err error) {
	defer func(begin time.Time) { m.logCall("transfer", begin, err) }(time.Now())
	return m.Service.Transfer(ctx, req)
}

func (m *loggingMiddleware) PurgeOverdraftEvents(ctx context.Context, olderThanDays int) (n int64, err error) {
	defer func(begin time.Time) { m.logCall("purge_overdraft_events", begin, err) }(time.Now())
	return m.Service.PurgeOverdraftEvents(ctx, olderThanDays)
}

func (m *loggingMiddleware) RequestLoan(ctx context.Context, req LoanReq) (loan *Loan, err error) {
	defer func(begin time.Time) { m.logCall("request_loan", begin, err) }(time.Now())
	return m.Service.RequestLoan(ctx, req)
}

func (m *loggingMiddleware) UpdateLoanStatus(ctx context.Context, id snowflake.ID, status LoanStatus) (loan *Loan, err error) {
	defer func(begin time.Time) { m.logCall("update_loan_status", begin, err) }(time.Now())
	return m.Service.UpdateLoanStatus(ctx, id, status)
}

func (m *loggingMiddleware) DeletePendingLoan(ctx context.Context, id snowflake.ID) (deleted bool, err error) {
	defer func(begin time.Time) { m.logCall("delete_pending_loan", begin, err) }(time.Now())
	return m.Service.DeletePendingLoan(ctx, id)
}
