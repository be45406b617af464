package bankoffice

//go:generate mockgen -destination=mocks/repository.go -package=mocks . Repository,Tx

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Repository is the transactional store behind the service. Balance writes
// are only reachable through the Tx handed to InTx's callback, so every
// atomic group of writes is visible at the call site.
type Repository interface {
	// InTx runs fn in one store transaction. The transaction commits if fn
	// returns nil and rolls back otherwise; fn's error is returned as is.
	InTx(ctx context.Context, fn func(Tx) error) error

	GetAccount(ctx context.Context, number string) (*Account, error)
	ListAccountsByOwner(ctx context.Context, customerID int64) ([]Account, error)
	SetAccountStatus(ctx context.Context, number string, status AccountStatus) error

	GetTransaction(ctx context.Context, id snowflake.ID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	GetTransfer(ctx context.Context, id snowflake.ID) (*Transfer, error)
	ListTransfers(ctx context.Context, accountNumber string) ([]Transfer, error)

	ListOverdraftEvents(ctx context.Context, accountNumber string) ([]OverdraftEvent, error)
	DeleteOverdraftEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	GetLoan(ctx context.Context, id snowflake.ID) (*Loan, error)
	ListLoans(ctx context.Context, accountNumber string) ([]Loan, error)
	SetLoanStatus(ctx context.Context, id snowflake.ID, status LoanStatus) error
	DeletePendingLoan(ctx context.Context, id snowflake.ID) (bool, error)

	CreateCustomer(ctx context.Context, c Customer) error
	AccountSummary(ctx context.Context, number string) (*AccountSummary, error)
}

// Tx is the write scope of a single store transaction.
type Tx interface {
	// LockAccount reads the account and holds it against concurrent writers
	// until the transaction ends.
	LockAccount(ctx context.Context, number string) (*Account, error)
	InsertAccount(ctx context.Context, acct Account) error
	SetBalance(ctx context.Context, number string, balance decimal.Decimal) error
	InsertTransaction(ctx context.Context, txn Transaction) error
	InsertTransfer(ctx context.Context, tr Transfer) error
	InsertOverdraftEvent(ctx context.Context, ev OverdraftEvent) error
	InsertLoan(ctx context.Context, loan Loan) error
}
