package bankoffice

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	AccountClosed AccountStatus = "CLOSED"
)

func ParseAccountStatus(s string) (AccountStatus, bool) {
	st := AccountStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case AccountActive, AccountFrozen, AccountClosed:
		return st, true
	}
	return "", false
}

type TransactionType string

const (
	TxnDeposit     TransactionType = "DEPOSIT"
	TxnWithdrawal  TransactionType = "WITHDRAWAL"
	TxnTransferIn  TransactionType = "TRANSFER_IN"
	TxnTransferOut TransactionType = "TRANSFER_OUT"
)

func ParseTransactionType(s string) (TransactionType, bool) {
	tt := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	switch tt {
	case TxnDeposit, TxnWithdrawal, TxnTransferIn, TxnTransferOut:
		return tt, true
	}
	return "", false
}

// Credit reports whether the movement adds to the balance.
func (t TransactionType) Credit() bool {
	return t == TxnDeposit || t == TxnTransferIn
}

// Signed returns amount with the sign the movement applies to the balance.
func (t TransactionType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t.Credit() {
		return amount
	}
	return amount.Neg()
}

type TransferStatus string

const (
	TransferCompleted TransferStatus = "COMPLETED"
)

type LoanStatus string

const (
	LoanPending  LoanStatus = "PENDING"
	LoanApproved LoanStatus = "APPROVED"
	LoanRejected LoanStatus = "REJECTED"
	LoanClosed   LoanStatus = "CLOSED"
)

func ParseLoanStatus(s string) (LoanStatus, bool) {
	ls := LoanStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch ls {
	case LoanPending, LoanApproved, LoanRejected, LoanClosed:
		return ls, true
	}
	return "", false
}

const (
	overdraftWithdrawNote = "Overdraft attempt"
	overdraftTransferNote = "Overdraft transfer attempt"
)

type Customer struct {
	ID    int64  `json:"customer_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Account struct {
	Number     string          `json:"account_number"`
	CustomerID int64           `json:"customer_id"`
	Type       string          `json:"account_type"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency"`
	Status     AccountStatus   `json:"status"`
	OpenedAt   time.Time       `json:"date_opened"`
}

// Transaction is one committed balance movement. Insert-only.
type Transaction struct {
	ID            snowflake.ID    `json:"transaction_id"`
	AccountNumber string          `json:"account_number"`
	Type          TransactionType `json:"transaction_type"`
	Amount        decimal.Decimal `json:"amount"`
	Timestamp     time.Time       `json:"timestamp"`
	PerformedBy   string          `json:"performed_by"`
	Note          *string         `json:"note,omitempty"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceCode *string         `json:"reference_code,omitempty"`
}

type Transfer struct {
	ID          snowflake.ID    `json:"transfer_id"`
	FromAccount string          `json:"from_account"`
	ToAccount   string          `json:"to_account"`
	Amount      decimal.Decimal `json:"amount"`
	Timestamp   time.Time       `json:"timestamp"`
	Status      TransferStatus  `json:"status"`
	Note        *string         `json:"note,omitempty"`
}

// OverdraftEvent records a rejected debit. BalanceAfter is the untouched
// balance at the time of the attempt.
type OverdraftEvent struct {
	ID            snowflake.ID    `json:"event_id"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Note          *string         `json:"note,omitempty"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

type Loan struct {
	ID               snowflake.ID    `json:"loan_id"`
	AccountNumber    string          `json:"account_number"`
	Principal        decimal.Decimal `json:"principal"`
	BalanceRemaining decimal.Decimal `json:"balance_remaining"`
	Rate             decimal.Decimal `json:"rate"`
	TermMonths       int             `json:"term_months"`
	StartDate        time.Time       `json:"start_date"`
	Status           LoanStatus      `json:"status"`
	NextDueDate      *time.Time      `json:"next_due_date,omitempty"`
}

type AccountSummary struct {
	AccountNumber   string          `json:"account_number"`
	CustomerName    string          `json:"customer_name"`
	TotalIn         decimal.Decimal `json:"total_in"`
	TotalOut        decimal.Decimal `json:"total_out"`
	OverdraftEvents int64           `json:"overdraft_events"`
}

// TransactionFilter narrows an account history. Nil fields do not filter.
type TransactionFilter struct {
	AccountNumber string
	From          *time.Time
	To            *time.Time
	Type          *TransactionType
}

func (f TransactionFilter) match(t Transaction) bool {
	if t.AccountNumber != f.AccountNumber {
		return false
	}
	if f.From != nil && t.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Timestamp.After(*f.To) {
		return false
	}
	if f.Type != nil && t.Type != *f.Type {
		return false
	}
	return true
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
