package bankoffice

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	_ Repository = (*MemoryStore)(nil)
)

// MemoryStore is an in-process Repository. Transactions are serialized by a
// single lock held for their whole duration and stage their writes until fn
// returns, so a failed fn leaves no trace.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[int64]Customer
	accounts  map[string]*Account
	txns      []Transaction
	transfers []Transfer
	events    []OverdraftEvent
	loans     map[snowflake.ID]*Loan
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[int64]Customer),
		accounts:  make(map[string]*Account),
		loans:     make(map[snowflake.ID]*Loan),
	}
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ErrTransientStore{Op: "begin", Err: err}
	}
	tx := &memTx{
		store:    m,
		balances: make(map[string]decimal.Decimal),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *MemoryStore) GetAccount(_ context.Context, number string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[number]
	if !ok {
		return nil, ErrNotFound{Kind: "account", ID: number}
	}
	cp := *acct
	return &cp, nil
}

func (m *MemoryStore) ListAccountsByOwner(_ context.Context, customerID int64) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Account, 0)
	for _, a := range m.accounts {
		if a.CustomerID == customerID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].Number > out[j].Number
		}
		return out[i].OpenedAt.After(out[j].OpenedAt)
	})
	return out, nil
}

func (m *MemoryStore) SetAccountStatus(_ context.Context, number string, status AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[number]
	if !ok {
		return ErrNotFound{Kind: "account", ID: number}
	}
	acct.Status = status
	return nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, id snowflake.ID) (*Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.txns {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, ErrNotFound{Kind: "transaction", ID: id.String()}
}

func (m *MemoryStore) ListTransactions(_ context.Context, filter TransactionFilter) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transaction, 0)
	for i := len(m.txns) - 1; i >= 0; i-- {
		if filter.match(m.txns[i]) {
			out = append(out, m.txns[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (m *MemoryStore) GetTransfer(_ context.Context, id snowflake.ID) (*Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transfers {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, ErrNotFound{Kind: "transfer", ID: id.String()}
}

func (m *MemoryStore) ListTransfers(_ context.Context, accountNumber string) ([]Transfer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Transfer, 0)
	for i := len(m.transfers) - 1; i >= 0; i-- {
		t := m.transfers[i]
		if t.FromAccount == accountNumber || t.ToAccount == accountNumber {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (m *MemoryStore) ListOverdraftEvents(_ context.Context, accountNumber string) ([]OverdraftEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]OverdraftEvent, 0)
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].AccountNumber == accountNumber {
			out = append(out, m.events[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteOverdraftEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	var n int64
	for _, ev := range m.events {
		if ev.OccurredAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, ev)
	}
	m.events = kept
	return n, nil
}

func (m *MemoryStore) GetLoan(_ context.Context, id snowflake.ID) (*Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loan, ok := m.loans[id]
	if !ok {
		return nil, ErrNotFound{Kind: "loan", ID: id.String()}
	}
	cp := *loan
	return &cp, nil
}

func (m *MemoryStore) ListLoans(_ context.Context, accountNumber string) ([]Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Loan, 0)
	for _, l := range m.loans {
		if accountNumber == "" || l.AccountNumber == accountNumber {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out, nil
}

func (m *MemoryStore) SetLoanStatus(_ context.Context, id snowflake.ID, status LoanStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[id]
	if !ok {
		return ErrNotFound{Kind: "loan", ID: id.String()}
	}
	loan.Status = status
	return nil
}

func (m *MemoryStore) DeletePendingLoan(_ context.Context, id snowflake.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[id]
	if !ok || loan.Status != LoanPending {
		return false, nil
	}
	delete(m.loans, id)
	return true, nil
}

func (m *MemoryStore) CreateCustomer(_ context.Context, c Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.customers[c.ID]; ok {
		return badRequest("customer_id", "already exists")
	}
	m.customers[c.ID] = c
	return nil
}

func (m *MemoryStore) AccountSummary(_ context.Context, number string) (*AccountSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[number]
	if !ok {
		return nil, ErrNotFound{Kind: "account", ID: number}
	}
	sum := &AccountSummary{
		AccountNumber: number,
		CustomerName:  m.customers[acct.CustomerID].Name,
		TotalIn:       decimal.Zero,
		TotalOut:      decimal.Zero,
	}
	for _, t := range m.txns {
		if t.AccountNumber != number {
			continue
		}
		if t.Type.Credit() {
			sum.TotalIn = sum.TotalIn.Add(t.Amount)
		} else {
			sum.TotalOut = sum.TotalOut.Add(t.Amount)
		}
	}
	for _, ev := range m.events {
		if ev.AccountNumber == number {
			sum.OverdraftEvents++
		}
	}
	return sum, nil
}

// memTx stages writes on top of the store. It runs with the store's write
// lock held, so reads of the underlying maps are safe.
type memTx struct {
	store     *MemoryStore
	accounts  []Account
	balances  map[string]decimal.Decimal
	txns      []Transaction
	transfers []Transfer
	events    []OverdraftEvent
	loans     []Loan
}

func (t *memTx) account(number string) (Account, bool) {
	for _, a := range t.accounts {
		if a.Number == number {
			return a, true
		}
	}
	acct, ok := t.store.accounts[number]
	if !ok {
		return Account{}, false
	}
	return *acct, true
}

func (t *memTx) LockAccount(_ context.Context, number string) (*Account, error) {
	acct, ok := t.account(number)
	if !ok {
		return nil, ErrNotFound{Kind: "account", ID: number}
	}
	if bal, ok := t.balances[number]; ok {
		acct.Balance = bal
	}
	return &acct, nil
}

func (t *memTx) InsertAccount(_ context.Context, acct Account) error {
	if _, ok := t.account(acct.Number); ok {
		return badRequest("account_number", "already exists")
	}
	if _, ok := t.store.customers[acct.CustomerID]; !ok {
		return ErrNotFound{Kind: "customer", ID: strconv.FormatInt(acct.CustomerID, 10)}
	}
	t.accounts = append(t.accounts, acct)
	return nil
}

func (t *memTx) SetBalance(_ context.Context, number string, balance decimal.Decimal) error {
	if _, ok := t.account(number); !ok {
		return ErrNotFound{Kind: "account", ID: number}
	}
	t.balances[number] = balance
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, txn Transaction) error {
	t.txns = append(t.txns, txn)
	return nil
}

func (t *memTx) InsertTransfer(_ context.Context, tr Transfer) error {
	t.transfers = append(t.transfers, tr)
	return nil
}

func (t *memTx) InsertOverdraftEvent(_ context.Context, ev OverdraftEvent) error {
	t.events = append(t.events, ev)
	return nil
}

func (t *memTx) InsertLoan(_ context.Context, loan Loan) error {
	t.loans = append(t.loans, loan)
	return nil
}

func (t *memTx) commit() {
	m := t.store
	for i := range t.accounts {
		a := t.accounts[i]
		m.accounts[a.Number] = &a
	}
	for number, bal := range t.balances {
		m.accounts[number].Balance = bal
	}
	m.txns = append(m.txns, t.txns...)
	m.transfers = append(m.transfers, t.transfers...)
	m.events = append(m.events, t.events...)
	for i := range t.loans {
		l := t.loans[i]
		m.loans[l.ID] = &l
	}
}
