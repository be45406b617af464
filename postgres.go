package bankoffice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	pgAccountCols     = `account_number, customer_id, account_type, balance, currency, status, date_opened`
	pgTransactionCols = `transaction_id, account_number, transaction_type, amount, "timestamp", performed_by, note, balance_after, reference_code`
	pgTransferCols    = `transfer_id, from_account, to_account, amount, "timestamp", status, note`
	pgOverdraftCols   = `event_id, account_number, amount, occurred_at, note, balance_after`
	pgLoanCols        = `loan_id, account_number, principal, balance_remaining, rate, term_months, start_date, status, next_due_date`
)

var (
	pgSelectAccountSQL = `SELECT ` + pgAccountCols + ` FROM accounts WHERE account_number = $1;`

	pgSelectForUpdateAcctSQL = `SELECT ` + pgAccountCols + ` FROM accounts WHERE account_number = $1 FOR UPDATE;`

	pgSelectAccountsByOwnerSQL = `
		SELECT ` + pgAccountCols + `
		FROM accounts
		WHERE customer_id = $1
		ORDER BY date_opened DESC, account_number DESC;
	`

	pgInsertAcctSQL = `
		INSERT INTO accounts (` + pgAccountCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	pgUpdateAcctBalanceSQL = `
		UPDATE accounts
		SET balance = $1
		WHERE account_number = $2;
	`

	pgUpdateAcctStatusSQL = `
		UPDATE accounts
		SET status = $1
		WHERE account_number = $2;
	`

	pgInsertTxnSQL = `
		INSERT INTO transactions (` + pgTransactionCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	pgSelectTxnSQL = `SELECT ` + pgTransactionCols + ` FROM transactions WHERE transaction_id = $1;`

	pgInsertTransferSQL = `
		INSERT INTO transfers (` + pgTransferCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	pgSelectTransferSQL = `SELECT ` + pgTransferCols + ` FROM transfers WHERE transfer_id = $1;`

	pgSelectTransfersSQL = `
		SELECT ` + pgTransferCols + `
		FROM transfers
		WHERE from_account = $1 OR to_account = $1
		ORDER BY "timestamp" DESC, transfer_id DESC;
	`

	pgInsertOverdraftSQL = `
		INSERT INTO overdraft_events (` + pgOverdraftCols + `)
		VALUES ($1, $2, $3, $4, $5, $6);
	`

	pgSelectOverdraftsSQL = `
		SELECT ` + pgOverdraftCols + `
		FROM overdraft_events
		WHERE account_number = $1
		ORDER BY occurred_at DESC, event_id DESC;
	`

	pgDeleteOverdraftsSQL = `DELETE FROM overdraft_events WHERE occurred_at < $1;`

	pgInsertLoanSQL = `
		INSERT INTO loans (` + pgLoanCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	pgSelectLoanSQL = `SELECT ` + pgLoanCols + ` FROM loans WHERE loan_id = $1;`

	pgSelectLoansSQL = `
		SELECT ` + pgLoanCols + `
		FROM loans
		WHERE $1 = '' OR account_number = $1
		ORDER BY start_date DESC, loan_id DESC;
	`

	pgUpdateLoanStatusSQL = `UPDATE loans SET status = $1 WHERE loan_id = $2;`

	pgDeletePendingLoanSQL = `DELETE FROM loans WHERE loan_id = $1 AND status = 'PENDING';`

	pgInsertCustomerSQL = `
		INSERT INTO customers (customer_id, name, email)
		VALUES ($1, $2, $3);
	`

	// Each total is its own subquery so overdraft rows cannot multiply the
	// transaction sums.
	pgAccountSummarySQL = `
		SELECT
			a.account_number,
			COALESCE(c.name, ''),
			(SELECT COALESCE(SUM(t.amount), 0) FROM transactions t
				WHERE t.account_number = a.account_number
				AND t.transaction_type IN ('DEPOSIT', 'TRANSFER_IN')),
			(SELECT COALESCE(SUM(t.amount), 0) FROM transactions t
				WHERE t.account_number = a.account_number
				AND t.transaction_type IN ('WITHDRAWAL', 'TRANSFER_OUT')),
			(SELECT COUNT(*) FROM overdraft_events o
				WHERE o.account_number = a.account_number)
		FROM accounts a
		LEFT JOIN customers c ON c.customer_id = a.customer_id
		WHERE a.account_number = $1;
	`
)

// Postgres error codes that mean the statement may succeed if run again.
var pgTransientCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57014": true, // query_canceled, raised by statement and lock timeouts
	"53300": true, // too_many_connections
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

type PostgresEndpoint struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

var (
	_ Repository = (*PostgresEndpoint)(nil)
	_ Tx         = (*pgTx)(nil)
)

func NewPostgresEndpoint(ctx context.Context, cfg DatabaseConfig, log *zerolog.Logger) (*PostgresEndpoint, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	if cfg.LockTimeout > 0 {
		pcfg.ConnConfig.RuntimeParams["lock_timeout"] = strconv.FormatInt(cfg.LockTimeout.Milliseconds(), 10)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	endpt := &PostgresEndpoint{
		pool: pool,
		log:  log,
	}
	return endpt, err
}

func (pg *PostgresEndpoint) Close() {
	pg.pool.Close()
}

func (pg *PostgresEndpoint) InTx(ctx context.Context, fn func(Tx) error) error {
	err := pgx.BeginTxFunc(ctx, pg.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
	return pg.classify("transaction", err)
}

// classify turns retryable driver failures into ErrTransientStore and values
// the schema refuses into ErrBadRequest. Every other error is left untouched.
func (pg *PostgresEndpoint) classify(op string, err error) error {
	if err == nil {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == pgCheckViolation || pgErr.Code == pgNumericOutOfRange) {
		field := pgErr.ColumnName
		if field == "" {
			field = pgErr.ConstraintName
		}
		if field == "" {
			field = "request"
		}
		return badRequest(field, pgErr.Message)
	}
	if !pgRetryable(err) {
		return err
	}
	var ets ErrTransientStore
	if errors.As(err, &ets) {
		return err
	}
	pg.log.Warn().Err(err).Str("op", op).Msg("transient store failure")
	return ErrTransientStore{Op: op, Err: err}
}

func pgRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgTransientCodes[pgErr.Code]
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	return pgconn.Timeout(err) || pgconn.SafeToRetry(err) || errors.Is(err, context.DeadlineExceeded)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func (pg *PostgresEndpoint) GetAccount(ctx context.Context, number string) (*Account, error) {
	acct, err := scanAccount(pg.pool.QueryRow(ctx, pgSelectAccountSQL, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound{Kind: "account", ID: number}
	}
	if err != nil {
		return nil, pg.classify("get account", err)
	}
	return acct, nil
}

func (pg *PostgresEndpoint) ListAccountsByOwner(ctx context.Context, customerID int64) ([]Account, error) {
	rows, err := pg.pool.Query(ctx, pgSelectAccountsByOwnerSQL, customerID)
	if err != nil {
		return nil, pg.classify("list accounts", err)
	}
	out, err := collect(rows, scanAccount)
	return out, pg.classify("list accounts", err)
}

func (pg *PostgresEndpoint) SetAccountStatus(ctx context.Context, number string, status AccountStatus) error {
	tag, err := pg.pool.Exec(ctx, pgUpdateAcctStatusSQL, string(status), number)
	if err != nil {
		return pg.classify("set account status", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound{Kind: "account", ID: number}
	}
	return nil
}

func (pg *PostgresEndpoint) GetTransaction(ctx context.Context, id snowflake.ID) (*Transaction, error) {
	txn, err := scanTransaction(pg.pool.QueryRow(ctx, pgSelectTxnSQL, id.Int64()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound{Kind: "transaction", ID: id.String()}
	}
	if err != nil {
		return nil, pg.classify("get transaction", err)
	}
	return txn, nil
}

func (pg *PostgresEndpoint) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	var (
		sb   strings.Builder
		args = []any{filter.AccountNumber}
	)
	sb.WriteString(`SELECT ` + pgTransactionCols + ` FROM transactions WHERE account_number = $1`)
	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&sb, ` AND "timestamp" >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&sb, ` AND "timestamp" <= $%d`, len(args))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		fmt.Fprintf(&sb, ` AND transaction_type = $%d`, len(args))
	}
	sb.WriteString(` ORDER BY "timestamp" DESC, transaction_id DESC;`)

	rows, err := pg.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, pg.classify("list transactions", err)
	}
	out, err := collect(rows, scanTransaction)
	return out, pg.classify("list transactions", err)
}

func (pg *PostgresEndpoint) GetTransfer(ctx context.Context, id snowflake.ID) (*Transfer, error) {
	tr, err := scanTransfer(pg.pool.QueryRow(ctx, pgSelectTransferSQL, id.Int64()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound{Kind: "transfer", ID: id.String()}
	}
	if err != nil {
		return nil, pg.classify("get transfer", err)
	}
	return tr, nil
}

func (pg *PostgresEndpoint) ListTransfers(ctx context.Context, accountNumber string) ([]Transfer, error) {
	rows, err := pg.pool.Query(ctx, pgSelectTransfersSQL, accountNumber)
	if err != nil {
		return nil, pg.classify("list transfers", err)
	}
	out, err := collect(rows, scanTransfer)
	return out, pg.classify("list transfers", err)
}

func (pg *PostgresEndpoint) ListOverdraftEvents(ctx context.Context, accountNumber string) ([]OverdraftEvent, error) {
	rows, err := pg.pool.Query(ctx, pgSelectOverdraftsSQL, accountNumber)
	if err != nil {
		return nil, pg.classify("list overdraft events", err)
	}
	out, err := collect(rows, scanOverdraft)
	return out, pg.classify("list overdraft events", err)
}

func (pg *PostgresEndpoint) DeleteOverdraftEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := pg.pool.Exec(ctx, pgDeleteOverdraftsSQL, cutoff)
	if err != nil {
		return 0, pg.classify("delete overdraft events", err)
	}
	return tag.RowsAffected(), nil
}

func (pg *PostgresEndpoint) GetLoan(ctx context.Context, id snowflake.ID) (*Loan, error) {
	loan, err := scanLoan(pg.pool.QueryRow(ctx, pgSelectLoanSQL, id.Int64()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound{Kind: "loan", ID: id.String()}
	}
	if err != nil {
		return nil, pg.classify("get loan", err)
	}
	return loan, nil
}

func (pg *PostgresEndpoint) ListLoans(ctx context.Context, accountNumber string) ([]Loan, error) {
	rows, err := pg.pool.Query(ctx, pgSelectLoansSQL, accountNumber)
	if err != nil {
		return nil, pg.classify("list loans", err)
	}
	out, err := collect(rows, scanLoan)
	return out, pg.classify("list loans", err)
}

func (pg *PostgresEndpoint) SetLoanStatus(ctx context.Context, id snowflake.ID, status LoanStatus) error {
	tag, err := pg.pool.Exec(ctx, pgUpdateLoanStatusSQL, string(status), id.Int64())
	if err != nil {
		return pg.classify("set loan status", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound{Kind: "loan", ID: id.String()}
	}
	return nil
}

func (pg *PostgresEndpoint) DeletePendingLoan(ctx context.Context, id snowflake.ID) (bool, error) {
	tag, err := pg.pool.Exec(ctx, pgDeletePendingLoanSQL, id.Int64())
	if err != nil {
		return false, pg.classify("delete pending loan", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (pg *PostgresEndpoint) CreateCustomer(ctx context.Context, c Customer) error {
	_, err := pg.pool.Exec(ctx, pgInsertCustomerSQL, c.ID, c.Name, c.Email)
	if pgCode(err) == pgUniqueViolation {
		return badRequest("customer_id", "already exists")
	}
	return pg.classify("create customer", err)
}

func (pg *PostgresEndpoint) AccountSummary(ctx context.Context, number string) (*AccountSummary, error) {
	sum := &AccountSummary{}
	err := pg.pool.QueryRow(ctx, pgAccountSummarySQL, number).Scan(
		&sum.AccountNumber,
		&sum.CustomerName,
		&sum.TotalIn,
		&sum.TotalOut,
		&sum.OverdraftEvents,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound{Kind: "account", ID: number}
	}
	if err != nil {
		return nil, pg.classify("account summary", err)
	}
	return sum, nil
}

// pgTx is the Tx handed to InTx callbacks. Its errors are classified once,
// by InTx, when the callback returns.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) LockAccount(ctx context.Context, number string) (*Account, error) {
	acct, err := scanAccount(t.tx.QueryRow(ctx, pgSelectForUpdateAcctSQL, number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound{Kind: "account", ID: number}
	}
	return acct, err
}

func (t *pgTx) InsertAccount(ctx context.Context, acct Account) error {
	_, err := t.tx.Exec(ctx, pgInsertAcctSQL,
		acct.Number,
		acct.CustomerID,
		acct.Type,
		acct.Balance,
		acct.Currency,
		string(acct.Status),
		acct.OpenedAt,
	)
	switch pgCode(err) {
	case pgUniqueViolation:
		return badRequest("account_number", "already exists")
	case pgForeignKeyViolation:
		return ErrNotFound{Kind: "customer", ID: strconv.FormatInt(acct.CustomerID, 10)}
	}
	return err
}

func (t *pgTx) SetBalance(ctx context.Context, number string, balance decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx, pgUpdateAcctBalanceSQL, balance, number)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound{Kind: "account", ID: number}
	}
	return nil
}

func (t *pgTx) InsertTransaction(ctx context.Context, txn Transaction) error {
	_, err := t.tx.Exec(ctx, pgInsertTxnSQL,
		txn.ID.Int64(),
		txn.AccountNumber,
		string(txn.Type),
		txn.Amount,
		txn.Timestamp,
		txn.PerformedBy,
		txn.Note,
		txn.BalanceAfter,
		txn.ReferenceCode,
	)
	return err
}

func (t *pgTx) InsertTransfer(ctx context.Context, tr Transfer) error {
	_, err := t.tx.Exec(ctx, pgInsertTransferSQL,
		tr.ID.Int64(),
		tr.FromAccount,
		tr.ToAccount,
		tr.Amount,
		tr.Timestamp,
		string(tr.Status),
		tr.Note,
	)
	return err
}

func (t *pgTx) InsertOverdraftEvent(ctx context.Context, ev OverdraftEvent) error {
	_, err := t.tx.Exec(ctx, pgInsertOverdraftSQL,
		ev.ID.Int64(),
		ev.AccountNumber,
		ev.Amount,
		ev.OccurredAt,
		ev.Note,
		ev.BalanceAfter,
	)
	return err
}

func (t *pgTx) InsertLoan(ctx context.Context, loan Loan) error {
	_, err := t.tx.Exec(ctx, pgInsertLoanSQL,
		loan.ID.Int64(),
		loan.AccountNumber,
		loan.Principal,
		loan.BalanceRemaining,
		loan.Rate,
		loan.TermMonths,
		loan.StartDate,
		string(loan.Status),
		loan.NextDueDate,
	)
	return err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]T, error) {
	defer rows.Close()
	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func scanAccount(row pgx.Row) (*Account, error) {
	var (
		acct   Account
		status string
	)
	err := row.Scan(
		&acct.Number,
		&acct.CustomerID,
		&acct.Type,
		&acct.Balance,
		&acct.Currency,
		&status,
		&acct.OpenedAt,
	)
	if err != nil {
		return nil, err
	}
	acct.Status = AccountStatus(status)
	acct.OpenedAt = acct.OpenedAt.UTC()
	return &acct, nil
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var (
		txn Transaction
		id  int64
		typ string
	)
	err := row.Scan(
		&id,
		&txn.AccountNumber,
		&typ,
		&txn.Amount,
		&txn.Timestamp,
		&txn.PerformedBy,
		&txn.Note,
		&txn.BalanceAfter,
		&txn.ReferenceCode,
	)
	if err != nil {
		return nil, err
	}
	txn.ID = snowflake.ParseInt64(id)
	txn.Type = TransactionType(typ)
	txn.Timestamp = txn.Timestamp.UTC()
	return &txn, nil
}

func scanTransfer(row pgx.Row) (*Transfer, error) {
	var (
		tr     Transfer
		id     int64
		status string
	)
	err := row.Scan(
		&id,
		&tr.FromAccount,
		&tr.ToAccount,
		&tr.Amount,
		&tr.Timestamp,
		&status,
		&tr.Note,
	)
	if err != nil {
		return nil, err
	}
	tr.ID = snowflake.ParseInt64(id)
	tr.Status = TransferStatus(status)
	tr.Timestamp = tr.Timestamp.UTC()
	return &tr, nil
}

func scanOverdraft(row pgx.Row) (*OverdraftEvent, error) {
	var (
		ev OverdraftEvent
		id int64
	)
	err := row.Scan(
		&id,
		&ev.AccountNumber,
		&ev.Amount,
		&ev.OccurredAt,
		&ev.Note,
		&ev.BalanceAfter,
	)
	if err != nil {
		return nil, err
	}
	ev.ID = snowflake.ParseInt64(id)
	ev.OccurredAt = ev.OccurredAt.UTC()
	return &ev, nil
}

func scanLoan(row pgx.Row) (*Loan, error) {
	var (
		loan   Loan
		id     int64
		status string
	)
	err := row.Scan(
		&id,
		&loan.AccountNumber,
		&loan.Principal,
		&loan.BalanceRemaining,
		&loan.Rate,
		&loan.TermMonths,
		&loan.StartDate,
		&status,
		&loan.NextDueDate,
	)
	if err != nil {
		return nil, err
	}
	loan.ID = snowflake.ParseInt64(id)
	loan.Status = LoanStatus(status)
	loan.StartDate = loan.StartDate.UTC()
	if loan.NextDueDate != nil {
		due := loan.NextDueDate.UTC()
		loan.NextDueDate = &due
	}
	return &loan, nil
}
