package bankoffice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	bosql "github.com/arhyth/bankoffice/sql"
)

const seedPerformer = "seeder"

// LocalHelper prepares a database for local runs and integration tests.
type LocalHelper struct {
	Conn *pgx.Conn
	Seed SeedConfig
}

func NewLocalHelper(ctx context.Context, cfg *Config) (*LocalHelper, error) {
	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString)
	if err != nil {
		return nil, err
	}
	return &LocalHelper{
		Conn: conn,
		Seed: cfg.Seed,
	}, nil
}

// InitDB applies the schema and returns a func that drops it again and
// closes the connection.
func (lh *LocalHelper) InitDB(ctx context.Context) (func(), error) {
	if _, err := lh.Conn.Exec(ctx, bosql.InitDB); err != nil {
		return nil, err
	}
	return lh.teardownDB(), nil
}

func (lh *LocalHelper) Close(ctx context.Context) error {
	return lh.Conn.Close(ctx)
}

// SeedCustomers registers the configured customers through svc and inserts
// their accounts at zero balance. Customers and accounts that already exist
// are left alone.
func (lh *LocalHelper) SeedCustomers(ctx context.Context, svc Service) error {
	for _, c := range lh.Seed.Customers {
		_, err := svc.CreateCustomer(ctx, CustomerReq{
			ID:          c.ID,
			Name:        c.Name,
			Email:       c.Email,
			PerformedBy: seedPerformer,
		})
		var br ErrBadRequest
		if errors.As(err, &br) && br.Fields["customer_id"] != "" {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed customer %d: %w", c.ID, err)
		}
	}

	funcMap := template.FuncMap{
		"ToUpper": strings.ToUpper,
		"quote":   quoteLiteral,
	}
	tmpl, err := template.New("seed").Funcs(funcMap).Parse(bosql.SeedTemplate)
	if err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	if err = tmpl.Execute(buf, lh.Seed); err != nil {
		return err
	}

	if strings.TrimSpace(buf.String()) == "" {
		return nil
	}
	_, err = lh.Conn.Exec(ctx, buf.String())
	return err
}

// FundAccounts posts each configured opening balance as a deposit through
// svc, so seeded balances have matching ledger rows. Accounts that already
// hold money are skipped.
func (lh *LocalHelper) FundAccounts(ctx context.Context, svc Service) error {
	for _, c := range lh.Seed.Customers {
		for _, a := range c.Accounts {
			if a.Balance == "" {
				continue
			}
			amt, err := decimal.NewFromString(a.Balance)
			if err != nil {
				return fmt.Errorf("seed balance of `%s`: %w", a.Number, err)
			}
			if !amt.IsPositive() {
				continue
			}
			acct, err := svc.GetAccount(ctx, a.Number)
			if err != nil {
				return err
			}
			if !acct.Balance.IsZero() {
				continue
			}
			_, err = svc.Deposit(ctx, CashReq{
				AccountNumber: a.Number,
				Amount:        amt,
				PerformedBy:   seedPerformer,
				Note:          "Opening balance",
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (lh *LocalHelper) teardownDB() func() {
	return func() {
		ctx := context.Background()
		defer lh.Conn.Close(ctx)

		if _, err := lh.Conn.Exec(ctx, bosql.TeardownDB); err != nil {
			fmt.Fprintf(os.Stderr, "DB cleanup exec teardown sql: %s", err.Error())
		}
	}
}

func quoteLiteral(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", errors.New("NUL byte in seed value")
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
}
