package bankoffice_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arhyth/bankoffice"
	"github.com/arhyth/bankoffice/mocks"
)

func TestHTTPDeposit(t *testing.T) {
	nooplog := zerolog.Nop()

	t.Run("Deposit returns the transaction on success", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Deposit(gomock.Any(), gomock.AssignableToTypeOf(bankoffice.CashReq{})).
			DoAndReturn(func(_ context.Context, r bankoffice.CashReq) (*bankoffice.Transaction, error) {
				as.Equal("ACC-1001", r.AccountNumber)
				as.Equal("teller-1", r.PerformedBy)
				as.True(decimal.RequireFromString("1234.50").Equal(r.Amount))
				return &bankoffice.Transaction{
					AccountNumber: r.AccountNumber,
					Type:          bankoffice.TxnDeposit,
					Amount:        r.Amount,
					BalanceAfter:  decimal.RequireFromString("1500.50"),
				}, nil
			}).
			Times(1)

		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)
		body := bytes.NewBufferString(`{"amount":"1234.50"}`)
		req := httptest.NewRequest(http.MethodPost, "/accounts/ACC-1001/deposit", body)
		req.Header.Set("performer", "teller-1")
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusCreated, w.Code)
		as.NotEmpty(w.Header().Get("X-Request-Id"))
		resp := map[string]any{}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		reqrd.Nil(err)
		as.Equal("DEPOSIT", resp["transaction_type"])
		as.Equal("1500.5", resp["balance_after"])
	})

	t.Run("/accounts/{acct}/deposit returns error on invalid account number", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		body := bytes.NewBufferString(`{"amount":"1234.00"}`)
		req := httptest.NewRequest(http.MethodPost, "/accounts/24j24g*()/deposit", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusNotFound, w.Code)
		resp := map[string]string{}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		reqrd.Nil(err)
		as.Contains(resp, "path")
	})

	t.Run("/accounts/{acct}/deposit returns error on malformed request body", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		body := bytes.NewBufferString(`{"amount":1234.00`)
		req := httptest.NewRequest(http.MethodPost, "/accounts/ACC-1001/deposit", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusBadRequest, w.Code)
		resp := map[string]map[string]string{}
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		reqrd.Nil(err)
		as.Contains(resp, "fields")
		as.Contains(resp["fields"], "request body")
	})

	t.Run("/accounts/{acct}/deposit returns 409 on frozen account", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Deposit(gomock.Any(), gomock.Any()).
			Return(nil, bankoffice.ErrInactiveAccount{AccountNumber: "ACC-1001", Status: bankoffice.AccountFrozen})
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		req := httptest.NewRequest(http.MethodPost, "/accounts/ACC-1001/deposit", bytes.NewBufferString(`{"amount":"1"}`))
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusConflict, w.Code)
		as.Contains(w.Body.String(), "FROZEN")
	})
}

func TestHTTPWithdraw(t *testing.T) {
	nooplog := zerolog.Nop()

	t.Run("returns 422 with the recorded overdraft event", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		note := "Overdraft attempt"
		ev := &bankoffice.OverdraftEvent{
			ID:            snowflake.ParseInt64(7241722241547767808),
			AccountNumber: "ACC-1001",
			Amount:        decimal.NewFromInt(80),
			Note:          &note,
			BalanceAfter:  decimal.NewFromInt(20),
		}
		svc.EXPECT().
			Withdraw(gomock.Any(), gomock.AssignableToTypeOf(bankoffice.CashReq{})).
			Return(&bankoffice.WithdrawOutcome{Overdraft: ev}, bankoffice.ErrInsufficientFunds{
				AccountNumber: "ACC-1001",
				Attempted:     decimal.NewFromInt(80),
				Balance:       decimal.NewFromInt(20),
				Event:         ev,
			}).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		req := httptest.NewRequest(http.MethodPost, "/accounts/ACC-1001/withdraw", bytes.NewBufferString(`{"amount":"80"}`))
		req.Header.Set("performer", "alice")
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusUnprocessableEntity, w.Code)
		resp := map[string]any{}
		reqrd.Nil(json.Unmarshal(w.Body.Bytes(), &resp))
		as.Equal("20", resp["balance"])
		reqrd.Contains(resp, "overdraft_event")
		evResp := resp["overdraft_event"].(map[string]any)
		as.Equal("Overdraft attempt", evResp["note"])
	})

	t.Run("returns 503 on transient store failure", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Withdraw(gomock.Any(), gomock.Any()).
			Return(nil, bankoffice.ErrTransientStore{Op: "transaction", Err: context.DeadlineExceeded})
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		req := httptest.NewRequest(http.MethodPost, "/accounts/ACC-1001/withdraw", bytes.NewBufferString(`{"amount":"1"}`))
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusServiceUnavailable, w.Code)
		as.Equal("1", w.Header().Get("Retry-After"))
	})
}

func TestHTTPTransfer(t *testing.T) {
	nooplog := zerolog.Nop()
	as := assert.New(t)
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	svc.EXPECT().
		Transfer(gomock.Any(), gomock.AssignableToTypeOf(bankoffice.TransferReq{})).
		DoAndReturn(func(_ context.Context, r bankoffice.TransferReq) (*bankoffice.TransferOutcome, error) {
			as.Equal("ACC-1001", r.From)
			as.Equal("ACC-1002", r.To)
			as.Equal("rent", r.Note)
			return &bankoffice.TransferOutcome{
				Transfer: &bankoffice.Transfer{FromAccount: r.From, ToAccount: r.To, Amount: r.Amount, Status: bankoffice.TransferCompleted},
			}, nil
		}).
		Times(1)
	hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

	body := bytes.NewBufferString(`{"to_account":"ACC-1002","amount":"150","note":"rent"}`)
	req := httptest.NewRequest(http.MethodPost, "/accounts/ACC-1001/transfers", body)
	req.Header.Set("performer", "alice")
	w := httptest.NewRecorder()
	hndlr.ServeHTTP(w, req)

	as.Equal(http.StatusCreated, w.Code)
	as.Contains(w.Body.String(), `"status":"COMPLETED"`)
}

func TestHTTPListTransactions(t *testing.T) {
	nooplog := zerolog.Nop()

	t.Run("parses window and type", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			ListTransactions(gomock.Any(), gomock.AssignableToTypeOf(bankoffice.TransactionFilter{})).
			DoAndReturn(func(_ context.Context, f bankoffice.TransactionFilter) ([]bankoffice.Transaction, error) {
				as.Equal("ACC-1001", f.AccountNumber)
				as.NotNil(f.From)
				as.NotNil(f.To)
				as.Equal(bankoffice.TxnWithdrawal, *f.Type)
				return []bankoffice.Transaction{}, nil
			}).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		req := httptest.NewRequest(http.MethodGet, "/accounts/ACC-1001/transactions?from=2024-01-01&to=2024-02-01T00:00:00Z&type=withdrawal", nil)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusOK, w.Code)
		as.Equal("[]\n", w.Body.String())
	})

	t.Run("a date-only upper bound covers the whole day", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			ListTransactions(gomock.Any(), gomock.AssignableToTypeOf(bankoffice.TransactionFilter{})).
			DoAndReturn(func(_ context.Context, f bankoffice.TransactionFilter) ([]bankoffice.Transaction, error) {
				day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
				as.True(f.From.Equal(day))
				as.True(f.To.After(day.Add(23 * time.Hour)))
				as.True(f.To.Before(day.AddDate(0, 0, 1)))
				return []bankoffice.Transaction{}, nil
			}).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		req := httptest.NewRequest(http.MethodGet, "/accounts/ACC-1001/transactions?from=2024-03-01&to=2024-03-01", nil)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusOK, w.Code)
	})

	t.Run("rejects a bad time and an unknown type", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		req := httptest.NewRequest(http.MethodGet, "/accounts/ACC-1001/transactions?from=yesterday&type=refund", nil)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusBadRequest, w.Code)
		resp := map[string]map[string]string{}
		as.Nil(json.Unmarshal(w.Body.Bytes(), &resp))
		as.Contains(resp["fields"], "from")
		as.Contains(resp["fields"], "type")
	})
}

func TestHTTPLoans(t *testing.T) {
	nooplog := zerolog.Nop()
	loanID := snowflake.ParseInt64(7241722241547767808)

	t.Run("GET /loans lists every loan", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			ListLoans(gomock.Any(), "").
			Return([]bankoffice.Loan{{ID: loanID, Status: bankoffice.LoanPending}}, nil).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/loans", nil))
		as.Equal(http.StatusOK, w.Code)
		as.Contains(w.Body.String(), "PENDING")
	})

	t.Run("PUT /loans/{loanID}/status updates the status", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			UpdateLoanStatus(gomock.Any(), loanID, bankoffice.LoanStatus("APPROVED")).
			Return(&bankoffice.Loan{ID: loanID, Status: bankoffice.LoanApproved}, nil).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		req := httptest.NewRequest(http.MethodPut, "/loans/"+loanID.String()+"/status", bytes.NewBufferString(`{"status":"APPROVED"}`))
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)
		as.Equal(http.StatusOK, w.Code)
	})

	t.Run("DELETE /loans/{loanID} reports whether a row was removed", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			DeletePendingLoan(gomock.Any(), loanID).
			Return(false, nil).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/loans/"+loanID.String(), nil))
		as.Equal(http.StatusOK, w.Code)
		as.JSONEq(`{"deleted":false}`, w.Body.String())
	})

	t.Run("POST /accounts/{acct}/loans returns 404 on unknown account", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			RequestLoan(gomock.Any(), gomock.AssignableToTypeOf(bankoffice.LoanReq{})).
			Return(nil, bankoffice.ErrNotFound{Kind: "account", ID: "ACC-9"}).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		body := bytes.NewBufferString(`{"principal":"5000","rate":"0.05","term_months":12}`)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/accounts/ACC-9/loans", body))
		as.Equal(http.StatusNotFound, w.Code)
		as.JSONEq(`{"kind":"account","id":"ACC-9"}`, w.Body.String())
	})
}

func TestHTTPPurgeOverdrafts(t *testing.T) {
	nooplog := zerolog.Nop()

	t.Run("returns the number of deleted events", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			PurgeOverdraftEvents(gomock.Any(), 30).
			Return(int64(4), nil).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/overdrafts?older_than_days=30", nil))
		as.Equal(http.StatusOK, w.Code)
		as.JSONEq(`{"deleted":4}`, w.Body.String())
	})

	t.Run("requires older_than_days", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/overdrafts", nil))
		as.Equal(http.StatusBadRequest, w.Code)
	})
}

func TestHTTPStatement(t *testing.T) {
	nooplog := zerolog.Nop()

	t.Run("serves the PDF", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Statement(gomock.Any(), gomock.Any(), bankoffice.StatementReq{AccountNumber: "ACC-1001"}).
			DoAndReturn(func(_ context.Context, w io.Writer, _ bankoffice.StatementReq) error {
				_, err := w.Write([]byte("%PDF-1.3"))
				return err
			}).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/ACC-1001/statement", nil))
		as.Equal(http.StatusOK, w.Code)
		as.Equal("application/pdf", w.Header().Get("Content-Type"))
		as.Equal("%PDF-1.3", w.Body.String())
	})

	t.Run("answers JSON on failure", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			Statement(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(bankoffice.ErrNotFound{Kind: "account", ID: "ACC-1001"}).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/ACC-1001/statement", nil))
		as.Equal(http.StatusNotFound, w.Code)
		as.Equal("application/json", w.Header().Get("Content-Type"))
		as.Empty(w.Header().Get("Content-Disposition"))
	})
}

func TestHTTPAccounts(t *testing.T) {
	nooplog := zerolog.Nop()

	t.Run("POST /accounts opens an account", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			OpenAccount(gomock.Any(), gomock.AssignableToTypeOf(bankoffice.OpenAccountReq{})).
			DoAndReturn(func(_ context.Context, r bankoffice.OpenAccountReq) (*bankoffice.Account, error) {
				as.Equal(int64(1001), r.CustomerID)
				as.Equal("emp-7", r.PerformedBy)
				return &bankoffice.Account{Number: "ACC-1003", CustomerID: r.CustomerID, Status: bankoffice.AccountActive}, nil
			}).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		body := bytes.NewBufferString(`{"customer_id":1001,"account_type":"savings","currency":"USD","opening_deposit":"10"}`)
		req := httptest.NewRequest(http.MethodPost, "/accounts", body)
		req.Header.Set("performer", "emp-7")
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)
		as.Equal(http.StatusCreated, w.Code)
		as.Contains(w.Body.String(), "ACC-1003")
	})

	t.Run("POST /customers creates a customer", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			CreateCustomer(gomock.Any(), bankoffice.CustomerReq{
				ID:          1003,
				Name:        "Carla Reyes",
				Email:       "carla@example.com",
				PerformedBy: "clerk-2",
			}).
			Return(&bankoffice.Customer{ID: 1003, Name: "Carla Reyes", Email: "carla@example.com"}, nil).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		body := bytes.NewBufferString(`{"customer_id":1003,"name":"Carla Reyes","email":"carla@example.com"}`)
		req := httptest.NewRequest(http.MethodPost, "/customers", body)
		req.Header.Set("performer", "clerk-2")
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusCreated, w.Code)
		var c bankoffice.Customer
		reqrd.Nil(json.Unmarshal(w.Body.Bytes(), &c))
		as.Equal(int64(1003), c.ID)
	})

	t.Run("POST /customers returns 400 without a performer", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		hndlr := bankoffice.NewHTTPHandler(bankoffice.NewValidationMiddleware()(svc), &nooplog)

		body := bytes.NewBufferString(`{"name":"Carla Reyes","email":"carla@example.com"}`)
		req := httptest.NewRequest(http.MethodPost, "/customers", body)
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)

		as.Equal(http.StatusBadRequest, w.Code)
		resp := map[string]map[string]string{}
		as.Nil(json.Unmarshal(w.Body.Bytes(), &resp))
		as.Contains(resp["fields"], "performer")
	})

	t.Run("GET /customers/{customerID}/accounts lists accounts", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			ListAccounts(gomock.Any(), int64(1001)).
			Return([]bankoffice.Account{{Number: "ACC-1001"}}, nil).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers/1001/accounts", nil))
		as.Equal(http.StatusOK, w.Code)
		as.Contains(w.Body.String(), "ACC-1001")
	})

	t.Run("PUT /accounts/{acct}/status returns 400 on bad status", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			UpdateAccountStatus(gomock.Any(), "ACC-1001", bankoffice.AccountStatus("DORMANT")).
			Return(nil, bankoffice.ErrBadRequest{Fields: map[string]string{"status": "invalid"}}).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		req := httptest.NewRequest(http.MethodPut, "/accounts/ACC-1001/status", bytes.NewBufferString(`{"status":"DORMANT"}`))
		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, req)
		as.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("GET /accounts/{acct}/summary returns 500 on integrity failure", func(tt *testing.T) {
		as := assert.New(tt)
		ctrl := gomock.NewController(tt)
		svc := mocks.NewMockService(ctrl)
		svc.EXPECT().
			AccountSummary(gomock.Any(), "ACC-1001").
			Return(nil, bankoffice.ErrIntegrity{Kind: "account", ID: "ACC-1001"}).
			Times(1)
		hndlr := bankoffice.NewHTTPHandler(svc, &nooplog)

		w := httptest.NewRecorder()
		hndlr.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/accounts/ACC-1001/summary", nil))
		as.Equal(http.StatusInternalServerError, w.Code)
	})
}
