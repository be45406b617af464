package bankoffice

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	performerHeader = "performer"
	requestIDHeader = "X-Request-Id"
)

type statusReq struct {
	Status string `json:"status"`
}

type deletedResp struct {
	Deleted bool `json:"deleted"`
}

type purgedResp struct {
	Deleted int64 `json:"deleted"`
}

func NewHTTPHandler(svc Service, log *zerolog.Logger) http.Handler {
	hndlr := &httpHandler{
		Svc: svc,
		Log: log,
	}
	mux := chi.NewMux()
	mux.Use(requestLogger(log))
	mux.Use(middleware.Recoverer)
	mux.NotFound(HTTPNotFound)
	mux.Route("/accounts", func(r chi.Router) {
		r.Post("/", hndlr.OpenAccount)
		r.Route("/{acct:[A-Za-z0-9-]+}", func(rr chi.Router) {
			rr.Get("/", hndlr.GetAccount)
			rr.Put("/status", hndlr.UpdateAccountStatus)
			rr.Post("/deposit", hndlr.Deposit)
			rr.Post("/withdraw", hndlr.Withdraw)
			rr.Post("/transfers", hndlr.Transfer)
			rr.Get("/transfers", hndlr.ListTransfers)
			rr.Get("/transactions", hndlr.ListTransactions)
			rr.Get("/overdrafts", hndlr.ListOverdraftEvents)
			rr.Get("/loans", hndlr.ListLoans)
			rr.Post("/loans", hndlr.RequestLoan)
			rr.Get("/summary", hndlr.AccountSummary)
			rr.Get("/statement", hndlr.Statement)
		})
	})
	mux.Post("/customers", hndlr.CreateCustomer)
	mux.Get("/customers/{customerID:[0-9]+}/accounts", hndlr.ListAccounts)
	mux.Route("/loans", func(r chi.Router) {
		r.Get("/", hndlr.ListLoans)
		r.Put("/{loanID:[0-9]+}/status", hndlr.UpdateLoanStatus)
		r.Delete("/{loanID:[0-9]+}", hndlr.DeletePendingLoan)
	})
	mux.Delete("/overdrafts", hndlr.PurgeOverdraftEvents)

	return mux
}

// requestLogger tags each request with an id and logs it once it completes.
// Handlers find the tagged logger with zerolog.Ctx.
func requestLogger(base *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)
			l := base.With().Str("request_id", reqID).Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			begin := time.Now()

			next.ServeHTTP(ww, r.WithContext(l.WithContext(r.Context())))

			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(begin)).
				Msg("http request")
		})
	}
}

type httpHandler struct {
	Svc Service
	Log *zerolog.Logger
}

func (h *httpHandler) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return h.Log
}

// readJSON decodes the request body into v. On failure the error response
// has already been written and false is returned.
func (h *httpHandler) readJSON(w http.ResponseWriter, r *http.Request, method string, v any) bool {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.logger(r).Err(err).Str("method", method).Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return false
	}
	if err = json.Unmarshal(buf, v); err != nil {
		h.logger(r).Err(err).Str("method", method).Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("response encoding failed")
	}
}

func (h *httpHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerReq
	if !h.readJSON(w, r, "create_customer", &req) {
		return
	}
	req.PerformedBy = r.Header.Get(performerHeader)
	c, err := h.Svc.CreateCustomer(r.Context(), req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *httpHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountReq
	if !h.readJSON(w, r, "open_account", &req) {
		return
	}
	req.PerformedBy = r.Header.Get(performerHeader)
	acct, err := h.Svc.OpenAccount(r.Context(), req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

func (h *httpHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Svc.GetAccount(r.Context(), chi.URLParam(r, "acct"))
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (h *httpHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "customerID")
	customerID, err := strconv.ParseInt(pid, 10, 64)
	if err != nil {
		h.logger(r).Err(err).Str("method", "list_accounts").Msg("error parsing customer ID")
		WriteHTTPError(w, badRequest("customerID", "invalid format"))
		return
	}
	accts, err := h.Svc.ListAccounts(r.Context(), customerID)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accts)
}

func (h *httpHandler) UpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if !h.readJSON(w, r, "update_account_status", &req) {
		return
	}
	acct, err := h.Svc.UpdateAccountStatus(r.Context(), chi.URLParam(r, "acct"), AccountStatus(req.Status))
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (h *httpHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req CashReq
	if !h.readJSON(w, r, "deposit", &req) {
		return
	}
	req.AccountNumber = chi.URLParam(r, "acct")
	req.PerformedBy = r.Header.Get(performerHeader)
	txn, err := h.Svc.Deposit(r.Context(), req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// Withdraw answers 422 with the recorded overdraft event when the balance
// does not cover the amount.
func (h *httpHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req CashReq
	if !h.readJSON(w, r, "withdraw", &req) {
		return
	}
	req.AccountNumber = chi.URLParam(r, "acct")
	req.PerformedBy = r.Header.Get(performerHeader)
	out, err := h.Svc.Withdraw(r.Context(), req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out.Transaction)
}

func (h *httpHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferReq
	if !h.readJSON(w, r, "transfer", &req) {
		return
	}
	req.From = chi.URLParam(r, "acct")
	req.PerformedBy = r.Header.Get(performerHeader)
	out, err := h.Svc.Transfer(r.Context(), req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *httpHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := TransactionFilter{AccountNumber: chi.URLParam(r, "acct")}
	fields := map[string]string{}
	q := r.URL.Query()
	var err error
	if filter.From, err = parseTimeParam(q.Get("from"), false); err != nil {
		fields["from"] = "invalid time, use RFC3339 or YYYY-MM-DD"
	}
	if filter.To, err = parseTimeParam(q.Get("to"), true); err != nil {
		fields["to"] = "invalid time, use RFC3339 or YYYY-MM-DD"
	}
	if typ := q.Get("type"); typ != "" {
		tt, ok := ParseTransactionType(typ)
		if !ok {
			fields["type"] = "unknown transaction type"
		}
		filter.Type = &tt
	}
	if len(fields) > 0 {
		WriteHTTPError(w, ErrBadRequest{Fields: fields})
		return
	}
	txns, err := h.Svc.ListTransactions(r.Context(), filter)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *httpHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	trs, err := h.Svc.ListTransfers(r.Context(), chi.URLParam(r, "acct"))
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trs)
}

func (h *httpHandler) ListOverdraftEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := h.Svc.ListOverdraftEvents(r.Context(), chi.URLParam(r, "acct"))
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

func (h *httpHandler) PurgeOverdraftEvents(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("older_than_days"))
	if err != nil {
		WriteHTTPError(w, badRequest("older_than_days", "missing or invalid"))
		return
	}
	n, err := h.Svc.PurgeOverdraftEvents(r.Context(), days)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purgedResp{Deleted: n})
}

func (h *httpHandler) RequestLoan(w http.ResponseWriter, r *http.Request) {
	var req LoanReq
	if !h.readJSON(w, r, "request_loan", &req) {
		return
	}
	req.AccountNumber = chi.URLParam(r, "acct")
	loan, err := h.Svc.RequestLoan(r.Context(), req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// ListLoans serves both /accounts/{acct}/loans and /loans; the latter has no
// account and lists every loan.
func (h *httpHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Svc.ListLoans(r.Context(), chi.URLParam(r, "acct"))
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

func (h *httpHandler) UpdateLoanStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r, "update_loan_status")
	if !ok {
		return
	}
	var req statusReq
	if !h.readJSON(w, r, "update_loan_status", &req) {
		return
	}
	loan, err := h.Svc.UpdateLoanStatus(r.Context(), id, LoanStatus(req.Status))
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (h *httpHandler) DeletePendingLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r, "delete_pending_loan")
	if !ok {
		return
	}
	deleted, err := h.Svc.DeletePendingLoan(r.Context(), id)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResp{Deleted: deleted})
}

func (h *httpHandler) loanID(w http.ResponseWriter, r *http.Request, method string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(chi.URLParam(r, "loanID"))
	if err != nil {
		h.logger(r).Err(err).Str("method", method).Msg("error parsing loan ID")
		WriteHTTPError(w, badRequest("loanID", "invalid format"))
		return 0, false
	}
	return id, true
}

func (h *httpHandler) AccountSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Svc.AccountSummary(r.Context(), chi.URLParam(r, "acct"))
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *httpHandler) Statement(w http.ResponseWriter, r *http.Request) {
	req := StatementReq{AccountNumber: chi.URLParam(r, "acct")}
	fields := map[string]string{}
	var err error
	if req.From, err = parseTimeParam(r.URL.Query().Get("from"), false); err != nil {
		fields["from"] = "invalid time, use RFC3339 or YYYY-MM-DD"
	}
	if req.To, err = parseTimeParam(r.URL.Query().Get("to"), true); err != nil {
		fields["to"] = "invalid time, use RFC3339 or YYYY-MM-DD"
	}
	if len(fields) > 0 {
		WriteHTTPError(w, ErrBadRequest{Fields: fields})
		return
	}

	// The service writes nothing on failure, so the error response can still
	// replace these headers.
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="statement-`+req.AccountNumber+`.pdf"`)
	if err = h.Svc.Statement(r.Context(), w, req); err != nil {
		w.Header().Del("Content-Disposition")
		WriteHTTPError(w, err)
	}
}

// parseTimeParam accepts RFC3339 or a bare date. A bare date used as an upper
// bound covers the whole day.
func parseTimeParam(v string, upper bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, err
	}
	if upper {
		t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return &t, nil
}

func WriteHTTPError(w http.ResponseWriter, err error) {
	var ne error
	defer func() {
		if ne != nil {
			log.Error().
				Err(ne).
				Msg("error response encoding failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	var (
		errnf  ErrNotFound
		errbr  ErrBadRequest
		errina ErrInactiveAccount
		errisf ErrInsufficientFunds
		errts  ErrTransientStore
	)
	switch {
	case errors.As(err, &errnf):
		w.WriteHeader(http.StatusNotFound)
		ne = json.NewEncoder(w).Encode(errnf)
	case errors.As(err, &errbr):
		w.WriteHeader(http.StatusBadRequest)
		ne = json.NewEncoder(w).Encode(errbr)
	case errors.As(err, &errina):
		w.WriteHeader(http.StatusConflict)
		ne = json.NewEncoder(w).Encode(errina)
	case errors.As(err, &errisf):
		w.WriteHeader(http.StatusUnprocessableEntity)
		ne = json.NewEncoder(w).Encode(errisf)
	case errors.As(err, &errts), errors.Is(err, context.DeadlineExceeded):
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusServiceUnavailable)
		ne = json.NewEncoder(w).Encode(map[string]string{
			"message": "temporarily unavailable, retry",
		})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		resp := map[string]string{
			"message": "server error",
		}
		ne = json.NewEncoder(w).Encode(resp)
	}
}

func HTTPNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	resp := map[string]string{
		"path": r.URL.Path,
	}
	json.NewEncoder(w).Encode(resp)
}
