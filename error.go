package bankoffice

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInternalServer = errors.New("internal server error")
)

// ErrBadRequest reports malformed input. Never retried.
type ErrBadRequest struct {
	Fields map[string]string `json:"fields"`
}

func (e ErrBadRequest) Error() string {
	return fmt.Sprintf("missing/invalid params: %v", e.Fields)
}

func badRequest(field, reason string) ErrBadRequest {
	return ErrBadRequest{Fields: map[string]string{field: reason}}
}

type ErrNotFound struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func (e ErrNotFound) Error() string {
	if e.Kind == "" {
		return "record not found"
	}
	return fmt.Sprintf("%s `%s` not found", e.Kind, e.ID)
}

type ErrInactiveAccount struct {
	AccountNumber string        `json:"account_number"`
	Status        AccountStatus `json:"status"`
}

func (e ErrInactiveAccount) Error() string {
	return fmt.Sprintf("account `%s` is %s", e.AccountNumber, e.Status)
}

// ErrInsufficientFunds is returned after the rejected attempt has been
// persisted as Event.
type ErrInsufficientFunds struct {
	AccountNumber string          `json:"account_number"`
	Attempted     decimal.Decimal `json:"attempted"`
	Balance       decimal.Decimal `json:"balance"`
	Event         *OverdraftEvent `json:"overdraft_event,omitempty"`
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds in account `%s`: balance %s, attempted %s (overdraft recorded)",
		e.AccountNumber, e.Balance, e.Attempted)
}

// ErrTransientStore wraps a store failure after which nothing was persisted.
// The whole call may be retried.
type ErrTransientStore struct {
	Op  string
	Err error
}

func (e ErrTransientStore) Error() string {
	return fmt.Sprintf("%s: transient store failure: %v", e.Op, e.Err)
}

func (e ErrTransientStore) Unwrap() error {
	return e.Err
}

// ErrIntegrity means a row written moments ago could not be read back.
type ErrIntegrity struct {
	Kind string
	ID   string
}

func (e ErrIntegrity) Error() string {
	return fmt.Sprintf("integrity violation: %s `%s` missing after write", e.Kind, e.ID)
}

// IsTransient reports whether err may succeed when the same call is retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var ets ErrTransientStore
	if errors.As(err, &ets) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
