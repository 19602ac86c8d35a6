// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ledger failure. Callers switch on the kind, never on the message.
type ErrorKind string

const (
	KindNotFound                 ErrorKind = "NotFound"
	KindDuplicateTransaction     ErrorKind = "DuplicateTransaction"
	KindInvalidData              ErrorKind = "InvalidData"
	KindInvalidAmount            ErrorKind = "InvalidAmount"
	KindInvalidType              ErrorKind = "InvalidType"
	KindInsufficientFunds        ErrorKind = "InsufficientFunds"
	KindTransactionCreationError ErrorKind = "TransactionCreationError"
)

// LedgerError is the typed error returned by the ledger engine and the query layer.
// Code carries the driver error code (e.g. a Postgres SQLSTATE) when one was available.
type LedgerError struct {
	Kind    ErrorKind
	Message string
	Code    string
	Err     error
}

func (e *LedgerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code %s)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a LedgerError of the same kind, so that
// errors.Is(err, util.ErrInsufficientFunds) works for any message.
func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels, one per kind. Compare with errors.Is.
var (
	ErrNotFound                 = &LedgerError{Kind: KindNotFound, Message: "resource not found"}
	ErrDuplicateTransaction     = &LedgerError{Kind: KindDuplicateTransaction, Message: "duplicate transaction"}
	ErrInvalidData              = &LedgerError{Kind: KindInvalidData, Message: "invalid data"}
	ErrInvalidAmount            = &LedgerError{Kind: KindInvalidAmount, Message: "invalid amount"}
	ErrInvalidType              = &LedgerError{Kind: KindInvalidType, Message: "invalid transaction type"}
	ErrInsufficientFunds        = &LedgerError{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrTransactionCreationError = &LedgerError{Kind: KindTransactionCreationError, Message: "transaction creation failed"}
)

// NewError builds a LedgerError of the given kind with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *LedgerError {
	return &LedgerError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapTransactionCreationError turns an unexpected lower-layer failure into a
// TransactionCreationError. Errors that already carry a kind are returned unchanged.
func WrapTransactionCreationError(err error, code string) error {
	if err == nil {
		return nil
	}
	var le *LedgerError
	if errors.As(err, &le) {
		return err
	}
	return &LedgerError{
		Kind:    KindTransactionCreationError,
		Message: err.Error(),
		Code:    code,
		Err:     err,
	}
}

// KindOf returns the kind of a ledger error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsError is a thin alias over errors.Is used by the HTTP layer.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
