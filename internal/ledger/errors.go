package ledger

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrNotFound             = errors.New("not found")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidInput         = errors.New("invalid input")
	ErrPermissionDenied     = errors.New("permission denied")

	// ErrAccountInUse is an ErrInvalidInput raised when deleting an account
	// that transactions still reference.
	ErrAccountInUse = fmt.Errorf("%w: account has transactions", ErrInvalidInput)
)

// Error is returned by every Engine operation that fails for a domain reason.
type Error struct {
	Op     string // operation, e.g. "submit transaction"
	Key    string // account, category, or UTR the operation targeted
	Kind   error  // one of the Err* kinds
	Detail string
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Key != "" {
		msg += fmt.Sprintf(" %q", e.Key)
	}
	msg += ": " + e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(op, key string, kind error, detail string) *Error {
	return &Error{Op: op, Key: key, Kind: kind, Detail: detail}
}
