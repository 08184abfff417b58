// Package store defines the persistence contract for the ledger: three keyed
// collections (accounts, categories, transactions) with an atomic balance
// compare-and-set joined to a ledger insert or delete.
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/cashbook-dev/cashbook/internal/model"
)

var (
	// ErrNotFound means the keyed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists means a record with the same key already exists.
	ErrExists = errors.New("already exists")
	// ErrConflict means the account version no longer matches the expected one.
	ErrConflict = errors.New("version conflict")
	// ErrReferenced means the record is still referenced by transactions.
	ErrReferenced = errors.New("still referenced")
)

// BalanceUpdate is a compare-and-set on one account's balance.
type BalanceUpdate struct {
	Account         string
	ExpectedVersion int64
	Balance         decimal.Decimal
}

// Snapshot is a point-in-time copy of all three collections.
type Snapshot struct {
	Accounts     []model.Account
	Categories   []model.Category
	Transactions []model.Transaction
}

// Store is implemented by the memory and sqlite backends.
type Store interface {
	CreateAccount(ctx context.Context, acct model.Account) error
	GetAccount(ctx context.Context, name string) (model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	// DeleteAccount fails with ErrReferenced while any transaction uses the account.
	DeleteAccount(ctx context.Context, name string) error

	CreateCategory(ctx context.Context, cat model.Category) error
	GetCategory(ctx context.Context, name string) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	SetAdjustment(ctx context.Context, name string, value decimal.Decimal) error
	DeleteCategory(ctx context.Context, name string) error

	TransactionExists(ctx context.Context, utr string) (bool, error)
	GetTransaction(ctx context.Context, utr string) (model.Transaction, error)
	ListTransactions(ctx context.Context) ([]model.Transaction, error)

	// ApplyTransaction sets the account balance and inserts txn as one atomic
	// unit, returning txn with its assigned Seq. It fails with ErrConflict if
	// the account version moved and ErrExists if the UTR is taken.
	ApplyTransaction(ctx context.Context, txn model.Transaction, upd BalanceUpdate) (model.Transaction, error)
	// RemoveTransaction deletes the record and, when upd is non-nil, applies
	// the balance update in the same atomic unit.
	RemoveTransaction(ctx context.Context, utr string, upd *BalanceUpdate) error

	Snapshot(ctx context.Context) (Snapshot, error)
	Close() error
}
