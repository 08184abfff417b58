// Package sqlite is the durable store backend, built on modernc.org/sqlite.
//
// The database is opened with:
//   - WAL mode so snapshot reads do not block writers in other processes
//   - a 5-second busy timeout for lock contention
//   - immediate transactions so the balance CAS never upgrades a read lock
//
// A single open connection serializes writers inside one process.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/cashbook-dev/cashbook/internal/id"
	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store"
)

const dsnOptions = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// Store persists the ledger in a SQLite file.
type Store struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open creates or opens the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := "file:" + path + dsnOptions
	if err := RunMigrations(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) CreateAccount(ctx context.Context, acct model.Account) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM accounts WHERE name = ?`, acct.Name)
		if err != nil {
			return err
		}
		if found {
			return store.ErrExists
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO accounts (name, initial_balance, balance, version, created_at) VALUES (?, ?, ?, ?, ?)`,
			acct.Name, acct.InitialBalance.String(), acct.Balance.String(), acct.Version, acct.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	})
}

func (s *Store) GetAccount(ctx context.Context, name string) (model.Account, error) {
	return getAccount(ctx, s.db, name)
}

func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	return listAccounts(ctx, s.db)
}

func (s *Store) DeleteAccount(ctx context.Context, name string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := getAccount(ctx, tx, name); err != nil {
			return err
		}
		used, err := exists(ctx, tx, `SELECT 1 FROM transactions WHERE account = ? LIMIT 1`, name)
		if err != nil {
			return err
		}
		if used {
			return store.ErrReferenced
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE name = ?`, name); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
}

func (s *Store) CreateCategory(ctx context.Context, cat model.Category) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM categories WHERE name = ?`, cat.Name)
		if err != nil {
			return err
		}
		if found {
			return store.ErrExists
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO categories (name, adjustment, created_at) VALUES (?, ?, ?)`,
			cat.Name, cat.Adjustment.String(), cat.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		return nil
	})
}

func (s *Store) GetCategory(ctx context.Context, name string) (model.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, adjustment, created_at FROM categories WHERE name = ?`, name)
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, store.ErrNotFound
	}
	return cat, err
}

func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	return listCategories(ctx, s.db)
}

func (s *Store) SetAdjustment(ctx context.Context, name string, value decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `UPDATE categories SET adjustment = ? WHERE name = ?`, value.String(), name)
	if err != nil {
		return fmt.Errorf("update adjustment: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) TransactionExists(ctx context.Context, utr string) (bool, error) {
	return exists(ctx, s.db, `SELECT 1 FROM transactions WHERE utr = ?`, utr)
}

func (s *Store) GetTransaction(ctx context.Context, utr string) (model.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+txnColumns+` FROM transactions WHERE utr = ?`, utr)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, store.ErrNotFound
	}
	return txn, err
}

func (s *Store) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	return listTransactions(ctx, s.db)
}

func (s *Store) ApplyTransaction(ctx context.Context, txn model.Transaction, upd store.BalanceUpdate) (model.Transaction, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		taken, err := exists(ctx, tx, `SELECT 1 FROM transactions WHERE utr = ?`, txn.UTR)
		if err != nil {
			return err
		}
		if taken {
			return store.ErrExists
		}
		if err := updateBalance(ctx, tx, upd); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (utr, actor, amount, bonus, kind, account, category, note, effective_date, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.UTR, txn.Actor, txn.Amount.String(), txn.Bonus.String(), string(txn.Kind),
			txn.Account, txn.Category, txn.Note, id.FormatDate(txn.Date), txn.CreatedAt.UnixNano())
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read transaction seq: %w", err)
		}
		txn.Seq = seq
		return nil
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

func (s *Store) RemoveTransaction(ctx context.Context, utr string, upd *store.BalanceUpdate) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM transactions WHERE utr = ?`, utr)
		if err != nil {
			return err
		}
		if !found {
			return store.ErrNotFound
		}
		if upd != nil {
			if err := updateBalance(ctx, tx, *upd); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE utr = ?`, utr); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return nil
	})
}

// Snapshot reads all three tables inside one transaction.
func (s *Store) Snapshot(ctx context.Context) (store.Snapshot, error) {
	var snap store.Snapshot
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		if snap.Accounts, err = listAccounts(ctx, tx); err != nil {
			return err
		}
		if snap.Categories, err = listCategories(ctx, tx); err != nil {
			return err
		}
		snap.Transactions, err = listTransactions(ctx, tx)
		return err
	})
	return snap, err
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func updateBalance(ctx context.Context, q querier, upd store.BalanceUpdate) error {
	res, err := q.ExecContext(ctx,
		`UPDATE accounts SET balance = ?, version = version + 1 WHERE name = ? AND version = ?`,
		upd.Balance.String(), upd.Account, upd.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n == 1 {
		return nil
	}
	found, err := exists(ctx, q, `SELECT 1 FROM accounts WHERE name = ?`, upd.Account)
	if err != nil {
		return err
	}
	if !found {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query existence: %w", err)
	}
	return true, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func getAccount(ctx context.Context, q querier, name string) (model.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT name, initial_balance, balance, version, created_at FROM accounts WHERE name = ?`, name)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, store.ErrNotFound
	}
	return acct, err
}

func scanAccount(sc scanner) (model.Account, error) {
	var (
		acct    model.Account
		created int64
	)
	if err := sc.Scan(&acct.Name, &acct.InitialBalance, &acct.Balance, &acct.Version, &created); err != nil {
		return model.Account{}, err
	}
	acct.CreatedAt = time.Unix(0, created).UTC()
	return acct, nil
}

func listAccounts(ctx context.Context, q querier) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, initial_balance, balance, version, created_at FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func scanCategory(sc scanner) (model.Category, error) {
	var (
		cat     model.Category
		created int64
	)
	if err := sc.Scan(&cat.Name, &cat.Adjustment, &created); err != nil {
		return model.Category{}, err
	}
	cat.CreatedAt = time.Unix(0, created).UTC()
	return cat, nil
}

func listCategories(ctx context.Context, q querier) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, adjustment, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

const txnColumns = `seq, utr, actor, amount, bonus, kind, account, category, note, effective_date, created_at`

func scanTransaction(sc scanner) (model.Transaction, error) {
	var (
		txn     model.Transaction
		kind    string
		date    string
		created int64
	)
	err := sc.Scan(&txn.Seq, &txn.UTR, &txn.Actor, &txn.Amount, &txn.Bonus, &kind,
		&txn.Account, &txn.Category, &txn.Note, &date, &created)
	if err != nil {
		return model.Transaction{}, err
	}
	txn.Kind = model.Kind(kind)
	txn.Date, err = id.ParseDate(date)
	if err != nil {
		return model.Transaction{}, err
	}
	txn.CreatedAt = time.Unix(0, created).UTC()
	return txn, nil
}

func listTransactions(ctx context.Context, q querier) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+txnColumns+` FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := []model.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

var _ store.Store = (*Store)(nil)
