// Package memory is an in-process store. It is safe for concurrent use and
// keeps everything in maps guarded by a single RWMutex.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	accounts   map[string]model.Account
	categories map[string]model.Category
	txns       map[string]model.Transaction
	seq        int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts:   make(map[string]model.Account),
		categories: make(map[string]model.Category),
		txns:       make(map[string]model.Transaction),
	}
}

func (s *Store) CreateAccount(_ context.Context, acct model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acct.Name]; ok {
		return store.ErrExists
	}
	s.accounts[acct.Name] = acct
	return nil
}

func (s *Store) GetAccount(_ context.Context, name string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[name]
	if !ok {
		return model.Account{}, store.ErrNotFound
	}
	return acct, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountsLocked(), nil
}

func (s *Store) DeleteAccount(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[name]; !ok {
		return store.ErrNotFound
	}
	for _, txn := range s.txns {
		if txn.Account == name {
			return store.ErrReferenced
		}
	}
	delete(s.accounts, name)
	return nil
}

func (s *Store) CreateCategory(_ context.Context, cat model.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[cat.Name]; ok {
		return store.ErrExists
	}
	s.categories[cat.Name] = cat
	return nil
}

func (s *Store) GetCategory(_ context.Context, name string) (model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cat, ok := s.categories[name]
	if !ok {
		return model.Category{}, store.ErrNotFound
	}
	return cat, nil
}

func (s *Store) ListCategories(_ context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categoriesLocked(), nil
}

func (s *Store) SetAdjustment(_ context.Context, name string, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.categories[name]
	if !ok {
		return store.ErrNotFound
	}
	cat.Adjustment = value
	s.categories[name] = cat
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[name]; !ok {
		return store.ErrNotFound
	}
	delete(s.categories, name)
	return nil
}

func (s *Store) TransactionExists(_ context.Context, utr string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.txns[utr]
	return ok, nil
}

func (s *Store) GetTransaction(_ context.Context, utr string) (model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, ok := s.txns[utr]
	if !ok {
		return model.Transaction{}, store.ErrNotFound
	}
	return txn, nil
}

func (s *Store) ListTransactions(_ context.Context) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transactionsLocked(), nil
}

func (s *Store) ApplyTransaction(_ context.Context, txn model.Transaction, upd store.BalanceUpdate) (model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txns[txn.UTR]; ok {
		return model.Transaction{}, store.ErrExists
	}
	if err := s.updateBalanceLocked(upd); err != nil {
		return model.Transaction{}, err
	}

	s.seq++
	txn.Seq = s.seq
	s.txns[txn.UTR] = txn
	return txn, nil
}

func (s *Store) RemoveTransaction(_ context.Context, utr string, upd *store.BalanceUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txns[utr]; !ok {
		return store.ErrNotFound
	}
	if upd != nil {
		if err := s.updateBalanceLocked(*upd); err != nil {
			return err
		}
	}
	delete(s.txns, utr)
	return nil
}

func (s *Store) Snapshot(_ context.Context) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return store.Snapshot{
		Accounts:     s.accountsLocked(),
		Categories:   s.categoriesLocked(),
		Transactions: s.transactionsLocked(),
	}, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// updateBalanceLocked validates the CAS before mutating anything, so a failed
// update leaves the store untouched.
func (s *Store) updateBalanceLocked(upd store.BalanceUpdate) error {
	acct, ok := s.accounts[upd.Account]
	if !ok {
		return store.ErrNotFound
	}
	if acct.Version != upd.ExpectedVersion {
		return store.ErrConflict
	}
	acct.Balance = upd.Balance
	acct.Version++
	s.accounts[upd.Account] = acct
	return nil
}

func (s *Store) accountsLocked() []model.Account {
	out := make([]model.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) categoriesLocked() []model.Category {
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) transactionsLocked() []model.Transaction {
	out := make([]model.Transaction, 0, len(s.txns))
	for _, t := range s.txns {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

var _ store.Store = (*Store)(nil)
