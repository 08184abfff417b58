package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store"
	"github.com/cashbook-dev/cashbook/internal/store/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cashbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openTemp(t)
	})
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cashbook.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.CreateAccount(context.Background(), model.Account{
		Name:           "HDFC",
		InitialBalance: decimal.NewFromInt(10),
		Balance:        decimal.NewFromInt(10),
		CreatedAt:      time.Now(),
	}))
	require.NoError(t, s1.Close())

	// Reopening runs migrations again as a no-op and keeps data.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	acct, err := s2.GetAccount(context.Background(), "HDFC")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(decimal.NewFromInt(10)))
}

func TestDecimalPrecision(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	// Values that are not representable as float64 survive exactly.
	initial := decimal.RequireFromString("0.1")
	require.NoError(t, s.CreateAccount(ctx, model.Account{Name: "HDFC", InitialBalance: initial, Balance: initial, CreatedAt: time.Now()}))

	_, err := s.ApplyTransaction(ctx, model.Transaction{
		UTR:       "U1",
		Actor:     "ravi",
		Amount:    decimal.RequireFromString("0.2"),
		Bonus:     decimal.RequireFromString("0.05"),
		Kind:      model.KindDeposit,
		Account:   "HDFC",
		Category:  "north",
		Note:      "n",
		Date:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Now(),
	}, store.BalanceUpdate{Account: "HDFC", ExpectedVersion: 0, Balance: initial.Add(decimal.RequireFromString("0.2"))})
	require.NoError(t, err)

	acct, err := s.GetAccount(ctx, "HDFC")
	require.NoError(t, err)
	assert.Equal(t, "0.3", acct.Balance.String())

	txn, err := s.GetTransaction(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "0.05", txn.Bonus.String())
}
