// Package storetest holds the behavior every store.Store backend must satisfy.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

var created = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func account(name, initial string) model.Account {
	return model.Account{
		Name:           name,
		InitialBalance: dec(initial),
		Balance:        dec(initial),
		CreatedAt:      created,
	}
}

func txn(utr, acct string, kind model.Kind, amount string) model.Transaction {
	return model.Transaction{
		UTR:       utr,
		Actor:     "ravi",
		Amount:    dec(amount),
		Bonus:     decimal.Zero,
		Kind:      kind,
		Account:   acct,
		Category:  "north",
		Note:      "cash",
		Date:      time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: created,
	}
}

// Run exercises the full store contract against backends built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("AccountCRUD", func(t *testing.T) { testAccountCRUD(t, newStore(t)) })
	t.Run("CategoryCRUD", func(t *testing.T) { testCategoryCRUD(t, newStore(t)) })
	t.Run("ApplyTransaction", func(t *testing.T) { testApplyTransaction(t, newStore(t)) })
	t.Run("ApplyConflict", func(t *testing.T) { testApplyConflict(t, newStore(t)) })
	t.Run("ApplyDuplicate", func(t *testing.T) { testApplyDuplicate(t, newStore(t)) })
	t.Run("RemoveTransaction", func(t *testing.T) { testRemoveTransaction(t, newStore(t)) })
	t.Run("DeleteReferencedAccount", func(t *testing.T) { testDeleteReferencedAccount(t, newStore(t)) })
	t.Run("Snapshot", func(t *testing.T) { testSnapshot(t, newStore(t)) })
}

func testAccountCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.CreateAccount(ctx, account("HDFC", "1000.50")))
	require.NoError(t, s.CreateAccount(ctx, account("Axis", "0")))
	assert.ErrorIs(t, s.CreateAccount(ctx, account("HDFC", "5")), store.ErrExists)

	got, err := s.GetAccount(ctx, "HDFC")
	require.NoError(t, err)
	assert.Equal(t, "HDFC", got.Name)
	assert.True(t, got.InitialBalance.Equal(dec("1000.50")), "initial: got %s", got.InitialBalance)
	assert.True(t, got.Balance.Equal(dec("1000.50")), "balance: got %s", got.Balance)
	assert.Equal(t, int64(0), got.Version)
	assert.True(t, got.CreatedAt.Equal(created))

	_, err = s.GetAccount(ctx, "ICICI")
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Axis", all[0].Name, "accounts are sorted by name")
	assert.Equal(t, "HDFC", all[1].Name)

	require.NoError(t, s.DeleteAccount(ctx, "Axis"))
	assert.ErrorIs(t, s.DeleteAccount(ctx, "Axis"), store.ErrNotFound)
}

func testCategoryCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.CreateCategory(ctx, model.Category{Name: "north", CreatedAt: created}))
	assert.ErrorIs(t, s.CreateCategory(ctx, model.Category{Name: "north"}), store.ErrExists)

	cat, err := s.GetCategory(ctx, "north")
	require.NoError(t, err)
	assert.True(t, cat.Adjustment.IsZero())

	require.NoError(t, s.SetAdjustment(ctx, "north", dec("12.5")))
	require.NoError(t, s.SetAdjustment(ctx, "north", dec("3")))
	cat, err = s.GetCategory(ctx, "north")
	require.NoError(t, err)
	assert.True(t, cat.Adjustment.Equal(dec("3")), "adjustment overwrites: got %s", cat.Adjustment)

	assert.ErrorIs(t, s.SetAdjustment(ctx, "south", dec("1")), store.ErrNotFound)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	require.NoError(t, s.DeleteCategory(ctx, "north"))
	assert.ErrorIs(t, s.DeleteCategory(ctx, "north"), store.ErrNotFound)
	_, err = s.GetCategory(ctx, "north")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testApplyTransaction(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, account("HDFC", "1000")))

	first, err := s.ApplyTransaction(ctx, txn("U1", "HDFC", model.KindDeposit, "500"), store.BalanceUpdate{
		Account: "HDFC", ExpectedVersion: 0, Balance: dec("1500"),
	})
	require.NoError(t, err)
	assert.Positive(t, first.Seq)

	second, err := s.ApplyTransaction(ctx, txn("U2", "HDFC", model.KindWithdraw, "200"), store.BalanceUpdate{
		Account: "HDFC", ExpectedVersion: 1, Balance: dec("1300"),
	})
	require.NoError(t, err)
	assert.Greater(t, second.Seq, first.Seq)

	acct, err := s.GetAccount(ctx, "HDFC")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("1300")), "balance: got %s", acct.Balance)
	assert.Equal(t, int64(2), acct.Version)

	exists, err := s.TransactionExists(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.GetTransaction(ctx, "U2")
	require.NoError(t, err)
	assert.Equal(t, model.KindWithdraw, got.Kind)
	assert.True(t, got.Amount.Equal(dec("200")))
	assert.Equal(t, "north", got.Category)
	assert.Equal(t, "ravi", got.Actor)
	assert.Equal(t, "cash", got.Note)
	assert.True(t, got.Date.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, got.CreatedAt.Equal(created))

	list, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func testApplyConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, account("HDFC", "1000")))

	_, err := s.ApplyTransaction(ctx, txn("U1", "HDFC", model.KindDeposit, "500"), store.BalanceUpdate{
		Account: "HDFC", ExpectedVersion: 7, Balance: dec("1500"),
	})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.ApplyTransaction(ctx, txn("U2", "Nope", model.KindDeposit, "1"), store.BalanceUpdate{
		Account: "Nope", ExpectedVersion: 0, Balance: dec("1"),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Neither side of a failed apply is visible.
	acct, err := s.GetAccount(ctx, "HDFC")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("1000")))
	assert.Equal(t, int64(0), acct.Version)

	list, err := s.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testApplyDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, account("HDFC", "1000")))
	require.NoError(t, s.CreateAccount(ctx, account("Axis", "1000")))

	_, err := s.ApplyTransaction(ctx, txn("U1", "HDFC", model.KindDeposit, "500"), store.BalanceUpdate{
		Account: "HDFC", ExpectedVersion: 0, Balance: dec("1500"),
	})
	require.NoError(t, err)

	// Same UTR on a different account is still a duplicate.
	_, err = s.ApplyTransaction(ctx, txn("U1", "Axis", model.KindDeposit, "10"), store.BalanceUpdate{
		Account: "Axis", ExpectedVersion: 0, Balance: dec("1010"),
	})
	assert.ErrorIs(t, err, store.ErrExists)

	acct, err := s.GetAccount(ctx, "Axis")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("1000")), "failed insert must not move the balance")
}

func testRemoveTransaction(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, account("HDFC", "1000")))

	_, err := s.ApplyTransaction(ctx, txn("U1", "HDFC", model.KindDeposit, "500"), store.BalanceUpdate{
		Account: "HDFC", ExpectedVersion: 0, Balance: dec("1500"),
	})
	require.NoError(t, err)
	_, err = s.ApplyTransaction(ctx, txn("U2", "HDFC", model.KindDeposit, "100"), store.BalanceUpdate{
		Account: "HDFC", ExpectedVersion: 1, Balance: dec("1600"),
	})
	require.NoError(t, err)

	// Without a balance update the balance stays.
	require.NoError(t, s.RemoveTransaction(ctx, "U2", nil))
	acct, err := s.GetAccount(ctx, "HDFC")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("1600")))

	// With a stale version nothing changes.
	err = s.RemoveTransaction(ctx, "U1", &store.BalanceUpdate{Account: "HDFC", ExpectedVersion: 0, Balance: dec("1100")})
	assert.ErrorIs(t, err, store.ErrConflict)
	exists, err := s.TransactionExists(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.RemoveTransaction(ctx, "U1", &store.BalanceUpdate{Account: "HDFC", ExpectedVersion: 2, Balance: dec("1100")}))
	acct, err = s.GetAccount(ctx, "HDFC")
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(dec("1100")), "balance: got %s", acct.Balance)

	assert.ErrorIs(t, s.RemoveTransaction(ctx, "U1", nil), store.ErrNotFound)
	_, err = s.GetTransaction(ctx, "U1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDeleteReferencedAccount(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, account("HDFC", "1000")))

	_, err := s.ApplyTransaction(ctx, txn("U1", "HDFC", model.KindDeposit, "1"), store.BalanceUpdate{
		Account: "HDFC", ExpectedVersion: 0, Balance: dec("1001"),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteAccount(ctx, "HDFC"), store.ErrReferenced)

	require.NoError(t, s.RemoveTransaction(ctx, "U1", nil))
	assert.NoError(t, s.DeleteAccount(ctx, "HDFC"))
}

func testSnapshot(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, account("HDFC", "1000")))
	require.NoError(t, s.CreateCategory(ctx, model.Category{Name: "north", Adjustment: dec("4"), CreatedAt: created}))
	_, err := s.ApplyTransaction(ctx, txn("U1", "HDFC", model.KindDeposit, "500"), store.BalanceUpdate{
		Account: "HDFC", ExpectedVersion: 0, Balance: dec("1500"),
	})
	require.NoError(t, err)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Accounts, 1)
	require.Len(t, snap.Categories, 1)
	require.Len(t, snap.Transactions, 1)
	assert.True(t, snap.Accounts[0].Balance.Equal(dec("1500")))
	assert.True(t, snap.Categories[0].Adjustment.Equal(dec("4")))
	assert.Equal(t, "U1", snap.Transactions[0].UTR)
}
