package ledger

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store"
	"github.com/cashbook-dev/cashbook/internal/store/memory"
	"github.com/cashbook-dev/cashbook/internal/store/sqlite"
)

func statsEngine(t *testing.T) *Engine {
	t.Helper()
	e := newEngine(t)
	seed(t, e)
	ctx := context.Background()

	_, err := e.CreateAccount(ctx, rw, "B", dec("200"))
	require.NoError(t, err)
	_, err = e.CreateCategory(ctx, rw, "south")
	require.NoError(t, err)
	require.NoError(t, e.SetAdjustment(ctx, rw, "south", dec("7.5")))

	subs := []Submission{
		{UTR: "U1", Kind: model.KindDeposit, Amount: dec("500"), Bonus: dec("5"), Account: "A", Category: "north", Date: day(2025, 1, 1)},
		{UTR: "U2", Kind: model.KindWithdraw, Amount: dec("200"), Account: "A", Category: "south", Date: day(2025, 1, 10)},
		{UTR: "U3", Kind: model.KindDeposit, Amount: dec("50"), Bonus: dec("2.5"), Account: "B", Category: "north", Date: day(2025, 2, 1)},
	}
	for _, s := range subs {
		s.Actor, s.Note = "ravi", "cash"
		_, err := e.SubmitTransaction(ctx, rw, s)
		require.NoError(t, err)
	}
	return e
}

func TestComputeStatistics_Full(t *testing.T) {
	e := statsEngine(t)

	stats, err := e.ComputeStatistics(context.Background(), model.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TransactionCount)
	assert.True(t, stats.TotalDeposit.Equal(dec("550")))
	assert.True(t, stats.TotalWithdraw.Equal(dec("200")))
	assert.True(t, stats.NetBalance.Equal(stats.TotalDeposit.Sub(stats.TotalWithdraw)))
	assert.True(t, stats.TotalBonus.Equal(dec("7.5")))
	assert.True(t, stats.TotalInitialBalance.Equal(dec("1200")))
	assert.True(t, stats.TotalAdjustment.Equal(dec("7.5")))

	assert.True(t, stats.ByAccount["A"].Equal(dec("700")))
	assert.True(t, stats.ByAccount["B"].Equal(dec("50")))
	assert.True(t, stats.ByCategory["north"].Equal(dec("550")))
	assert.True(t, stats.ByCategory["south"].Equal(dec("200")))
}

func TestComputeStatistics_Range(t *testing.T) {
	e := statsEngine(t)

	stats, err := e.ComputeStatistics(context.Background(), model.DateRange{From: day(2025, 1, 1), To: day(2025, 1, 10)})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TransactionCount)
	assert.True(t, stats.NetBalance.Equal(dec("300")))
	assert.NotContains(t, stats.ByAccount, "B")
	// Initial balances and adjustments ignore the range.
	assert.True(t, stats.TotalInitialBalance.Equal(dec("1200")))
}

func TestComputeStatistics_EmptyRange(t *testing.T) {
	e := statsEngine(t)

	stats, err := e.ComputeStatistics(context.Background(), model.DateRange{From: day(2030, 1, 1), To: day(2030, 12, 31)})
	require.NoError(t, err)
	assert.Zero(t, stats.TransactionCount)
	assert.True(t, stats.TotalDeposit.IsZero())
	assert.True(t, stats.TotalWithdraw.IsZero())
	assert.True(t, stats.NetBalance.IsZero())
	assert.True(t, stats.TotalBonus.IsZero())
	assert.Empty(t, stats.ByAccount)
	assert.Empty(t, stats.ByCategory)
}

func TestComputeStatistics_DoesNotMutate(t *testing.T) {
	e := statsEngine(t)
	ctx := context.Background()

	before, err := e.ListTransactions(ctx)
	require.NoError(t, err)
	_, err = e.ComputeStatistics(ctx, model.DateRange{})
	require.NoError(t, err)
	after, err := e.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, balance(t, e, "A").Equal(dec("1300")))
}

// checkConsistent fails unless every account balance in snap equals its
// initial balance plus the transactions recorded against it.
func checkConsistent(snap store.Snapshot) error {
	deltas := make(map[string]decimal.Decimal)
	for _, txn := range snap.Transactions {
		deltas[txn.Account] = deltas[txn.Account].Add(txn.Delta())
	}

	total := decimal.Zero
	for _, acct := range snap.Accounts {
		want := acct.InitialBalance.Add(deltas[acct.Name])
		if !acct.Balance.Equal(want) {
			return fmt.Errorf("account %s: balance %s, ledger implies %s", acct.Name, acct.Balance, want)
		}
		total = total.Add(acct.Balance)
	}

	stats := Aggregate(snap, model.DateRange{})
	if want := stats.TotalInitialBalance.Add(stats.NetBalance); !total.Equal(want) {
		return fmt.Errorf("sum of balances %s, initial+net %s", total, want)
	}
	return nil
}

func TestComputeStatistics_ConsistentDuringWrites(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) store.Store
	}{
		{"memory", func(t *testing.T) store.Store { return memory.New() }},
		{"sqlite", func(t *testing.T) store.Store {
			s, err := sqlite.Open(filepath.Join(t.TempDir(), "cashbook.db"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			e := New(b.open(t), WithClock(fixedClock()))
			ctx := context.Background()
			seed(t, e)
			_, err := e.CreateAccount(ctx, rw, "B", dec("500"))
			require.NoError(t, err)

			const rounds = 20
			done := make(chan struct{})

			var writers errgroup.Group
			for _, acct := range []string{"A", "B"} {
				writers.Go(func() error {
					for i := 0; i < rounds; i++ {
						dep := sub(fmt.Sprintf("%s-D%d", acct, i), model.KindDeposit, "10")
						dep.Account = acct
						if _, err := e.SubmitTransaction(ctx, rw, dep); err != nil {
							return err
						}
						wd := sub(fmt.Sprintf("%s-W%d", acct, i), model.KindWithdraw, "5")
						wd.Account = acct
						if _, err := e.SubmitTransaction(ctx, rw, wd); err != nil {
							return err
						}
						if i%5 == 0 {
							if _, err := e.ReverseTransaction(ctx, rw, dep.UTR); err != nil {
								return err
							}
						}
					}
					return nil
				})
			}

			var readers errgroup.Group
			for i := 0; i < 3; i++ {
				readers.Go(func() error {
					for {
						snap, err := e.store.Snapshot(ctx)
						if err != nil {
							return err
						}
						if err := checkConsistent(snap); err != nil {
							return err
						}
						stats, err := e.ComputeStatistics(ctx, model.DateRange{})
						if err != nil {
							return err
						}
						if !stats.TotalDeposit.Sub(stats.TotalWithdraw).Equal(stats.NetBalance) {
							return fmt.Errorf("net %s does not match totals", stats.NetBalance)
						}
						select {
						case <-done:
							return nil
						default:
						}
					}
				})
			}

			require.NoError(t, writers.Wait())
			close(done)
			require.NoError(t, readers.Wait())

			snap, err := e.store.Snapshot(ctx)
			require.NoError(t, err)
			require.NoError(t, checkConsistent(snap))
			// 20 rounds of +10 -5 with 4 deposits reversed: 1000 + 100 - 40.
			assert.True(t, balance(t, e, "A").Equal(dec("1060")))
			assert.True(t, balance(t, e, "B").Equal(dec("560")))
		})
	}
}
