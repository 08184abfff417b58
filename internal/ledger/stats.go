package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store"
)

// ComputeStatistics aggregates one consistent snapshot of the stores.
func (e *Engine) ComputeStatistics(ctx context.Context, r model.DateRange) (model.Statistics, error) {
	snap, err := e.store.Snapshot(ctx)
	if err != nil {
		return model.Statistics{}, fmt.Errorf("compute statistics: %w", err)
	}
	return Aggregate(snap, r), nil
}

// Aggregate computes statistics over the transactions in snap whose effective
// date falls in r. Initial balance and adjustment totals cover all accounts
// and categories regardless of r.
func Aggregate(snap store.Snapshot, r model.DateRange) model.Statistics {
	stats := model.Statistics{
		Range:               r,
		TotalDeposit:        decimal.Zero,
		TotalWithdraw:       decimal.Zero,
		TotalBonus:          decimal.Zero,
		TotalInitialBalance: decimal.Zero,
		TotalAdjustment:     decimal.Zero,
		ByAccount:           make(map[string]decimal.Decimal),
		ByCategory:          make(map[string]decimal.Decimal),
	}

	for _, acct := range snap.Accounts {
		stats.TotalInitialBalance = stats.TotalInitialBalance.Add(acct.InitialBalance)
	}
	for _, cat := range snap.Categories {
		stats.TotalAdjustment = stats.TotalAdjustment.Add(cat.Adjustment)
	}

	for _, txn := range snap.Transactions {
		if !r.Contains(txn.Date) {
			continue
		}
		stats.TransactionCount++
		switch txn.Kind {
		case model.KindDeposit:
			stats.TotalDeposit = stats.TotalDeposit.Add(txn.Amount)
		case model.KindWithdraw:
			stats.TotalWithdraw = stats.TotalWithdraw.Add(txn.Amount)
		}
		stats.TotalBonus = stats.TotalBonus.Add(txn.Bonus)
		stats.ByAccount[txn.Account] = stats.ByAccount[txn.Account].Add(txn.Amount)
		stats.ByCategory[txn.Category] = stats.ByCategory[txn.Category].Add(txn.Amount)
	}

	stats.NetBalance = stats.TotalDeposit.Sub(stats.TotalWithdraw)
	return stats
}
