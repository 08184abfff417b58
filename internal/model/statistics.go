package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange is an inclusive range of effective dates. A zero bound is unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls within the range, comparing calendar dates only.
func (r DateRange) Contains(d time.Time) bool {
	day := truncateDay(d)
	if !r.From.IsZero() && day.Before(truncateDay(r.From)) {
		return false
	}
	if !r.To.IsZero() && day.After(truncateDay(r.To)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Statistics is the read-side projection computed by the aggregator.
type Statistics struct {
	Range               DateRange
	TransactionCount    int
	TotalDeposit        decimal.Decimal
	TotalWithdraw       decimal.Decimal
	NetBalance          decimal.Decimal // TotalDeposit - TotalWithdraw
	TotalBonus          decimal.Decimal
	TotalInitialBalance decimal.Decimal
	TotalAdjustment     decimal.Decimal
	ByAccount           map[string]decimal.Decimal
	ByCategory          map[string]decimal.Decimal
}
