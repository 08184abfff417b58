package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a named balance-bearing entity ("bank").
type Account struct {
	Name           string
	InitialBalance decimal.Decimal
	Balance        decimal.Decimal
	Version        int64 // bumped on every balance write
	CreatedAt      time.Time
}

// Category is a named business-unit tag ("site") with an adjustment counter.
type Category struct {
	Name       string
	Adjustment decimal.Decimal // the "mistake" counter, overwritten not accumulated
	CreatedAt  time.Time
}
