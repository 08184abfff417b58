package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the action a transaction applies to its account.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindDeposit || k == KindWithdraw
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown transaction kind %q", s)
	}
	return k, nil
}

// Transaction is one ledger record, keyed by UTR.
type Transaction struct {
	UTR       string
	Actor     string
	Amount    decimal.Decimal
	Bonus     decimal.Decimal // recorded, never applied to the balance
	Kind      Kind
	Account   string
	Category  string
	Note      string
	Date      time.Time // effective calendar date, UTC midnight
	CreatedAt time.Time
	Seq       int64 // store insertion order; breaks CreatedAt ties
}

// Delta returns the signed effect of the transaction on its account balance.
func (t Transaction) Delta() decimal.Decimal {
	if t.Kind == KindWithdraw {
		return t.Amount.Neg()
	}
	return t.Amount
}
