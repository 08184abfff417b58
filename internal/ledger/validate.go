package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cashbook-dev/cashbook/internal/id"
	"github.com/cashbook-dev/cashbook/internal/model"
)

// Submission is a request to record one transaction.
type Submission struct {
	Actor    string
	Amount   decimal.Decimal
	Bonus    decimal.Decimal
	UTR      string
	Account  string
	Category string
	Note     string
	Date     time.Time
	Kind     model.Kind
}

// normalized trims keys and text fields and truncates the date to a UTC day.
func (s Submission) normalized() Submission {
	s.Actor = strings.TrimSpace(s.Actor)
	s.UTR = id.NormalizeKey(s.UTR)
	s.Account = id.NormalizeKey(s.Account)
	s.Category = id.NormalizeKey(s.Category)
	s.Note = strings.TrimSpace(s.Note)
	s.Kind = model.Kind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
	if !s.Date.IsZero() {
		y, m, d := s.Date.Date()
		s.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return s
}

// Problems lists every reason s cannot be recorded. An empty result means s is valid.
func (s Submission) Problems() []string {
	var problems []string

	if !s.Amount.IsPositive() {
		problems = append(problems, fmt.Sprintf("amount %s must be greater than zero", s.Amount))
	}
	if s.Actor == "" {
		problems = append(problems, "actor is required")
	}
	if s.Note == "" {
		problems = append(problems, "note is required")
	}
	if s.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	if !s.Kind.Valid() {
		problems = append(problems, fmt.Sprintf("unknown kind %q", s.Kind))
	}

	for _, f := range []struct{ name, value string }{
		{"utr", s.UTR},
		{"account", s.Account},
		{"category", s.Category},
	} {
		if err := id.ValidateKey(f.value); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", f.name, err))
		}
	}

	return problems
}
