package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cashbook-dev/cashbook/internal/auditlog"
	"github.com/cashbook-dev/cashbook/internal/events"
	"github.com/cashbook-dev/cashbook/internal/id"
	"github.com/cashbook-dev/cashbook/internal/logger"
	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store"
)

// SubmitTransaction validates sub and applies it to its account. The balance
// change and the ledger record are committed together or not at all.
func (e *Engine) SubmitTransaction(ctx context.Context, access model.Access, sub Submission) (model.Transaction, error) {
	const op = "submit transaction"
	sub = sub.normalized()
	if err := requireWrite(op, sub.UTR, access); err != nil {
		return model.Transaction{}, err
	}
	if problems := sub.Problems(); len(problems) > 0 {
		e.log.Debug().
			Str(logger.FieldOp, op).
			Str(logger.FieldUTR, sub.UTR).
			Strs("problems", problems).
			Msg("submission rejected")
		return model.Transaction{}, newError(op, sub.UTR, ErrInvalidInput, strings.Join(problems, "; "))
	}

	unlock := e.accounts.Lock(sub.Account)
	defer unlock()
	// Shared: submissions tagging the same category run in parallel, while
	// DeleteCategory waits for them.
	unlockCat := e.categories.RLock(sub.Category)
	defer unlockCat()

	if _, err := e.store.GetAccount(ctx, sub.Account); err != nil {
		return model.Transaction{}, translate(op, sub.Account, err)
	}
	if _, err := e.store.GetCategory(ctx, sub.Category); err != nil {
		return model.Transaction{}, translate(op, sub.Category, err)
	}

	release, err := e.reserveUTR(ctx, op, sub.UTR)
	if err != nil {
		return model.Transaction{}, err
	}
	defer release()

	txn := model.Transaction{
		UTR:       sub.UTR,
		Actor:     sub.Actor,
		Amount:    sub.Amount,
		Bonus:     sub.Bonus,
		Kind:      sub.Kind,
		Account:   sub.Account,
		Category:  sub.Category,
		Note:      sub.Note,
		Date:      sub.Date,
		CreatedAt: e.now().UTC(),
	}

	var acct model.Account
	for attempt := 0; ; attempt++ {
		acct, err = e.store.GetAccount(ctx, txn.Account)
		if err != nil {
			return model.Transaction{}, translate(op, txn.Account, err)
		}

		balance := acct.Balance.Add(txn.Delta())
		if balance.IsNegative() {
			e.log.Warn().
				Str(logger.FieldUTR, txn.UTR).
				Str(logger.FieldAccount, txn.Account).
				Stringer(logger.FieldAmount, txn.Amount).
				Stringer(logger.FieldBalance, acct.Balance).
				Msg("withdrawal exceeds balance")
			return model.Transaction{}, newError(op, txn.UTR, ErrInsufficientBalance,
				fmt.Sprintf("balance %s is less than %s", acct.Balance, txn.Amount))
		}

		upd := store.BalanceUpdate{Account: acct.Name, ExpectedVersion: acct.Version, Balance: balance}
		stored, err := e.store.ApplyTransaction(ctx, txn, upd)
		if errors.Is(err, store.ErrConflict) && attempt < e.maxRetries {
			e.log.Debug().Str(logger.FieldAccount, txn.Account).Int("attempt", attempt+1).Msg("balance version conflict, retrying")
			continue
		}
		if errors.Is(err, store.ErrExists) {
			return model.Transaction{}, newError(op, txn.UTR, ErrDuplicateTransaction, "")
		}
		if err != nil {
			return model.Transaction{}, translate(op, txn.Account, err)
		}

		txn = stored
		acct.Balance = balance
		acct.Version++
		break
	}

	e.log.Info().
		Str(logger.FieldUTR, txn.UTR).
		Str(logger.FieldActor, txn.Actor).
		Str(logger.FieldKind, string(txn.Kind)).
		Str(logger.FieldAccount, txn.Account).
		Str(logger.FieldCategory, txn.Category).
		Stringer(logger.FieldAmount, txn.Amount).
		Stringer(logger.FieldBalance, acct.Balance).
		Msg("transaction recorded")
	e.record(txn.Actor, auditlog.ActionTransactionApplied, txn.UTR,
		fmt.Sprintf("%s %s account=%s balance=%s", txn.Kind, txn.Amount, txn.Account, acct.Balance))
	e.publish(ctx, events.TypeTransactionRecorded, txn, acct)

	return txn, nil
}

// ReverseTransaction removes a recorded transaction. Unless the engine was
// built WithRestoreOnReverse(false), the account balance is restored in the
// same commit; reversing a deposit that has since been spent fails with
// ErrInsufficientBalance.
func (e *Engine) ReverseTransaction(ctx context.Context, access model.Access, utr string) (model.Transaction, error) {
	const op = "reverse transaction"
	utr = id.NormalizeKey(utr)
	if err := requireWrite(op, utr, access); err != nil {
		return model.Transaction{}, err
	}
	if err := id.ValidateKey(utr); err != nil {
		return model.Transaction{}, newError(op, utr, ErrInvalidInput, err.Error())
	}

	txn, err := e.store.GetTransaction(ctx, utr)
	if err != nil {
		return model.Transaction{}, translate(op, utr, err)
	}

	unlock := e.accounts.Lock(txn.Account)
	defer unlock()

	var acct model.Account
	for attempt := 0; ; attempt++ {
		var upd *store.BalanceUpdate
		if e.restoreOnReverse {
			acct, err = e.store.GetAccount(ctx, txn.Account)
			if err != nil {
				return model.Transaction{}, translate(op, txn.Account, err)
			}
			balance := acct.Balance.Sub(txn.Delta())
			if balance.IsNegative() {
				return model.Transaction{}, newError(op, utr, ErrInsufficientBalance,
					fmt.Sprintf("balance %s cannot absorb reversal of %s", acct.Balance, txn.Amount))
			}
			upd = &store.BalanceUpdate{Account: acct.Name, ExpectedVersion: acct.Version, Balance: balance}
		}

		err = e.store.RemoveTransaction(ctx, utr, upd)
		if errors.Is(err, store.ErrConflict) && attempt < e.maxRetries {
			continue
		}
		if err != nil {
			return model.Transaction{}, translate(op, utr, err)
		}
		if upd != nil {
			acct.Balance = upd.Balance
			acct.Version++
		} else if acct, err = e.store.GetAccount(ctx, txn.Account); err != nil {
			return model.Transaction{}, translate(op, txn.Account, err)
		}
		break
	}

	e.log.Info().
		Str(logger.FieldUTR, utr).
		Str(logger.FieldActor, ActorFrom(ctx)).
		Str(logger.FieldAccount, txn.Account).
		Bool("restored", e.restoreOnReverse).
		Stringer(logger.FieldBalance, acct.Balance).
		Msg("transaction reversed")
	e.record(ActorFrom(ctx), auditlog.ActionTransactionReversed, utr,
		fmt.Sprintf("%s %s account=%s restored=%t balance=%s", txn.Kind, txn.Amount, txn.Account, e.restoreOnReverse, acct.Balance))
	e.publish(ctx, events.TypeTransactionReversed, txn, acct)

	return txn, nil
}

// GetTransaction returns the transaction recorded under utr.
func (e *Engine) GetTransaction(ctx context.Context, utr string) (model.Transaction, error) {
	utr = id.NormalizeKey(utr)
	txn, err := e.store.GetTransaction(ctx, utr)
	if err != nil {
		return model.Transaction{}, translate("get transaction", utr, err)
	}
	return txn, nil
}

// ListTransactions returns a snapshot of the ledger, most recent first.
func (e *Engine) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	return e.FilterTransactions(ctx, Filter{})
}

// Filter selects transactions. Zero fields match everything.
type Filter struct {
	Account  string
	Category string
	Kind     model.Kind
	Range    model.DateRange
}

// Match reports whether txn passes the filter.
func (f Filter) Match(txn model.Transaction) bool {
	if f.Account != "" && txn.Account != f.Account {
		return false
	}
	if f.Category != "" && txn.Category != f.Category {
		return false
	}
	if f.Kind != "" && txn.Kind != f.Kind {
		return false
	}
	return f.Range.Contains(txn.Date)
}

// FilterTransactions returns the matching transactions, most recent first.
func (e *Engine) FilterTransactions(ctx context.Context, f Filter) ([]model.Transaction, error) {
	f.Account = id.NormalizeKey(f.Account)
	f.Category = id.NormalizeKey(f.Category)

	all, err := e.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txns := make([]model.Transaction, 0, len(all))
	for _, txn := range all {
		if f.Match(txn) {
			txns = append(txns, txn)
		}
	}
	SortNewestFirst(txns)
	return txns, nil
}

// SortNewestFirst orders by creation time descending, then by store sequence.
func SortNewestFirst(txns []model.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].CreatedAt.Equal(txns[j].CreatedAt) {
			return txns[i].CreatedAt.After(txns[j].CreatedAt)
		}
		return txns[i].Seq > txns[j].Seq
	})
}
