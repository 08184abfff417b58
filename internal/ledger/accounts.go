package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cashbook-dev/cashbook/internal/auditlog"
	"github.com/cashbook-dev/cashbook/internal/id"
	"github.com/cashbook-dev/cashbook/internal/logger"
	"github.com/cashbook-dev/cashbook/internal/model"
)

// CreateAccount opens an account whose current balance starts at initialBalance.
func (e *Engine) CreateAccount(ctx context.Context, access model.Access, name string, initialBalance decimal.Decimal) (model.Account, error) {
	const op = "create account"
	name = id.NormalizeKey(name)
	if err := requireWrite(op, name, access); err != nil {
		return model.Account{}, err
	}
	if err := id.ValidateKey(name); err != nil {
		return model.Account{}, newError(op, name, ErrInvalidInput, err.Error())
	}
	if initialBalance.IsNegative() {
		return model.Account{}, newError(op, name, ErrInvalidInput, "initial balance must not be negative")
	}

	acct := model.Account{
		Name:           name,
		InitialBalance: initialBalance,
		Balance:        initialBalance,
		CreatedAt:      e.now().UTC(),
	}
	if err := e.store.CreateAccount(ctx, acct); err != nil {
		return model.Account{}, translate(op, name, err)
	}

	e.log.Info().Str(logger.FieldAccount, name).Stringer(logger.FieldBalance, initialBalance).Msg("account created")
	e.record(ActorFrom(ctx), auditlog.ActionAccountCreated, name, fmt.Sprintf("initial=%s", initialBalance))
	return acct, nil
}

// GetAccount returns the named account.
func (e *Engine) GetAccount(ctx context.Context, name string) (model.Account, error) {
	name = id.NormalizeKey(name)
	acct, err := e.store.GetAccount(ctx, name)
	if err != nil {
		return model.Account{}, translate("get account", name, err)
	}
	return acct, nil
}

// ListAccounts returns every account sorted by name.
func (e *Engine) ListAccounts(ctx context.Context) ([]model.Account, error) {
	accts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accts, nil
}

// DeleteAccount removes an account. It fails with ErrAccountInUse while any
// transaction references the account.
func (e *Engine) DeleteAccount(ctx context.Context, access model.Access, name string) error {
	const op = "delete account"
	name = id.NormalizeKey(name)
	if err := requireWrite(op, name, access); err != nil {
		return err
	}

	unlock := e.accounts.Lock(name)
	defer unlock()

	if err := e.store.DeleteAccount(ctx, name); err != nil {
		return translate(op, name, err)
	}

	e.log.Info().Str(logger.FieldAccount, name).Msg("account deleted")
	e.record(ActorFrom(ctx), auditlog.ActionAccountDeleted, name, "")
	return nil
}
