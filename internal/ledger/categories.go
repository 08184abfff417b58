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

// CreateCategory adds a category with a zero adjustment counter.
func (e *Engine) CreateCategory(ctx context.Context, access model.Access, name string) (model.Category, error) {
	const op = "create category"
	name = id.NormalizeKey(name)
	if err := requireWrite(op, name, access); err != nil {
		return model.Category{}, err
	}
	if err := id.ValidateKey(name); err != nil {
		return model.Category{}, newError(op, name, ErrInvalidInput, err.Error())
	}

	cat := model.Category{Name: name, Adjustment: decimal.Zero, CreatedAt: e.now().UTC()}
	if err := e.store.CreateCategory(ctx, cat); err != nil {
		return model.Category{}, translate(op, name, err)
	}

	e.log.Info().Str(logger.FieldCategory, name).Msg("category created")
	e.record(ActorFrom(ctx), auditlog.ActionCategoryCreated, name, "")
	return cat, nil
}

// GetCategory returns the named category.
func (e *Engine) GetCategory(ctx context.Context, name string) (model.Category, error) {
	name = id.NormalizeKey(name)
	cat, err := e.store.GetCategory(ctx, name)
	if err != nil {
		return model.Category{}, translate("get category", name, err)
	}
	return cat, nil
}

// ListCategories returns every category sorted by name.
func (e *Engine) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// SetAdjustment overwrites the category's adjustment counter. The previous
// value is kept in the audit trail.
func (e *Engine) SetAdjustment(ctx context.Context, access model.Access, name string, value decimal.Decimal) error {
	const op = "set adjustment"
	name = id.NormalizeKey(name)
	if err := requireWrite(op, name, access); err != nil {
		return err
	}

	unlock := e.categories.Lock(name)
	defer unlock()

	old, err := e.store.GetCategory(ctx, name)
	if err != nil {
		return translate(op, name, err)
	}
	if err := e.store.SetAdjustment(ctx, name, value); err != nil {
		return translate(op, name, err)
	}

	e.log.Info().
		Str(logger.FieldCategory, name).
		Stringer("old", old.Adjustment).
		Stringer("new", value).
		Msg("adjustment set")
	e.record(ActorFrom(ctx), auditlog.ActionAdjustmentSet, name, fmt.Sprintf("old=%s new=%s", old.Adjustment, value))
	return nil
}

// DeleteCategory removes a category. Transactions tagged with it keep the name.
func (e *Engine) DeleteCategory(ctx context.Context, access model.Access, name string) error {
	const op = "delete category"
	name = id.NormalizeKey(name)
	if err := requireWrite(op, name, access); err != nil {
		return err
	}

	unlock := e.categories.Lock(name)
	defer unlock()

	if err := e.store.DeleteCategory(ctx, name); err != nil {
		return translate(op, name, err)
	}

	e.log.Info().Str(logger.FieldCategory, name).Msg("category deleted")
	e.record(ActorFrom(ctx), auditlog.ActionCategoryDeleted, name, "")
	return nil
}
