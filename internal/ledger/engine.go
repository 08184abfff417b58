// Package ledger is the cash ledger engine: account and category stores, the
// balance updater that applies and reverses transactions, and the aggregator.
//
// Balance writes for one account are serialized by a per-account mutex and
// committed through the store's compare-and-set, so balance and ledger are
// always changed together. UTR uniqueness is global and checked under a
// single reservation lock.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cashbook-dev/cashbook/internal/auditlog"
	"github.com/cashbook-dev/cashbook/internal/events"
	"github.com/cashbook-dev/cashbook/internal/logger"
	"github.com/cashbook-dev/cashbook/internal/model"
	"github.com/cashbook-dev/cashbook/internal/store"
)

// DefaultMaxRetries bounds compare-and-set retries after a version conflict.
const DefaultMaxRetries = 3

// Auditor records mutations. *auditlog.Log implements it.
type Auditor interface {
	Append(entries ...auditlog.Entry) error
}

// Engine implements the ledger operations on top of a store.Store.
type Engine struct {
	store     store.Store
	publisher events.Publisher
	audit     Auditor
	log       zerolog.Logger
	now       func() time.Time

	restoreOnReverse bool
	maxRetries       int

	accounts   *keyedMutex
	categories *keyedMutex

	utrMu      sync.Mutex
	pendingUTR map[string]struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets where committed changes are announced.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithAuditor sets the audit trail.
func WithAuditor(a Auditor) Option {
	return func(e *Engine) { e.audit = a }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRestoreOnReverse controls whether ReverseTransaction undoes the balance
// effect. It defaults to true.
func WithRestoreOnReverse(restore bool) Option {
	return func(e *Engine) { e.restoreOnReverse = restore }
}

// WithMaxRetries sets the number of retries after a version conflict.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// New returns an Engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:            s,
		publisher:        events.Nop{},
		log:              zerolog.Nop(),
		now:              time.Now,
		restoreOnReverse: true,
		maxRetries:       DefaultMaxRetries,
		accounts:         newKeyedMutex(),
		categories:       newKeyedMutex(),
		pendingUTR:       make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type actorKey struct{}

// WithActor attaches the acting user to ctx for the audit trail of
// operations that carry no actor of their own.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor attached by WithActor, or "system".
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return "system"
}

func requireWrite(op, key string, access model.Access) error {
	if !access.CanWrite() {
		return newError(op, key, ErrPermissionDenied, fmt.Sprintf("capability %q cannot mutate", access))
	}
	return nil
}

// translate maps store sentinels onto ledger error kinds.
func translate(op, key string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newError(op, key, ErrNotFound, "")
	case errors.Is(err, store.ErrExists):
		return newError(op, key, ErrDuplicateKey, "")
	case errors.Is(err, store.ErrReferenced):
		return newError(op, key, ErrAccountInUse, "")
	default:
		return fmt.Errorf("%s %q: %w", op, key, err)
	}
}

// reserveUTR claims utr for the duration of one submission. The returned
// release must be called once the submission has committed or failed.
func (e *Engine) reserveUTR(ctx context.Context, op, utr string) (func(), error) {
	e.utrMu.Lock()
	defer e.utrMu.Unlock()

	if _, pending := e.pendingUTR[utr]; pending {
		return nil, newError(op, utr, ErrDuplicateTransaction, "submission in progress")
	}
	taken, err := e.store.TransactionExists(ctx, utr)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", op, utr, err)
	}
	if taken {
		return nil, newError(op, utr, ErrDuplicateTransaction, "")
	}

	e.pendingUTR[utr] = struct{}{}
	return func() {
		e.utrMu.Lock()
		delete(e.pendingUTR, utr)
		e.utrMu.Unlock()
	}, nil
}

func (e *Engine) record(actor, action, key, details string) {
	if e.audit == nil {
		return
	}
	entry := auditlog.Entry{
		Timestamp: e.now().UTC(),
		Actor:     actor,
		Action:    action,
		Key:       key,
		Details:   details,
	}
	if err := e.audit.Append(entry); err != nil {
		e.log.Error().Err(err).Str("action", action).Str("key", key).Msg("audit append failed")
	}
}

func (e *Engine) publish(ctx context.Context, typ string, txn model.Transaction, acct model.Account) {
	ev := events.NewEvent(typ, txn, acct, e.now())
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.log.Error().Err(err).
			Str("event", typ).
			Str(logger.FieldUTR, txn.UTR).
			Msg("publish event failed")
	}
}

// Close closes the publisher. The store is owned by the caller.
func (e *Engine) Close() error {
	return e.publisher.Close()
}
