// Package ledger keeps committed transactions consistent with the running
// balance and with the category directory.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/events"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// ErrNilStorage is returned by New when no storage is supplied.
var ErrNilStorage = errors.New("ledger requires a storage")

// Ledger admits, imports and removes transactions. All writes run in a
// single storage transaction each, so a failed call leaves no trace.
type Ledger struct {
	store     service.Storage
	publisher events.Publisher
	directory *Directory
	now       func() time.Time
	newID     func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets where committed changes are announced.
func WithPublisher(p events.Publisher) Option {
	return func(l *Ledger) {
		if p != nil {
			l.publisher = p
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator overrides how transaction and category ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// New creates a Ledger on top of store.
func New(store service.Storage, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, ErrNilStorage
	}

	l := &Ledger{
		store:     store,
		publisher: events.Nop{},
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.directory = NewDirectory(l.newID, l.now)

	return l, nil
}

// Directory returns the category directory used by the ledger.
func (l *Ledger) Directory() *Directory {
	return l.directory
}

// ListTransactions returns committed transactions, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	txns, err := l.store.GetTransactions(ctx, filter)
	if err != nil {
		return nil, common.Persistence("list transactions", err)
	}
	return txns, nil
}

// ListCategories returns every category ordered by title.
func (l *Ledger) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := l.store.GetCategories(ctx)
	if err != nil {
		return nil, common.Persistence("list categories", err)
	}
	return cats, nil
}

// DeleteCategory removes a category. Its transactions stay and lose the link.
func (l *Ledger) DeleteCategory(ctx context.Context, id string) error {
	if err := l.store.DeleteCategory(ctx, id); err != nil {
		return common.Persistence("delete category", err)
	}
	slog.InfoContext(ctx, "category deleted", "category_id", id)
	return nil
}

// publish announces a committed change. Delivery problems never undo a commit.
func (l *Ledger) publish(ctx context.Context, msg *events.Message) {
	if err := l.publisher.Publish(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to publish ledger event",
			"kind", msg.Kind,
			"error", err)
	}
}
