// internal/repository/store.go
package repository

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/gurkanbulca/clarity/internal/models"
)

// txKey carries the owner transaction in a context.
type txKey struct{}

// base is the connection state shared by the repositories.
type base struct {
	db              *sqlx.DB
	dialect         string
	defaultTimezone string
	now             func() time.Time
}

// conn returns the owner transaction carried by ctx, or the pool.
func (b *base) conn(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return b.db
}

// builder returns an ent SQL builder for the configured dialect.
func (b *base) builder() *entsql.DialectBuilder {
	return entsql.Dialect(b.dialect)
}

// timestamp is now, truncated to the microseconds Postgres keeps.
func (b *base) timestamp() time.Time {
	return b.now().UTC().Truncate(time.Microsecond)
}

// Store persists tasks and profiles in one SQL database.
type Store struct {
	*TaskRepository
	*ProfileRepository
	b *base
}

// Option configures a Store.
type Option func(*base)

// WithDefaultTimezone sets the timezone given to profiles created on first use.
func WithDefaultTimezone(tz string) Option {
	return func(b *base) {
		if tz != "" {
			b.defaultTimezone = tz
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// NewStore creates a store over db. The SQL dialect follows the driver name.
func NewStore(db *sqlx.DB, opts ...Option) *Store {
	b := &base{
		db:              db,
		dialect:         db.DriverName(),
		defaultTimezone: models.DefaultTimezone,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return &Store{
		TaskRepository:    &TaskRepository{base: b},
		ProfileRepository: &ProfileRepository{base: b},
		b:                 b,
	}
}

// InOwnerTx runs fn inside a transaction that holds the owner's row lock.
// Everything fn does through ctx joins the transaction. Nested calls reuse
// the outer transaction.
func (s *Store) InOwnerTx(ctx context.Context, ownerID uuid.UUID, fn func(ctx context.Context) error) error {
	// Already inside a transaction
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	// Start transaction
	tx, err := s.b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)

	// Serialize writers for this owner
	if err := s.lockOwner(txCtx, ownerID); err != nil {
		return rollback(tx, err)
	}
	if err := fn(txCtx); err != nil {
		return rollback(tx, err)
	}
	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// lockOwner makes sure the profile row exists and locks it. On sqlite the
// immediate transaction already holds the database write lock.
func (s *Store) lockOwner(ctx context.Context, ownerID uuid.UUID) error {
	if err := s.ensureProfile(ctx, ownerID); err != nil {
		return err
	}
	if s.b.dialect != dialect.Postgres {
		return nil
	}

	b := s.b.builder()
	query, args := b.Select("id").
		From(b.Table(usersTable)).
		Where(entsql.EQ("id", ownerID)).
		ForUpdate().
		Query()

	var locked uuid.UUID
	if err := sqlx.GetContext(ctx, s.b.conn(ctx), &locked, query, args...); err != nil {
		return fmt.Errorf("lock owner %s: %w", ownerID, err)
	}
	return nil
}

// rollback aborts tx and returns the error that caused it.
func rollback(tx *sqlx.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		logrus.WithError(rerr).Warn("rollback failed")
	}
	return err
}
