package repository

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
)

// TxRunner opens the unit of work that every multi-write operation runs in.
// Repositories expose *Tx methods that must be handed the tx given to fn.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	DB() *gorm.DB
}

type txRunner struct {
	db   *gorm.DB
	opts *sql.TxOptions
}

// NewTxRunner wraps db. opts may be nil (driver default isolation); the
// postgres wiring passes sql.LevelSerializable.
func NewTxRunner(db *gorm.DB, opts *sql.TxOptions) TxRunner {
	return &txRunner{db: db, opts: opts}
}

func (r *txRunner) DB() *gorm.DB { return r.db }

// WithTransaction commits when fn returns nil and rolls back otherwise,
// including on panic.
func (r *txRunner) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.opts != nil {
		return r.db.WithContext(ctx).Transaction(fn, r.opts)
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// notFound maps gorm's record-not-found to a domain sentinel.
func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
