package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/apptdesk/libs/db"
	"github.com/md-rashed-zaman/apptdesk/services/booking-service/internal/storage"
)

//go:embed schema.sql
var schema string

// Store is the Postgres implementation of storage.Store.
type Store struct {
	queries
	pool *db.Pool
}

var _ storage.Store = (*Store)(nil)

// New applies the schema and takes ownership of the pool; Close releases it.
func New(ctx context.Context, pool *db.Pool) (*Store, error) {
	if err := pool.Migrate(ctx, schema); err != nil {
		return nil, fmt.Errorf("migrate postgres store: %w", err)
	}
	return &Store{queries: queries{q: pool}, pool: pool}, nil
}

func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&queries{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return db.ReadyCheck(s.pool)(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// translate maps pgx and constraint errors onto the storage sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		switch pgErr.ConstraintName {
		case "clients_phone_key":
			return fmt.Errorf("%w: %s", storage.ErrDuplicatePhone, pgErr.Message)
		case "appointments_slot_key":
			return fmt.Errorf("%w: %s", storage.ErrSlotTaken, pgErr.Message)
		}
	case "23503":
		return fmt.Errorf("referenced row missing: %w", storage.ErrNotFound)
	}
	return err
}
