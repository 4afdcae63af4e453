package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgLockNotAvailable is the PostgreSQL error code raised when lock_timeout
// expires while waiting on the row lock.
const pgLockNotAvailable = "55P03"

const (
	createOrderLogSQL = `CREATE TABLE IF NOT EXISTS order_log (
		id smallint PRIMARY KEY CHECK (id = 1),
		document jsonb NOT NULL
	)`
	seedOrderLogSQL   = `INSERT INTO order_log (id, document) VALUES (1, '[]'::jsonb) ON CONFLICT (id) DO NOTHING`
	selectOrderLogSQL = `SELECT document FROM order_log WHERE id = 1`
	lockOrderLogSQL   = `SELECT document FROM order_log WHERE id = 1 FOR UPDATE`
	updateOrderLogSQL = `UPDATE order_log SET document = $1 WHERE id = 1`
)

// PostgresStore keeps the whole order log as one JSONB document in a
// single-row table. Appends take the row lock inside a transaction, which
// gives the same exclusive read-modify-write contract as the file store.
type PostgresStore struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

var _ OrderStore = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, lockTimeout time.Duration) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, createOrderLogSQL); err != nil {
		return nil, fmt.Errorf("failed to create order_log table: %w", err)
	}
	if _, err := pool.Exec(ctx, seedOrderLogSQL); err != nil {
		return nil, fmt.Errorf("failed to seed order_log table: %w", err)
	}
	return &PostgresStore{pool: pool, lockTimeout: lockTimeout}, nil
}

func (s *PostgresStore) Load(ctx context.Context) []Order {
	ctx, span := tracer.Start(ctx, "PostgresStore.Load")
	defer span.End()

	var document []byte
	if err := s.pool.QueryRow(ctx, selectOrderLogSQL).Scan(&document); err != nil {
		slog.ErrorContext(ctx, "failed to read order log row", slog.Any("err", err))
		return nil
	}
	return decodeOrderLog(ctx, document)
}

func (s *PostgresStore) Append(ctx context.Context, order Order) error {
	ctx, span := tracer.Start(ctx, "PostgresStore.Append")
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	timeoutSQL := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
	if _, err := tx.Exec(ctx, timeoutSQL); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	var document []byte
	if err := tx.QueryRow(ctx, lockOrderLogSQL).Scan(&document); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return fmt.Errorf("%w: row lock not acquired", ErrLockUnavailable)
		}
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	orders := decodeOrderLog(ctx, document)
	orders = append(orders, order)
	updated, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	if _, err := tx.Exec(ctx, updateOrderLogSQL, updated); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

func decodeOrderLog(ctx context.Context, document []byte) []Order {
	var orders []Order
	if err := json.Unmarshal(document, &orders); err != nil {
		slog.WarnContext(ctx, "order log document is not a valid JSON array, treating as empty")
		return nil
	}
	return orders
}
