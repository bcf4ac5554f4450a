package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// Postgres error codes the store translates.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgUniqueViolation     = "23505"
)

// Store groups the ticket store repositories behind one value.
type Store struct {
	Tickets  TicketRepository
	Messages TicketMessageRepository
	Tags     TicketTagRepository
}

// NewPostgresStore wires every repository to the same pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return Store{
		Tickets:  NewTicketRepository(pool),
		Messages: NewTicketMessageRepository(pool),
		Tags:     NewTicketTagRepository(pool),
	}
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func mapPgError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return apperrors.NewNotFound(resource, map[string]any{"constraint": pgErr.ConstraintName})
		case pgCheckViolation:
			return apperrors.NewValidationError(pgErr.Message, map[string]any{"constraint": pgErr.ConstraintName})
		case pgUniqueViolation:
			return apperrors.NewInvalidState(pgErr.Message, map[string]any{"constraint": pgErr.ConstraintName})
		}
	}
	return err
}
