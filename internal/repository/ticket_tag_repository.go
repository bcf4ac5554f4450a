package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// maxToggleAttempts bounds the compare-and-set loop in ToggleTag.
const maxToggleAttempts = 8

// TicketTagRepository stores (ticket, tag) associations with set semantics.
// It does not validate tag names; that belongs to the tag registry.
type TicketTagRepository interface {
	// AddTag reports whether a new association was inserted.
	AddTag(ctx context.Context, ticketID int64, name string) (bool, error)
	// RemoveTag reports whether an existing association was deleted.
	RemoveTag(ctx context.Context, ticketID int64, name string) (bool, error)
	// ToggleTag removes the association if present, inserts it otherwise, and
	// reports whether it is applied afterwards.
	ToggleTag(ctx context.Context, ticketID int64, name string) (bool, error)
	TagsFor(ctx context.Context, ticketID int64) ([]string, error)
}

type ticketTagRepository struct {
	pool *pgxpool.Pool
}

// NewTicketTagRepository builds repository.
func NewTicketTagRepository(pool *pgxpool.Pool) TicketTagRepository {
	return &ticketTagRepository{pool: pool}
}

func (r *ticketTagRepository) AddTag(ctx context.Context, ticketID int64, name string) (bool, error) {
	var inserted bool
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		inserted, err = insertTag(ctx, tx, ticketID, name)
		if err != nil || !inserted {
			return err
		}
		return touchTicket(ctx, tx, ticketID)
	})
	return inserted, err
}

func (r *ticketTagRepository) RemoveTag(ctx context.Context, ticketID int64, name string) (bool, error) {
	var deleted bool
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		deleted, err = deleteTag(ctx, tx, ticketID, name)
		if err != nil {
			return err
		}
		if !deleted {
			return ensureTicket(ctx, tx, ticketID)
		}
		return touchTicket(ctx, tx, ticketID)
	})
	return deleted, err
}

// ToggleTag tries delete-if-present, then insert-if-absent. If both miss, a
// concurrent toggle changed the row in between and the pair is retried.
func (r *ticketTagRepository) ToggleTag(ctx context.Context, ticketID int64, name string) (bool, error) {
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		var (
			applied bool
			settled bool
		)
		err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
			deleted, err := deleteTag(ctx, tx, ticketID, name)
			if err != nil {
				return err
			}
			if deleted {
				applied, settled = false, true
				return touchTicket(ctx, tx, ticketID)
			}
			inserted, err := insertTag(ctx, tx, ticketID, name)
			if err != nil {
				return err
			}
			if inserted {
				applied, settled = true, true
				return touchTicket(ctx, tx, ticketID)
			}
			return nil
		})
		if err != nil {
			return false, err
		}
		if settled {
			return applied, nil
		}
	}
	return false, fmt.Errorf("toggle tag %q on ticket %d: too much contention", name, ticketID)
}

func (r *ticketTagRepository) TagsFor(ctx context.Context, ticketID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT tag_name FROM ticket_tags WHERE ticket_id=$1 ORDER BY tag_name`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result = append(result, name)
	}
	return result, rows.Err()
}

func insertTag(ctx context.Context, tx pgx.Tx, ticketID int64, name string) (bool, error) {
	cmd, err := tx.Exec(ctx, `INSERT INTO ticket_tags (ticket_id, tag_name) VALUES ($1,$2) ON CONFLICT DO NOTHING`, ticketID, name)
	if err != nil {
		return false, mapPgError(err, "ticket")
	}
	return cmd.RowsAffected() == 1, nil
}

func deleteTag(ctx context.Context, tx pgx.Tx, ticketID int64, name string) (bool, error) {
	cmd, err := tx.Exec(ctx, `DELETE FROM ticket_tags WHERE ticket_id=$1 AND tag_name=$2`, ticketID, name)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func touchTicket(ctx context.Context, tx pgx.Tx, ticketID int64) error {
	cmd, err := tx.Exec(ctx, `UPDATE tickets SET `+bumpUpdatedAt+` WHERE id=$1`, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return nil
}

func ensureTicket(ctx context.Context, tx pgx.Tx, ticketID int64) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticketID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return nil
}
