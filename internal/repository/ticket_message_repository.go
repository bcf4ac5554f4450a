package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// TicketMessageRepository manages ticket conversation messages.
type TicketMessageRepository interface {
	Append(ctx context.Context, in domain.NewTicketMessage) (*domain.TicketMessage, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error)
}

const messageColumns = `id, ticket_id, author_id, author_name, content, is_staff, "timestamp"`

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) Append(ctx context.Context, in domain.NewTicketMessage) (*domain.TicketMessage, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperrors.NewValidationError("message content is required", nil)
	}

	var msg *domain.TicketMessage
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		// Touching the ticket row first serializes appends per ticket and
		// refreshes updated_at in the same write.
		var status domain.TicketStatus
		query := `UPDATE tickets SET ` + bumpUpdatedAt + ` WHERE id=$1 RETURNING status`
		if err := tx.QueryRow(ctx, query, in.TicketID).Scan(&status); err != nil {
			return mapPgError(err, "ticket")
		}
		if in.RequireOpen && status != domain.TicketStatusOpen {
			return apperrors.NewInvalidState("ticket is closed", map[string]any{"ticket_id": in.TicketID})
		}
		inserted, err := insertMessage(ctx, tx, in)
		if err != nil {
			return err
		}
		msg = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticketID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE ticket_id=$1 ORDER BY "timestamp" ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketMessage{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func insertMessage(ctx context.Context, tx pgx.Tx, in domain.NewTicketMessage) (*domain.TicketMessage, error) {
	query := `
        INSERT INTO messages (ticket_id, author_id, author_name, content, is_staff, "timestamp")
        VALUES ($1,$2,$3,$4,$5,clock_timestamp())
        RETURNING ` + messageColumns
	msg, err := scanMessage(tx.QueryRow(ctx, query, in.TicketID, in.AuthorID, in.AuthorName, in.Content, in.IsStaff))
	if err != nil {
		return nil, mapPgError(err, "ticket")
	}
	return msg, nil
}

func scanMessage(row pgx.Row) (*domain.TicketMessage, error) {
	var msg domain.TicketMessage
	if err := row.Scan(
		&msg.ID,
		&msg.TicketID,
		&msg.AuthorID,
		&msg.AuthorName,
		&msg.Content,
		&msg.IsStaff,
		&msg.Timestamp,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}
