package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, in domain.NewTicket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetByThreadRef(ctx context.Context, threadRef string) (*domain.Ticket, error)
	List(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error)
	SetStatus(ctx context.Context, id int64, status domain.TicketStatus) (*domain.Ticket, error)
	SetAssignee(ctx context.Context, id int64, staffID string) (*domain.Ticket, error)
	// Close appends the closing message and marks the ticket closed in one
	// transaction. It fails with InvalidState when the ticket is already closed.
	Close(ctx context.Context, id int64, closing domain.NewTicketMessage) (*domain.Ticket, *domain.TicketMessage, error)
}

const ticketColumns = `id, requester_id, requester_name, category, status, assignee, external_thread_ref, created_at, updated_at`

// bumpUpdatedAt keeps updated_at strictly increasing even when two writes land
// in the same clock tick.
const bumpUpdatedAt = `updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, in domain.NewTicket) (*domain.Ticket, error) {
	if err := validateNewTicket(in); err != nil {
		return nil, err
	}
	const query = `
        INSERT INTO tickets (requester_id, requester_name, category, status, external_thread_ref)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING ` + ticketColumns
	row := r.pool.QueryRow(ctx, query, in.RequesterID, in.RequesterName, in.Category, domain.TicketStatusOpen, in.ThreadRef)
	ticket, err := scanTicket(row)
	if err != nil {
		return nil, mapPgError(err, "ticket")
	}
	return ticket, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err, "ticket")
	}
	return ticket, nil
}

func (r *ticketRepository) GetByThreadRef(ctx context.Context, threadRef string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE external_thread_ref=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, threadRef))
	if err != nil {
		return nil, mapPgError(err, "ticket")
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	switch filter.Kind {
	case "", domain.FilterAll:
	case domain.FilterOpen:
		args = append(args, domain.TicketStatusOpen)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	case domain.FilterClosed:
		args = append(args, domain.TicketStatusClosed)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	case domain.FilterUnassigned:
		args = append(args, domain.TicketStatusOpen)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)), "assignee IS NULL")
	case domain.FilterMine:
		if strings.TrimSpace(filter.StaffID) == "" {
			return nil, apperrors.NewValidationError("mine filter requires a staff id", nil)
		}
		args = append(args, filter.StaffID)
		clauses = append(clauses, fmt.Sprintf("assignee=$%d", len(args)))
	default:
		return nil, apperrors.NewValidationError("unknown ticket filter", map[string]any{"filter": filter.Kind})
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC, id DESC`,
		ticketColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) SetStatus(ctx context.Context, id int64, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid ticket status", map[string]any{"status": status})
	}
	query := `UPDATE tickets SET status=$1, ` + bumpUpdatedAt + ` WHERE id=$2 RETURNING ` + ticketColumns
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, status, id))
	if err != nil {
		return nil, mapPgError(err, "ticket")
	}
	return ticket, nil
}

func (r *ticketRepository) SetAssignee(ctx context.Context, id int64, staffID string) (*domain.Ticket, error) {
	if strings.TrimSpace(staffID) == "" {
		return nil, apperrors.NewValidationError("assignee is required", nil)
	}
	query := `UPDATE tickets SET assignee=$1, ` + bumpUpdatedAt + ` WHERE id=$2 RETURNING ` + ticketColumns
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, staffID, id))
	if err != nil {
		return nil, mapPgError(err, "ticket")
	}
	return ticket, nil
}

func (r *ticketRepository) Close(ctx context.Context, id int64, closing domain.NewTicketMessage) (*domain.Ticket, *domain.TicketMessage, error) {
	if strings.TrimSpace(closing.Content) == "" {
		return nil, nil, apperrors.NewValidationError("message content is required", nil)
	}

	var (
		ticket *domain.Ticket
		msg    *domain.TicketMessage
	)
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var status domain.TicketStatus
		if err := tx.QueryRow(ctx, `SELECT status FROM tickets WHERE id=$1 FOR UPDATE`, id).Scan(&status); err != nil {
			return mapPgError(err, "ticket")
		}
		if status == domain.TicketStatusClosed {
			return apperrors.NewInvalidState("ticket is already closed", map[string]any{"ticket_id": id})
		}

		closing.TicketID = id
		inserted, err := insertMessage(ctx, tx, closing)
		if err != nil {
			return err
		}
		msg = inserted

		query := `UPDATE tickets SET status=$1, ` + bumpUpdatedAt + ` WHERE id=$2 RETURNING ` + ticketColumns
		updated, err := scanTicket(tx.QueryRow(ctx, query, domain.TicketStatusClosed, id))
		if err != nil {
			return mapPgError(err, "ticket")
		}
		ticket = updated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return ticket, msg, nil
}

func validateNewTicket(in domain.NewTicket) error {
	details := map[string]any{}
	if strings.TrimSpace(in.RequesterID) == "" {
		details["requester_id"] = "required"
	}
	if strings.TrimSpace(in.Category) == "" {
		details["category"] = "required"
	}
	if strings.TrimSpace(in.ThreadRef) == "" {
		details["thread_ref"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket", details)
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.RequesterID,
		&ticket.RequesterName,
		&ticket.Category,
		&ticket.Status,
		&ticket.AssigneeID,
		&ticket.ThreadRef,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
