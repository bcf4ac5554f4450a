package domain

import "time"

// TicketMessage is one entry of a ticket conversation. Messages are append-only
// and ordered by (Timestamp, ID).
type TicketMessage struct {
	ID         int64
	TicketID   int64
	AuthorID   string
	AuthorName string
	Content    string
	IsStaff    bool
	Timestamp  time.Time
}

// NewTicketMessage describes a message to append. RequireOpen rejects the
// append with InvalidState once the ticket is closed.
type NewTicketMessage struct {
	TicketID    int64
	AuthorID    string
	AuthorName  string
	Content     string
	IsStaff     bool
	RequireOpen bool
}

// ClosingMessage is the staff entry appended when a ticket is closed.
const ClosingMessage = "Ticket closed by staff."
