package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	return s == TicketStatusOpen || s == TicketStatusClosed
}

// Ticket is the aggregate for support requests. Each ticket is backed by exactly
// one chat thread, referenced by ThreadRef from creation onwards.
type Ticket struct {
	ID            int64
	RequesterID   string
	RequesterName string
	Category      string
	Status        TicketStatus
	AssigneeID    *string
	ThreadRef     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsOpen reports whether the ticket still accepts replies.
func (t *Ticket) IsOpen() bool {
	return t != nil && t.Status == TicketStatusOpen
}

// NewTicket carries the immutable fields recorded when a ticket is created.
type NewTicket struct {
	RequesterID   string
	RequesterName string
	Category      string
	ThreadRef     string
}

// TicketFilterKind selects one of the panel projections.
type TicketFilterKind string

const (
	FilterAll        TicketFilterKind = "all"
	FilterOpen       TicketFilterKind = "open"
	FilterClosed     TicketFilterKind = "closed"
	FilterUnassigned TicketFilterKind = "unassigned"
	FilterMine       TicketFilterKind = "mine"
)

// TicketFilter captures a panel listing request. StaffID is only consulted for FilterMine.
type TicketFilter struct {
	Kind    TicketFilterKind
	StaffID string
}

// ParseTicketFilterKind maps a query value onto a filter kind, defaulting to FilterAll.
func ParseTicketFilterKind(raw string) (TicketFilterKind, bool) {
	switch TicketFilterKind(raw) {
	case "", FilterAll:
		return FilterAll, true
	case FilterOpen, FilterClosed, FilterUnassigned, FilterMine:
		return TicketFilterKind(raw), true
	default:
		return "", false
	}
}
