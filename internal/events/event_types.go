package events

import (
	"time"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketMessageAdded EventType = "ticket_message_added"
	EventTicketAssigned     EventType = "ticket_assigned"
	EventTicketClosed       EventType = "ticket_closed"
	EventTicketTagToggled   EventType = "ticket_tag_toggled"
	EventConsistencyWarning EventType = "consistency_warning"
)

// AllEventTypes lists every event the engine publishes.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketMessageAdded,
	EventTicketAssigned,
	EventTicketClosed,
	EventTicketTagToggled,
	EventConsistencyWarning,
}

// Source tells which side of the bridge triggered an event.
type Source string

const (
	SourceChat  Source = "chat"
	SourcePanel Source = "panel"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	IsStaff bool   `json:"is_staff"`
	Source  Source `json:"source"`
}

// Event represents a domain event emitted by the engine.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id,omitempty"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category  string `json:"category"`
	ThreadRef string `json:"thread_ref"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   int64  `json:"message_id"`
	IsStaff     bool   `json:"is_staff"`
	BodyPreview string `json:"body_preview"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ClosingMessageID int64 `json:"closing_message_id"`
}

// TicketTagToggledPayload payload.
type TicketTagToggledPayload struct {
	Tag     string `json:"tag"`
	Applied bool   `json:"applied"`
}

// ConsistencyWarningPayload wraps the recorded warning.
type ConsistencyWarningPayload struct {
	Warning domain.ConsistencyWarning `json:"warning"`
}
