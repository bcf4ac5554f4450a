package domain

import "time"

// WarningKind classifies a ConsistencyWarning.
type WarningKind string

const (
	// WarningMirrorLag means a store write committed but the chat thread was not updated.
	WarningMirrorLag WarningKind = "mirror_lag"
	// WarningOrphanedThread means a chat thread exists without a ticket record.
	WarningOrphanedThread WarningKind = "orphaned_thread"
)

// ConsistencyWarning records a divergence between the store and the chat thread.
// The store remains authoritative.
type ConsistencyWarning struct {
	ID        string      `json:"id"`
	Kind      WarningKind `json:"kind"`
	Operation string      `json:"operation"`
	TicketID  int64       `json:"ticket_id,omitempty"`
	ThreadRef string      `json:"thread_ref,omitempty"`
	Error     string      `json:"error"`
	At        time.Time   `json:"at"`
}
