package dto

import (
	"time"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// TicketSummary is one row of a panel listing.
type TicketSummary struct {
	ID            int64               `json:"id"`
	RequesterID   string              `json:"requester_id"`
	RequesterName string              `json:"requester_name"`
	Category      string              `json:"category"`
	CategoryName  string              `json:"category_name"`
	Status        domain.TicketStatus `json:"status"`
	AssigneeID    *string             `json:"assignee_id"`
	ThreadRef     string              `json:"thread_ref"`
	Tags          []TagResponse       `json:"tags"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Messages []TicketMessageResponse `json:"messages"`
}

// TicketMessageResponse represents one conversation entry.
type TicketMessageResponse struct {
	ID         int64     `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	IsStaff    bool      `json:"is_staff"`
	Timestamp  time.Time `json:"timestamp"`
}

// CategoryResponse describes a configured category.
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TagResponse describes a configured tag.
type TagResponse struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// ReplyRequest payload.
type ReplyRequest struct {
	Content string `json:"content"`
}

// AssignRequest payload. An empty StaffID assigns the caller.
type AssignRequest struct {
	StaffID string `json:"staff_id"`
}

// ToggleTagRequest payload.
type ToggleTagRequest struct {
	Tag string `json:"tag"`
}

// ToggleTagResponse reports the tag state after the toggle.
type ToggleTagResponse struct {
	Tag     string `json:"tag"`
	Applied bool   `json:"applied"`
}

// MutationResponse wraps panel mutation results. Warnings are present when
// the chat thread could not be updated.
type MutationResponse struct {
	Ticket   *TicketSummary              `json:"ticket,omitempty"`
	Message  *TicketMessageResponse      `json:"message,omitempty"`
	Warnings []domain.ConsistencyWarning `json:"warnings"`
}
