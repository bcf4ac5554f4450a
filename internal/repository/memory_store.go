package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// MemoryStore is a process-local ticket store used by tests and by deployments
// that run without Postgres. It implements every store repository.
type MemoryStore struct {
	mu           sync.Mutex
	now          func() time.Time
	lastStamp    time.Time
	nextTicketID int64
	nextMsgID    int64
	tickets      map[int64]*domain.Ticket
	messages     map[int64][]domain.TicketMessage
	tags         map[int64]map[string]struct{}
}

// NewMemoryStore returns an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock returns an empty store reading time from now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		now:      now,
		tickets:  make(map[int64]*domain.Ticket),
		messages: make(map[int64][]domain.TicketMessage),
		tags:     make(map[int64]map[string]struct{}),
	}
}

// Store exposes the memory store through the Store bundle.
func (s *MemoryStore) Store() Store {
	return Store{Tickets: s, Messages: s, Tags: s}
}

// stamp returns a strictly increasing time. Callers hold s.mu.
func (s *MemoryStore) stamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = t
	return t
}

func (s *MemoryStore) Create(_ context.Context, in domain.NewTicket) (*domain.Ticket, error) {
	if err := validateNewTicket(in); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tickets {
		if existing.ThreadRef == in.ThreadRef {
			return nil, apperrors.NewInvalidState("thread already backs a ticket", map[string]any{"thread_ref": in.ThreadRef})
		}
	}

	s.nextTicketID++
	now := s.stamp()
	ticket := &domain.Ticket{
		ID:            s.nextTicketID,
		RequesterID:   in.RequesterID,
		RequesterName: in.RequesterName,
		Category:      in.Category,
		Status:        domain.TicketStatusOpen,
		ThreadRef:     in.ThreadRef,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.tickets[ticket.ID] = ticket
	return copyTicket(ticket), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, err := s.ticketLocked(id)
	if err != nil {
		return nil, err
	}
	return copyTicket(ticket), nil
}

func (s *MemoryStore) GetByThreadRef(_ context.Context, threadRef string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ticket := range s.tickets {
		if ticket.ThreadRef == threadRef {
			return copyTicket(ticket), nil
		}
	}
	return nil, apperrors.NewNotFound("ticket", map[string]any{"thread_ref": threadRef})
}

func (s *MemoryStore) List(_ context.Context, filter domain.TicketFilter) ([]domain.Ticket, error) {
	if filter.Kind == domain.FilterMine && strings.TrimSpace(filter.StaffID) == "" {
		return nil, apperrors.NewValidationError("mine filter requires a staff id", nil)
	}
	if _, ok := domain.ParseTicketFilterKind(string(filter.Kind)); !ok {
		return nil, apperrors.NewValidationError("unknown ticket filter", map[string]any{"filter": filter.Kind})
	}

	s.mu.Lock()
	result := []domain.Ticket{}
	for _, ticket := range s.tickets {
		if matchesFilter(ticket, filter) {
			result = append(result, *copyTicket(ticket))
		}
	}
	s.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id int64, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid ticket status", map[string]any{"status": status})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, err := s.ticketLocked(id)
	if err != nil {
		return nil, err
	}
	ticket.Status = status
	ticket.UpdatedAt = s.stamp()
	return copyTicket(ticket), nil
}

func (s *MemoryStore) SetAssignee(_ context.Context, id int64, staffID string) (*domain.Ticket, error) {
	if strings.TrimSpace(staffID) == "" {
		return nil, apperrors.NewValidationError("assignee is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, err := s.ticketLocked(id)
	if err != nil {
		return nil, err
	}
	assignee := staffID
	ticket.AssigneeID = &assignee
	ticket.UpdatedAt = s.stamp()
	return copyTicket(ticket), nil
}

func (s *MemoryStore) Close(_ context.Context, id int64, closing domain.NewTicketMessage) (*domain.Ticket, *domain.TicketMessage, error) {
	if strings.TrimSpace(closing.Content) == "" {
		return nil, nil, apperrors.NewValidationError("message content is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, err := s.ticketLocked(id)
	if err != nil {
		return nil, nil, err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, nil, apperrors.NewInvalidState("ticket is already closed", map[string]any{"ticket_id": id})
	}
	closing.TicketID = id
	msg := s.appendLocked(ticket, closing)
	ticket.Status = domain.TicketStatusClosed
	ticket.UpdatedAt = s.stamp()
	return copyTicket(ticket), &msg, nil
}

func (s *MemoryStore) Append(_ context.Context, in domain.NewTicketMessage) (*domain.TicketMessage, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperrors.NewValidationError("message content is required", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, err := s.ticketLocked(in.TicketID)
	if err != nil {
		return nil, err
	}
	if in.RequireOpen && ticket.Status != domain.TicketStatusOpen {
		return nil, apperrors.NewInvalidState("ticket is closed", map[string]any{"ticket_id": in.TicketID})
	}
	msg := s.appendLocked(ticket, in)
	return &msg, nil
}

func (s *MemoryStore) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ticketLocked(ticketID); err != nil {
		return nil, err
	}
	result := append([]domain.TicketMessage{}, s.messages[ticketID]...)
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *MemoryStore) AddTag(_ context.Context, ticketID int64, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, err := s.ticketLocked(ticketID)
	if err != nil {
		return false, err
	}
	return s.addTagLocked(ticket, name), nil
}

func (s *MemoryStore) RemoveTag(_ context.Context, ticketID int64, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, err := s.ticketLocked(ticketID)
	if err != nil {
		return false, err
	}
	return s.removeTagLocked(ticket, name), nil
}

func (s *MemoryStore) ToggleTag(_ context.Context, ticketID int64, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, err := s.ticketLocked(ticketID)
	if err != nil {
		return false, err
	}
	if s.removeTagLocked(ticket, name) {
		return false, nil
	}
	return s.addTagLocked(ticket, name), nil
}

func (s *MemoryStore) TagsFor(_ context.Context, ticketID int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, 0, len(s.tags[ticketID]))
	for name := range s.tags[ticketID] {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

func (s *MemoryStore) ticketLocked(id int64) (*domain.Ticket, error) {
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return ticket, nil
}

func (s *MemoryStore) appendLocked(ticket *domain.Ticket, in domain.NewTicketMessage) domain.TicketMessage {
	s.nextMsgID++
	now := s.stamp()
	msg := domain.TicketMessage{
		ID:         s.nextMsgID,
		TicketID:   ticket.ID,
		AuthorID:   in.AuthorID,
		AuthorName: in.AuthorName,
		Content:    in.Content,
		IsStaff:    in.IsStaff,
		Timestamp:  now,
	}
	s.messages[ticket.ID] = append(s.messages[ticket.ID], msg)
	ticket.UpdatedAt = now
	return msg
}

func (s *MemoryStore) addTagLocked(ticket *domain.Ticket, name string) bool {
	set, ok := s.tags[ticket.ID]
	if !ok {
		set = make(map[string]struct{})
		s.tags[ticket.ID] = set
	}
	if _, exists := set[name]; exists {
		return false
	}
	set[name] = struct{}{}
	ticket.UpdatedAt = s.stamp()
	return true
}

func (s *MemoryStore) removeTagLocked(ticket *domain.Ticket, name string) bool {
	set := s.tags[ticket.ID]
	if _, exists := set[name]; !exists {
		return false
	}
	delete(set, name)
	ticket.UpdatedAt = s.stamp()
	return true
}

func matchesFilter(ticket *domain.Ticket, filter domain.TicketFilter) bool {
	switch filter.Kind {
	case domain.FilterOpen:
		return ticket.Status == domain.TicketStatusOpen
	case domain.FilterClosed:
		return ticket.Status == domain.TicketStatusClosed
	case domain.FilterUnassigned:
		return ticket.Status == domain.TicketStatusOpen && ticket.AssigneeID == nil
	case domain.FilterMine:
		return ticket.AssigneeID != nil && *ticket.AssigneeID == filter.StaffID
	default:
		return true
	}
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	clone := *t
	if t.AssigneeID != nil {
		assignee := *t.AssigneeID
		clone.AssigneeID = &assignee
	}
	return &clone
}
