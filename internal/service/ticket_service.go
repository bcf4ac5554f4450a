package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/events"
	"github.com/spec-kit/ticket-bridge/internal/gateway"
	"github.com/spec-kit/ticket-bridge/internal/repository"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// closeCommitTimeout bounds the store write that closes a ticket.
const closeCommitTimeout = 5 * time.Second

// TicketService is the ticket lifecycle engine. It owns every consistency
// rule between the store and the chat thread; the store stays authoritative.
type TicketService struct {
	tickets       repository.TicketRepository
	messages      repository.TicketMessageRepository
	tags          *TagRegistry
	gateway       gateway.ThreadGateway
	dispatcher    events.Dispatcher
	warnings      *WarningLog
	logger        *zap.Logger
	categories    map[string]domain.Category
	parentChannel string
	locks         *ticketLocks
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	Tags        *TagRegistry
	Gateway     gateway.ThreadGateway
	// GatewayTimeout bounds every gateway call; a timeout counts as GatewayUnavailable.
	GatewayTimeout time.Duration
	Dispatcher     events.Dispatcher
	Warnings       *WarningLog
	Logger         *zap.Logger
	Categories     []domain.Category
	// ParentChannel is the chat channel new ticket threads are opened under.
	ParentChannel string
}

// OpenTicketInput describes a requester opening a ticket from the chat side.
type OpenTicketInput struct {
	RequesterID   string
	RequesterName string
	CategoryID    string
}

// MirrorInboundInput describes a message typed into a ticket thread.
type MirrorInboundInput struct {
	ThreadRef     string
	AuthorID      string
	AuthorName    string
	Content       string
	AuthorIsStaff bool
}

// MutationResult is returned by panel mutations. Warnings are non-fatal: the
// store write took effect but the chat thread may lag behind.
type MutationResult struct {
	Ticket   *domain.Ticket
	Message  *domain.TicketMessage
	Warnings []domain.ConsistencyWarning
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	categories := make(map[string]domain.Category, len(deps.Categories))
	for _, category := range deps.Categories {
		categories[category.ID] = category
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	warnings := deps.Warnings
	if warnings == nil {
		warnings = NewWarningLog(DefaultWarningCapacity)
	}
	return &TicketService{
		tickets:       deps.TicketRepo,
		messages:      deps.MessageRepo,
		tags:          deps.Tags,
		gateway:       gateway.WithTimeout(deps.Gateway, deps.GatewayTimeout),
		dispatcher:    deps.Dispatcher,
		warnings:      warnings,
		logger:        logger,
		categories:    categories,
		parentChannel: deps.ParentChannel,
		locks:         newTicketLocks(),
	}
}

// OpenTicket creates the chat thread first and records the ticket second.
// If the thread cannot be created nothing is stored. If the store write fails
// after the thread exists, the orphaned thread is reported and the store
// error returned.
func (s *TicketService) OpenTicket(ctx context.Context, in OpenTicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(in.RequesterID) == "" {
		return nil, apperrors.NewValidationError("requester is required", nil)
	}
	category, ok := s.categories[in.CategoryID]
	if !ok {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": in.CategoryID})
	}
	name := strings.TrimSpace(in.RequesterName)
	if name == "" {
		name = in.RequesterID
	}

	threadRef, err := s.gateway.CreateThread(ctx, gateway.ThreadSpec{
		ParentChannel: s.parentChannel,
		Title:         fmt.Sprintf("%s - %s", category.Name, name),
		InitialMessage: fmt.Sprintf("Hello %s, your ticket in the %s category has been created. A staff member will be with you shortly.",
			name, category.Name),
		RequesterID: in.RequesterID,
	})
	if err != nil {
		return nil, err
	}

	ticket, err := s.tickets.Create(ctx, domain.NewTicket{
		RequesterID:   in.RequesterID,
		RequesterName: name,
		Category:      category.ID,
		ThreadRef:     threadRef,
	})
	if err != nil {
		s.recordWarning(ctx, domain.WarningOrphanedThread, "open_ticket", 0, threadRef, err)
		if archiveErr := s.gateway.LockAndArchive(context.WithoutCancel(ctx), threadRef); archiveErr != nil {
			s.logger.Error("orphaned thread left open", zap.String("thread_ref", threadRef), zap.Error(archiveErr))
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    chatActor(in.RequesterID, name, false),
		Payload:  events.TicketCreatedPayload{Category: category.ID, ThreadRef: threadRef},
	})
	return ticket, nil
}

// MirrorInbound records a message typed into a ticket thread. Messages for
// unknown threads, closed tickets or without text are ignored; the returned
// message is nil then.
func (s *TicketService) MirrorInbound(ctx context.Context, in MirrorInboundInput) (*domain.TicketMessage, error) {
	if strings.TrimSpace(in.ThreadRef) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, nil
	}
	ticket, err := s.tickets.GetByThreadRef(ctx, in.ThreadRef)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !ticket.IsOpen() {
		return nil, nil
	}

	msg, err := s.messages.Append(ctx, domain.NewTicketMessage{
		TicketID:    ticket.ID,
		AuthorID:    in.AuthorID,
		AuthorName:  in.AuthorName,
		Content:     in.Content,
		IsStaff:     in.AuthorIsStaff,
		RequireOpen: true,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidState) {
			return nil, nil
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		Actor:    chatActor(in.AuthorID, in.AuthorName, in.AuthorIsStaff),
		Payload:  messagePayload(msg),
	})
	return msg, nil
}

// Reply stores a staff reply, then posts it to the thread. A failed post is a
// warning, never a lost reply.
func (s *TicketService) Reply(ctx context.Context, ticketID int64, staff domain.StaffMember, content string) (*MutationResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("message content is required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsOpen() {
		return nil, closedTicketError(ticketID)
	}

	msg, err := s.messages.Append(ctx, domain.NewTicketMessage{
		TicketID:    ticketID,
		AuthorID:    staff.ID,
		AuthorName:  staff.DisplayName,
		Content:     content,
		IsStaff:     true,
		RequireOpen: true,
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticketID,
		Actor:    panelActor(staff),
		Payload:  messagePayload(msg),
	})

	result := &MutationResult{Ticket: ticket, Message: msg}
	err = s.gateway.PostMessage(ctx, ticket.ThreadRef, gateway.Post{
		Kind:       gateway.PostReply,
		AuthorID:   staff.ID,
		AuthorName: staff.DisplayName,
		AvatarRef:  staff.AvatarRef,
		Content:    content,
		IsStaff:    true,
	})
	s.secondaryLeg(ctx, result, "reply", ticket, err)
	return result, nil
}

// Assign sets or replaces the assignee, then posts a notice to the thread.
// It is legal in either status.
func (s *TicketService) Assign(ctx context.Context, ticketID int64, assigneeID string, actor domain.StaffMember) (*MutationResult, error) {
	if strings.TrimSpace(assigneeID) == "" {
		return nil, apperrors.NewValidationError("assignee is required", nil)
	}
	ticket, err := s.tickets.SetAssignee(ctx, ticketID, assigneeID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticketID,
		Actor:    panelActor(actor),
		Payload:  events.TicketAssignedPayload{AssigneeID: assigneeID},
	})

	result := &MutationResult{Ticket: ticket}
	err = s.gateway.PostMessage(ctx, ticket.ThreadRef, gateway.Post{
		Kind:       gateway.PostAssignment,
		AuthorID:   actor.ID,
		AuthorName: actor.DisplayName,
		IsStaff:    true,
		TargetID:   assigneeID,
	})
	s.secondaryLeg(ctx, result, "assign", ticket, err)
	return result, nil
}

// Close moves an open ticket to closed. Closing twice is InvalidState.
// Order: closure notice and lock/archive on the thread (best effort), then
// the closing message and the status change in one store transaction.
// Closers in this process are serialized per ticket; the store re-checks the
// status so only one closing message is ever appended.
func (s *TicketService) Close(ctx context.Context, ticketID int64, staff domain.StaffMember) (*MutationResult, error) {
	release, err := s.locks.acquire(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	defer release()

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.IsOpen() {
		return nil, closedTicketError(ticketID)
	}

	result := &MutationResult{}
	err = s.gateway.PostMessage(ctx, ticket.ThreadRef, gateway.Post{
		Kind:       gateway.PostClosure,
		AuthorID:   staff.ID,
		AuthorName: staff.DisplayName,
		IsStaff:    true,
	})
	s.secondaryLeg(ctx, result, "close_notice", ticket, err)
	err = s.gateway.LockAndArchive(ctx, ticket.ThreadRef)
	s.secondaryLeg(ctx, result, "lock_and_archive", ticket, err)

	// The commit gets its own budget: slow thread legs never leave the ticket open.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeCommitTimeout)
	defer cancel()
	closed, msg, err := s.tickets.Close(commitCtx, ticketID, domain.NewTicketMessage{
		AuthorID:   staff.ID,
		AuthorName: staff.DisplayName,
		Content:    domain.ClosingMessage,
		IsStaff:    true,
	})
	if err != nil {
		return nil, err
	}
	result.Ticket = closed
	result.Message = msg

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticketID,
		Actor:    panelActor(staff),
		Payload:  events.TicketClosedPayload{ClosingMessageID: msg.ID},
	})
	return result, nil
}

// ToggleTag flips a configured tag on the ticket and reports whether it is
// applied afterwards. Unconfigured tags fail with InvalidArgument.
func (s *TicketService) ToggleTag(ctx context.Context, ticketID int64, tag string, actor domain.StaffMember) (bool, error) {
	applied, err := s.tags.ToggleTag(ctx, ticketID, tag)
	if err != nil {
		return false, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketTagToggled,
		TicketID: ticketID,
		Actor:    panelActor(actor),
		Payload:  events.TicketTagToggledPayload{Tag: tag, Applied: applied},
	})
	return applied, nil
}

// Warnings returns recorded consistency warnings, newest first.
func (s *TicketService) Warnings() []domain.ConsistencyWarning {
	return s.warnings.Recent()
}

// secondaryLeg turns a failed post-commit gateway call into a warning on result.
func (s *TicketService) secondaryLeg(ctx context.Context, result *MutationResult, op string, ticket *domain.Ticket, err error) {
	if err == nil {
		return
	}
	warning := s.recordWarning(ctx, domain.WarningMirrorLag, op, ticket.ID, ticket.ThreadRef, err)
	result.Warnings = append(result.Warnings, warning)
}

func (s *TicketService) recordWarning(ctx context.Context, kind domain.WarningKind, op string, ticketID int64, threadRef string, cause error) domain.ConsistencyWarning {
	warning := domain.ConsistencyWarning{
		ID:        uuid.NewString(),
		Kind:      kind,
		Operation: op,
		TicketID:  ticketID,
		ThreadRef: threadRef,
		Error:     cause.Error(),
		At:        time.Now().UTC(),
	}
	s.warnings.Add(warning)
	s.logger.Warn("chat thread out of sync with store",
		zap.String("kind", string(kind)),
		zap.String("operation", op),
		zap.Int64("ticket_id", ticketID),
		zap.String("thread_ref", threadRef),
		zap.Error(cause),
	)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventConsistencyWarning,
		TicketID: ticketID,
		Payload:  events.ConsistencyWarningPayload{Warning: warning},
	})
	return warning
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Debug("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func closedTicketError(ticketID int64) error {
	return apperrors.NewInvalidState("ticket is closed", map[string]any{"ticket_id": ticketID})
}

func chatActor(id, name string, isStaff bool) events.Actor {
	return events.Actor{ID: id, Name: name, IsStaff: isStaff, Source: events.SourceChat}
}

func panelActor(staff domain.StaffMember) events.Actor {
	return events.Actor{ID: staff.ID, Name: staff.DisplayName, IsStaff: true, Source: events.SourcePanel}
}

func messagePayload(msg *domain.TicketMessage) events.TicketMessageAddedPayload {
	return events.TicketMessageAddedPayload{
		MessageID:   msg.ID,
		IsStaff:     msg.IsStaff,
		BodyPreview: stringPreview(msg.Content, 120),
	}
}

func stringPreview(body string, limit int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "…"
}
