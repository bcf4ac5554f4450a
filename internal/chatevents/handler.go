// Package chatevents turns chat gateway events into ticket engine calls.
package chatevents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/gateway/discord"
	"github.com/spec-kit/ticket-bridge/internal/service"
)

const (
	openedReply = "Your ticket has been opened! Ticket ID: %d"
	failedReply = "There was an error opening your ticket. Please try again later."
)

// StaffChecker resolves the staff role of a chat user.
type StaffChecker interface {
	IsStaff(ctx context.Context, userID string) (bool, error)
}

// Responder answers component interactions.
type Responder interface {
	ReplyEphemeral(ctx context.Context, interaction discord.Interaction, content string) error
}

// Handler implements discord.EventHandler on top of the ticket service.
type Handler struct {
	tickets     *service.TicketService
	staff       StaffChecker
	responder   Responder
	staffRoleID string
	logger      *zap.Logger
}

// Config bundles handler collaborators.
type Config struct {
	Tickets   *service.TicketService
	Staff     StaffChecker
	Responder Responder
	// StaffRoleID lets member payloads that carry roles skip a staff lookup.
	StaffRoleID string
	Logger      *zap.Logger
}

// NewHandler builds the handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		tickets:     cfg.Tickets,
		staff:       cfg.Staff,
		responder:   cfg.Responder,
		staffRoleID: cfg.StaffRoleID,
		logger:      logger,
	}
}

// HandleMessage mirrors a human message typed in a ticket thread. Bot
// messages, including the bridge's own posts, are skipped.
func (h *Handler) HandleMessage(ctx context.Context, msg discord.Message) {
	if msg.Author.Bot || msg.Content == "" {
		return
	}

	isStaff := h.isStaff(ctx, msg)
	name := msg.Author.DisplayName()
	if msg.Member != nil && msg.Member.Nick != "" {
		name = msg.Member.Nick
	}

	stored, err := h.tickets.MirrorInbound(ctx, service.MirrorInboundInput{
		ThreadRef:     msg.ChannelID,
		AuthorID:      msg.Author.ID,
		AuthorName:    name,
		Content:       msg.Content,
		AuthorIsStaff: isStaff,
	})
	if err != nil {
		h.logger.Error("failed to mirror thread message",
			zap.String("thread_ref", msg.ChannelID),
			zap.String("message_id", msg.ID),
			zap.Error(err))
		return
	}
	if stored != nil {
		h.logger.Debug("thread message mirrored",
			zap.Int64("ticket_id", stored.TicketID),
			zap.Int64("message_id", stored.ID))
	}
}

// HandleInteraction opens a ticket from the category picker.
func (h *Handler) HandleInteraction(ctx context.Context, interaction discord.Interaction) {
	if interaction.Type != discord.InteractionTypeComponent || interaction.Data.CustomID != discord.CreateTicketCustomID {
		return
	}
	invoker := interaction.Invoker()
	if invoker == nil || len(interaction.Data.Values) == 0 {
		return
	}

	ticket, err := h.tickets.OpenTicket(ctx, service.OpenTicketInput{
		RequesterID:   invoker.ID,
		RequesterName: invoker.DisplayName(),
		CategoryID:    interaction.Data.Values[0],
	})
	reply := failedReply
	if err != nil {
		h.logger.Error("failed to open ticket",
			zap.String("requester_id", invoker.ID),
			zap.String("category", interaction.Data.Values[0]),
			zap.Error(err))
	} else {
		reply = fmt.Sprintf(openedReply, ticket.ID)
	}

	if err := h.responder.ReplyEphemeral(ctx, interaction, reply); err != nil {
		h.logger.Warn("failed to answer interaction", zap.String("interaction_id", interaction.ID), zap.Error(err))
	}
}

func (h *Handler) isStaff(ctx context.Context, msg discord.Message) bool {
	if h.staffRoleID != "" && msg.Member != nil && len(msg.Member.Roles) > 0 {
		return msg.Member.HasRole(h.staffRoleID)
	}
	if h.staff == nil {
		return false
	}
	isStaff, err := h.staff.IsStaff(ctx, msg.Author.ID)
	if err != nil {
		h.logger.Warn("staff lookup failed; recording as requester message",
			zap.String("user_id", msg.Author.ID), zap.Error(err))
		return false
	}
	return isStaff
}
