package chatevents

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/gateway/discord"
	"github.com/spec-kit/ticket-bridge/internal/gateway/gatewaytest"
	"github.com/spec-kit/ticket-bridge/internal/repository"
	"github.com/spec-kit/ticket-bridge/internal/service"
)

type recordingResponder struct {
	mu      sync.Mutex
	replies []string
}

func (r *recordingResponder) ReplyEphemeral(_ context.Context, _ discord.Interaction, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, content)
	return nil
}

type staticStaff map[string]bool

func (s staticStaff) IsStaff(_ context.Context, userID string) (bool, error) {
	return s[userID], nil
}

type fixture struct {
	store     repository.Store
	gw        *gatewaytest.Fake
	handler   *Handler
	responder *recordingResponder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog := config.DefaultCatalog()
	store := repository.NewMemoryStore().Store()
	gw := gatewaytest.New()
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.Tickets,
		MessageRepo: store.Messages,
		Tags:        service.NewTagRegistry(catalog.Tags, store.Tags),
		Gateway:     gw,
		Categories:  catalog.Categories,
	})
	responder := &recordingResponder{}
	handler := NewHandler(Config{
		Tickets:     tickets,
		Staff:       staticStaff{"staff-alice": true},
		Responder:   responder,
		StaffRoleID: "role-staff",
	})
	return &fixture{store: store, gw: gw, handler: handler, responder: responder}
}

func pickerInteraction(userID, category string) discord.Interaction {
	return discord.Interaction{
		ID:     "interaction-1",
		Type:   discord.InteractionTypeComponent,
		Token:  "token",
		Member: &discord.Member{User: &discord.User{ID: userID, Username: "bob"}},
		Data:   discord.InteractionData{CustomID: discord.CreateTicketCustomID, Values: []string{category}},
	}
}

func TestHandler_OpensTicketFromPicker(t *testing.T) {
	f := newFixture(t)
	f.handler.HandleInteraction(context.Background(), pickerInteraction("user-bob", "category3"))

	require.Equal(t, []string{"Your ticket has been opened! Ticket ID: 1"}, f.responder.replies)
	ticket, err := f.store.Tickets.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "user-bob", ticket.RequesterID)
	assert.Equal(t, "bob", ticket.RequesterName)
	assert.Equal(t, "category3", ticket.Category)
}

func TestHandler_PickerFailureRepliesWithError(t *testing.T) {
	f := newFixture(t)
	f.gw.CreateErr = errors.New("missing permissions")

	f.handler.HandleInteraction(context.Background(), pickerInteraction("user-bob", "category1"))
	assert.Equal(t, []string{failedReply}, f.responder.replies)

	f.handler.HandleInteraction(context.Background(), discord.Interaction{Type: discord.InteractionTypeComponent, Data: discord.InteractionData{CustomID: "other"}})
	assert.Len(t, f.responder.replies, 1, "foreign components are ignored")
}

func TestHandler_MirrorsThreadMessages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.handler.HandleInteraction(ctx, pickerInteraction("user-bob", "category1"))
	ticket, err := f.store.Tickets.GetByID(ctx, 1)
	require.NoError(t, err)

	f.handler.HandleMessage(ctx, discord.Message{
		ID:        "m1",
		ChannelID: ticket.ThreadRef,
		Author:    discord.User{ID: "user-bob", Username: "bob"},
		Content:   "it broke again",
	})
	f.handler.HandleMessage(ctx, discord.Message{
		ID:        "m2",
		ChannelID: ticket.ThreadRef,
		Author:    discord.User{ID: "staff-alice", Username: "alice"},
		Content:   "looking",
	})
	f.handler.HandleMessage(ctx, discord.Message{
		ID:        "m3",
		ChannelID: ticket.ThreadRef,
		Author:    discord.User{ID: "staff-carol", Username: "carol"},
		Member:    &discord.Member{Nick: "Carol (Support)", Roles: []string{"role-staff"}},
		Content:   "me too",
	})
	f.handler.HandleMessage(ctx, discord.Message{
		ID:        "m4",
		ChannelID: ticket.ThreadRef,
		Author:    discord.User{ID: "bot", Bot: true},
		Content:   "echo",
	})
	f.handler.HandleMessage(ctx, discord.Message{
		ID:        "m5",
		ChannelID: "general",
		Author:    discord.User{ID: "user-bob"},
		Content:   "not a ticket",
	})

	messages, err := f.store.Messages.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []bool{false, true, true}, []bool{messages[0].IsStaff, messages[1].IsStaff, messages[2].IsStaff})
	assert.Equal(t, "Carol (Support)", messages[2].AuthorName)
}
