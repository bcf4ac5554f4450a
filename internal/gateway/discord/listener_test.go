package discord

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu           sync.Mutex
	messages     []Message
	interactions []Interaction
}

func (h *recordingHandler) HandleMessage(_ context.Context, msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *recordingHandler) HandleInteraction(_ context.Context, interaction Interaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.interactions = append(h.interactions, interaction)
}

// fakeSession stands in for the discordgo session.
type fakeSession struct {
	mu        sync.Mutex
	handlers  []interface{}
	openErrs  []error
	opens     int
	closes    int
	connected chan struct{}
}

func newFakeSession(openErrs ...error) *fakeSession {
	return &fakeSession{openErrs: openErrs, connected: make(chan struct{})}
}

func (s *fakeSession) AddHandler(handler interface{}) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
	return func() {}
}

func (s *fakeSession) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if len(s.openErrs) > 0 {
		err := s.openErrs[0]
		s.openErrs = s.openErrs[1:]
		return err
	}
	close(s.connected)
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSession) emit(event interface{}) {
	s.mu.Lock()
	handlers := append([]interface{}(nil), s.handlers...)
	s.mu.Unlock()
	for _, handler := range handlers {
		switch h := handler.(type) {
		case func(*discordgo.Session, *discordgo.MessageCreate):
			if e, ok := event.(*discordgo.MessageCreate); ok {
				h(nil, e)
			}
		case func(*discordgo.Session, *discordgo.InteractionCreate):
			if e, ok := event.(*discordgo.InteractionCreate); ok {
				h(nil, e)
			}
		}
	}
}

func startListener(t *testing.T, session *fakeSession, handler EventHandler) (context.CancelFunc, <-chan error) {
	t.Helper()
	listener := newListener(session, handler, ListenerConfig{MinBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	select {
	case <-session.connected:
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("listener never connected")
	}
	return cancel, done
}

func TestListener_DispatchesMessagesAndInteractions(t *testing.T) {
	session := newFakeSession()
	handler := &recordingHandler{}
	cancel, done := startListener(t, session, handler)

	session.emit(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "m1",
		ChannelID: "thread-1",
		Content:   "my order is late",
		Author:    &discordgo.User{ID: "u1", Username: "bob"},
	}})
	session.emit(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:     "i1",
		Type:   discordgo.InteractionMessageComponent,
		Token:  "tok",
		Member: &discordgo.Member{User: &discordgo.User{ID: "u2", Username: "eve"}},
		Data:   discordgo.MessageComponentInteractionData{CustomID: CreateTicketCustomID, Values: []string{"category1"}},
	}})
	session.emit(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:   "i2",
		Type: discordgo.InteractionApplicationCommand,
	}})

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Len(t, handler.messages, 1)
	assert.Equal(t, "thread-1", handler.messages[0].ChannelID)
	assert.Equal(t, "u1", handler.messages[0].Author.ID)
	require.Len(t, handler.interactions, 1)
	assert.Equal(t, "u2", handler.interactions[0].Invoker().ID)
	assert.Equal(t, 1, session.closes)
}

func TestListener_RetriesFirstConnect(t *testing.T) {
	session := newFakeSession(errors.New("dial failed"), errors.New("dial failed"))
	cancel, done := startListener(t, session, &recordingHandler{})
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Equal(t, 3, session.opens)
}

func TestListener_StopsWhileConnectFails(t *testing.T) {
	session := newFakeSession(errors.New("down"), errors.New("down"), errors.New("down"), errors.New("down"))
	listener := newListener(session, &recordingHandler{}, ListenerConfig{MinBackoff: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := listener.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, session.closes)
}

func TestListener_IgnoresEventsAfterStop(t *testing.T) {
	session := newFakeSession()
	handler := &recordingHandler{}
	cancel, done := startListener(t, session, handler)
	cancel()
	<-done

	session.emit(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "late", ChannelID: "thread-1", Content: "x"}})

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Empty(t, handler.messages)
}
