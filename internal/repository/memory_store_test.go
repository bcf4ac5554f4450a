package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// frozenClock never advances, so every timestamp comes from the store's bump.
func frozenClock() func() time.Time {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTicket(t *testing.T, store Store, ref string) *domain.Ticket {
	t.Helper()
	ticket, err := store.Tickets.Create(context.Background(), domain.NewTicket{
		RequesterID:   "user-" + ref,
		RequesterName: "User " + ref,
		Category:      "category1",
		ThreadRef:     ref,
	})
	require.NoError(t, err)
	return ticket
}

func TestMemoryStore_CreateDefaults(t *testing.T) {
	store := NewMemoryStore().Store()
	ticket := newTicket(t, store, "thread-1")

	assert.Equal(t, int64(1), ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.AssigneeID)
	assert.Equal(t, "thread-1", ticket.ThreadRef)
	assert.Equal(t, ticket.CreatedAt, ticket.UpdatedAt)

	_, err := store.Tickets.Create(context.Background(), domain.NewTicket{RequesterID: "u", Category: "c"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestMemoryStore_UpdatedAtStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStoreWithClock(frozenClock()).Store()
	ticket := newTicket(t, store, "thread-1")
	last := ticket.UpdatedAt

	steps := []func() error{
		func() error {
			_, err := store.Tickets.SetAssignee(ctx, ticket.ID, "staff-a")
			return err
		},
		func() error {
			_, err := store.Messages.Append(ctx, domain.NewTicketMessage{TicketID: ticket.ID, AuthorID: "u", Content: "hi"})
			return err
		},
		func() error {
			_, err := store.Tags.ToggleTag(ctx, ticket.ID, "bug")
			return err
		},
		func() error {
			_, err := store.Tickets.SetStatus(ctx, ticket.ID, domain.TicketStatusClosed)
			return err
		},
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		current, err := store.Tickets.GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.True(t, current.UpdatedAt.After(last), "step %d did not advance updated_at", i)
		assert.False(t, current.CreatedAt.After(current.UpdatedAt))
		last = current.UpdatedAt
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Store()

	_, err := store.Tickets.GetByID(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = store.Tickets.SetStatus(ctx, 42, domain.TicketStatusClosed)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = store.Tickets.SetAssignee(ctx, 42, "staff")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = store.Messages.Append(ctx, domain.NewTicketMessage{TicketID: 42, Content: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = store.Messages.ListByTicket(ctx, 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = store.Tags.AddTag(ctx, 42, "bug")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = store.Tickets.GetByThreadRef(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMemoryStore_AppendRejectsEmptyContent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Store()
	ticket := newTicket(t, store, "thread-1")

	_, err := store.Messages.Append(ctx, domain.NewTicketMessage{TicketID: ticket.ID, Content: "   "})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	msgs, err := store.Messages.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryStore_AppendRequireOpen(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Store()
	ticket := newTicket(t, store, "thread-1")
	_, err := store.Tickets.SetStatus(ctx, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)

	_, err = store.Messages.Append(ctx, domain.NewTicketMessage{TicketID: ticket.ID, Content: "late", RequireOpen: true})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	_, err = store.Messages.Append(ctx, domain.NewTicketMessage{TicketID: ticket.ID, Content: "mirrored"})
	assert.NoError(t, err)
}

func TestMemoryStore_MessageOrderWithSharedTimestamps(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStoreWithClock(frozenClock())
	store := mem.Store()
	ticket := newTicket(t, store, "thread-1")

	for i := 0; i < 5; i++ {
		_, err := store.Messages.Append(ctx, domain.NewTicketMessage{
			TicketID: ticket.ID,
			AuthorID: "u",
			Content:  fmt.Sprintf("m%d", i),
		})
		require.NoError(t, err)
	}

	// Force a timestamp tie to exercise the id tiebreak.
	mem.mu.Lock()
	tied := mem.messages[ticket.ID][1].Timestamp
	mem.messages[ticket.ID][2].Timestamp = tied
	mem.messages[ticket.ID][1], mem.messages[ticket.ID][2] = mem.messages[ticket.ID][2], mem.messages[ticket.ID][1]
	mem.mu.Unlock()

	msgs, err := store.Messages.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i := 1; i < len(msgs); i++ {
		prev, cur := msgs[i-1], msgs[i]
		assert.False(t, cur.Timestamp.Before(prev.Timestamp))
		if cur.Timestamp.Equal(prev.Timestamp) {
			assert.Less(t, prev.ID, cur.ID)
		}
	}
	assert.Equal(t, "m1", msgs[1].Content)
	assert.Equal(t, "m2", msgs[2].Content)
}

func TestMemoryStore_Close(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Store()
	ticket := newTicket(t, store, "thread-1")

	closing := domain.NewTicketMessage{AuthorID: "staff", AuthorName: "Staff", Content: domain.ClosingMessage, IsStaff: true}
	closed, msg, err := store.Tickets.Close(ctx, ticket.ID, closing)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	assert.Equal(t, ticket.ID, msg.TicketID)
	assert.True(t, msg.IsStaff)

	_, _, err = store.Tickets.Close(ctx, ticket.ID, closing)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)

	msgs, err := store.Messages.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMemoryStore_ConcurrentCloseAppendsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Store()
	ticket := newTicket(t, store, "thread-1")

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		invalid   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.Tickets.Close(ctx, ticket.ID, domain.NewTicketMessage{Content: domain.ClosingMessage, IsStaff: true})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrInvalidState):
				invalid++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, invalid)
	msgs, err := store.Messages.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestMemoryStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Store()
	first := newTicket(t, store, "thread-1")
	second := newTicket(t, store, "thread-2")
	third := newTicket(t, store, "thread-3")

	_, err := store.Tickets.SetAssignee(ctx, second.ID, "staff-a")
	require.NoError(t, err)
	_, err = store.Tickets.SetStatus(ctx, third.ID, domain.TicketStatusClosed)
	require.NoError(t, err)

	ids := func(kind domain.TicketFilterKind, staff string) []int64 {
		tickets, err := store.Tickets.List(ctx, domain.TicketFilter{Kind: kind, StaffID: staff})
		require.NoError(t, err)
		out := make([]int64, 0, len(tickets))
		for _, ticket := range tickets {
			out = append(out, ticket.ID)
		}
		return out
	}

	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, ids(domain.FilterAll, ""))
	assert.ElementsMatch(t, []int64{first.ID, second.ID}, ids(domain.FilterOpen, ""))
	assert.Equal(t, []int64{third.ID}, ids(domain.FilterClosed, ""))
	assert.Equal(t, []int64{first.ID}, ids(domain.FilterUnassigned, ""))
	assert.Equal(t, []int64{second.ID}, ids(domain.FilterMine, "staff-a"))
	assert.Empty(t, ids(domain.FilterMine, "staff-b"))

	_, err = store.Tickets.List(ctx, domain.TicketFilter{Kind: domain.FilterMine})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	_, err = store.Tickets.List(ctx, domain.TicketFilter{Kind: "bogus"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestMemoryStore_ListEmpty(t *testing.T) {
	tickets, err := NewMemoryStore().List(context.Background(), domain.TicketFilter{Kind: domain.FilterAll})
	require.NoError(t, err)
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)
}

func TestMemoryStore_TagSetSemantics(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Store()
	ticket := newTicket(t, store, "thread-1")

	inserted, err := store.Tags.AddTag(ctx, ticket.ID, "bug")
	require.NoError(t, err)
	assert.True(t, inserted)
	inserted, err = store.Tags.AddTag(ctx, ticket.ID, "bug")
	require.NoError(t, err)
	assert.False(t, inserted)

	tags, err := store.Tags.TagsFor(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bug"}, tags)

	removed, err := store.Tags.RemoveTag(ctx, ticket.ID, "feature-request")
	require.NoError(t, err)
	assert.False(t, removed)

	applied, err := store.Tags.ToggleTag(ctx, ticket.ID, "bug")
	require.NoError(t, err)
	assert.False(t, applied)
	applied, err = store.Tags.ToggleTag(ctx, ticket.ID, "bug")
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestMemoryStore_ConcurrentTogglesAlternate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore().Store()
	ticket := newTicket(t, store, "thread-1")

	const togglers = 10
	results := make(chan bool, togglers)
	var wg sync.WaitGroup
	for i := 0; i < togglers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			applied, err := store.Tags.ToggleTag(ctx, ticket.ID, "bug")
			assert.NoError(t, err)
			results <- applied
		}()
	}
	wg.Wait()
	close(results)

	applied := 0
	for r := range results {
		if r {
			applied++
		}
	}
	// An even number of toggles splits evenly and leaves the tag absent.
	assert.Equal(t, togglers/2, applied)
	tags, err := store.Tags.TagsFor(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
