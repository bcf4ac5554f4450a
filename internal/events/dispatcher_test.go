package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDispatcher_DeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []int64
	d.Subscribe(EventTicketClosed, func(_ context.Context, e Event) error {
		got = append(got, e.TicketID)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketClosed, TicketID: 7}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: 8}))
	assert.Equal(t, []int64{7}, got)
}

func TestInMemoryDispatcher_ContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	calls := 0
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketAssigned})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}
