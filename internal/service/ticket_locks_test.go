package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketLocks_SerializesPerTicket(t *testing.T) {
	locks := newTicketLocks()
	release, err := locks.acquire(context.Background(), 1)
	require.NoError(t, err)

	other, err := locks.acquire(context.Background(), 2)
	require.NoError(t, err, "different tickets do not contend")
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.acquire(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	again, err := locks.acquire(context.Background(), 1)
	require.NoError(t, err)
	again()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}
