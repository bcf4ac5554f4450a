package service

import (
	"context"
	"sync"
)

// ticketLocks serializes state transitions per ticket inside one process.
// Entries are reference counted and dropped when unused.
type ticketLocks struct {
	mu    sync.Mutex
	locks map[int64]*ticketLock
}

type ticketLock struct {
	ch   chan struct{}
	refs int
}

func newTicketLocks() *ticketLocks {
	return &ticketLocks{locks: make(map[int64]*ticketLock)}
}

// acquire blocks until the ticket's lock is held or ctx ends. The returned
// function releases it.
func (l *ticketLocks) acquire(ctx context.Context, ticketID int64) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[ticketID]
	if !ok {
		lock = &ticketLock{ch: make(chan struct{}, 1)}
		l.locks[ticketID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			l.release(ticketID, lock)
		}, nil
	case <-ctx.Done():
		l.release(ticketID, lock)
		return nil, ctx.Err()
	}
}

func (l *ticketLocks) release(ticketID int64, lock *ticketLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, ticketID)
	}
}
