// Package gatewaytest provides a scriptable in-memory ThreadGateway.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/ticket-bridge/internal/gateway"
)

// SentPost is a post recorded by Fake.
type SentPost struct {
	ThreadRef string
	Post      gateway.Post
}

// Fake records calls and fails them on demand. The zero value is not usable;
// call New.
type Fake struct {
	mu sync.Mutex

	// Failure hooks; a non-nil error is returned by the matching call.
	CreateErr  error
	PostErr    error
	ArchiveErr error
	RoleErr    error

	// Block, when set, is waited on by every call until closed or ctx ends.
	Block chan struct{}

	Staff    map[string]bool
	Threads  []gateway.ThreadSpec
	Posts    []SentPost
	Archived map[string]int
	next     int
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		Staff:    make(map[string]bool),
		Archived: make(map[string]int),
	}
}

func (f *Fake) wait(ctx context.Context) error {
	f.mu.Lock()
	block := f.Block
	f.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fake) CreateThread(ctx context.Context, spec gateway.ThreadSpec) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.next++
	f.Threads = append(f.Threads, spec)
	return fmt.Sprintf("thread-%d", f.next), nil
}

func (f *Fake) PostMessage(ctx context.Context, threadRef string, post gateway.Post) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PostErr != nil {
		return f.PostErr
	}
	f.Posts = append(f.Posts, SentPost{ThreadRef: threadRef, Post: post})
	return nil
}

func (f *Fake) LockAndArchive(ctx context.Context, threadRef string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ArchiveErr != nil {
		return f.ArchiveErr
	}
	f.Archived[threadRef]++
	return nil
}

func (f *Fake) ResolveStaffRole(ctx context.Context, userID string) (bool, error) {
	if err := f.wait(ctx); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RoleErr != nil {
		return false, f.RoleErr
	}
	return f.Staff[userID], nil
}

// SetPostErr swaps the post failure under the lock.
func (f *Fake) SetPostErr(err error) {
	f.mu.Lock()
	f.PostErr = err
	f.mu.Unlock()
}

// PostsTo returns the posts sent to threadRef.
func (f *Fake) PostsTo(threadRef string) []gateway.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gateway.Post
	for _, sent := range f.Posts {
		if sent.ThreadRef == threadRef {
			out = append(out, sent.Post)
		}
	}
	return out
}

// ArchiveCount returns how often threadRef was locked and archived.
func (f *Fake) ArchiveCount(threadRef string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Archived[threadRef]
}
