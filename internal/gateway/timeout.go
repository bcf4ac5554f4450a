package gateway

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// Classify maps a raw gateway failure onto the engine's error kinds. Errors
// already classified pass through; anything else, timeouts included, becomes
// GatewayUnavailable.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrGatewayUnavailable) || errors.Is(err, apperrors.ErrPermissionDenied) {
		return err
	}
	return apperrors.NewGatewayUnavailable(op, err)
}

// timeoutGateway bounds each call with its own deadline.
type timeoutGateway struct {
	next    ThreadGateway
	timeout time.Duration
}

// WithTimeout wraps next so every call runs under timeout and returns
// classified errors. A non-positive timeout only classifies.
func WithTimeout(next ThreadGateway, timeout time.Duration) ThreadGateway {
	return &timeoutGateway{next: next, timeout: timeout}
}

func (g *timeoutGateway) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *timeoutGateway) CreateThread(ctx context.Context, spec ThreadSpec) (string, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	ref, err := g.next.CreateThread(ctx, spec)
	if err != nil {
		return "", Classify("create thread", err)
	}
	return ref, nil
}

func (g *timeoutGateway) PostMessage(ctx context.Context, threadRef string, post Post) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	return Classify("post message", g.next.PostMessage(ctx, threadRef, post))
}

func (g *timeoutGateway) LockAndArchive(ctx context.Context, threadRef string) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	return Classify("lock and archive", g.next.LockAndArchive(ctx, threadRef))
}

func (g *timeoutGateway) ResolveStaffRole(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := g.bound(ctx)
	defer cancel()
	isStaff, err := g.next.ResolveStaffRole(ctx, userID)
	if err != nil {
		return false, Classify("resolve staff role", err)
	}
	return isStaff, nil
}
