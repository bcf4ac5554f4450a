package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/gateway"
)

// RoleCache remembers staff lookups between requests.
type RoleCache interface {
	Get(ctx context.Context, userID string) (isStaff bool, found bool, err error)
	Set(ctx context.Context, userID string, isStaff bool) error
}

// StaffResolver answers "does this chat user hold the staff role", asking the
// chat platform on a cache miss. Cache failures are logged and bypassed.
type StaffResolver struct {
	gateway gateway.ThreadGateway
	cache   RoleCache
	logger  *zap.Logger
}

// NewStaffResolver builds a resolver; cache may be nil. Every platform lookup
// runs under timeout, the same bound the ticket engine uses.
func NewStaffResolver(gw gateway.ThreadGateway, timeout time.Duration, cache RoleCache, logger *zap.Logger) *StaffResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffResolver{gateway: gateway.WithTimeout(gw, timeout), cache: cache, logger: logger}
}

// IsStaff reports whether userID holds the staff role.
func (r *StaffResolver) IsStaff(ctx context.Context, userID string) (bool, error) {
	if r.cache != nil {
		isStaff, found, err := r.cache.Get(ctx, userID)
		if err != nil {
			r.logger.Warn("staff role cache read failed", zap.String("user_id", userID), zap.Error(err))
		} else if found {
			return isStaff, nil
		}
	}

	isStaff, err := r.gateway.ResolveStaffRole(ctx, userID)
	if err != nil {
		return false, gateway.Classify("resolve staff role", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, userID, isStaff); err != nil {
			r.logger.Warn("staff role cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return isStaff, nil
}
