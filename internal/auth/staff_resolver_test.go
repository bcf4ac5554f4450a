package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-bridge/internal/gateway/gatewaytest"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

type mapCache struct {
	values map[string]bool
	getErr error
	sets   int
}

func (c *mapCache) Get(_ context.Context, userID string) (bool, bool, error) {
	if c.getErr != nil {
		return false, false, c.getErr
	}
	v, ok := c.values[userID]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, userID string, isStaff bool) error {
	c.sets++
	c.values[userID] = isStaff
	return nil
}

func TestStaffResolver_CachesLookups(t *testing.T) {
	ctx := context.Background()
	gw := gatewaytest.New()
	gw.Staff["alice"] = true
	cache := &mapCache{values: map[string]bool{}}
	resolver := NewStaffResolver(gw, 0, cache, nil)

	isStaff, err := resolver.IsStaff(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, isStaff)
	assert.Equal(t, 1, cache.sets)

	gw.RoleErr = errors.New("should not be called")
	isStaff, err = resolver.IsStaff(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, isStaff)
}

func TestStaffResolver_CacheFailureFallsThrough(t *testing.T) {
	gw := gatewaytest.New()
	cache := &mapCache{values: map[string]bool{}, getErr: errors.New("redis down")}
	resolver := NewStaffResolver(gw, 0, cache, nil)

	isStaff, err := resolver.IsStaff(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, isStaff)
}

func TestStaffResolver_GatewayErrorIsClassified(t *testing.T) {
	gw := gatewaytest.New()
	gw.RoleErr = errors.New("connection reset")
	resolver := NewStaffResolver(gw, 0, nil, nil)

	_, err := resolver.IsStaff(context.Background(), "bob")
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)
}

func TestStaffResolver_BoundsHungLookup(t *testing.T) {
	gw := gatewaytest.New()
	gw.Block = make(chan struct{})
	defer close(gw.Block)
	resolver := NewStaffResolver(gw, 30*time.Millisecond, nil, nil)

	start := time.Now()
	_, err := resolver.IsStaff(context.Background(), "alice")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrGatewayUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}
