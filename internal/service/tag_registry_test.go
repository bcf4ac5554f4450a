package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/repository"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

func newRegistry(t *testing.T) (*TagRegistry, int64) {
	t.Helper()
	store := repository.NewMemoryStore().Store()
	ticket, err := store.Tickets.Create(context.Background(), domain.NewTicket{
		RequesterID:   "user-bob",
		RequesterName: "Bob",
		Category:      "category1",
		ThreadRef:     "thread-1",
	})
	require.NoError(t, err)
	return NewTagRegistry(config.DefaultCatalog().Tags, store.Tags), ticket.ID
}

func TestTagRegistry_AddTagRejectsUnconfiguredName(t *testing.T) {
	registry, ticketID := newRegistry(t)

	err := registry.AddTag(context.Background(), ticketID, "urgent")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

	names, err := registry.TagsFor(context.Background(), ticketID)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestTagRegistry_AddAndRemoveAreIdempotent(t *testing.T) {
	ctx := context.Background()
	registry, ticketID := newRegistry(t)

	require.NoError(t, registry.AddTag(ctx, ticketID, "bug"))
	require.NoError(t, registry.AddTag(ctx, ticketID, "bug"))
	names, err := registry.TagsFor(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bug"}, names)

	require.NoError(t, registry.RemoveTag(ctx, ticketID, "bug"))
	require.NoError(t, registry.RemoveTag(ctx, ticketID, "bug"))
	names, err = registry.TagsFor(ctx, ticketID)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestTagRegistry_ToggleRejectsUnconfiguredName(t *testing.T) {
	registry, ticketID := newRegistry(t)
	_, err := registry.ToggleTag(context.Background(), ticketID, "urgent")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestTagRegistry_KnownKeepsConfigurationOrder(t *testing.T) {
	registry, _ := newRegistry(t)

	known := registry.Known([]string{"feature-request", "legacy", "high-priority"})
	require.Len(t, known, 2)
	assert.Equal(t, "high-priority", known[0].Name)
	assert.Equal(t, "feature-request", known[1].Name)
	assert.True(t, registry.IsValidTag("bug"))
	assert.False(t, registry.IsValidTag("legacy"))
	assert.Len(t, registry.ConfiguredTags(), 4)
}
