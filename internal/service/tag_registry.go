package service

import (
	"context"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/repository"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// TagRegistry validates tag names against the configured allow-list and
// records associations through the store.
type TagRegistry struct {
	tags   []domain.Tag
	byName map[string]domain.Tag
	store  repository.TicketTagRepository
}

// NewTagRegistry builds a registry over a fixed tag list.
func NewTagRegistry(tags []domain.Tag, store repository.TicketTagRepository) *TagRegistry {
	byName := make(map[string]domain.Tag, len(tags))
	for _, tag := range tags {
		byName[tag.Name] = tag
	}
	return &TagRegistry{
		tags:   append([]domain.Tag(nil), tags...),
		byName: byName,
		store:  store,
	}
}

// ConfiguredTags returns the allow-list in configuration order.
func (r *TagRegistry) ConfiguredTags() []domain.Tag {
	return append([]domain.Tag(nil), r.tags...)
}

// IsValidTag reports whether name is configured.
func (r *TagRegistry) IsValidTag(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Lookup returns the configured tag for name.
func (r *TagRegistry) Lookup(name string) (domain.Tag, bool) {
	tag, ok := r.byName[name]
	return tag, ok
}

// AddTag associates name with the ticket. Adding an existing tag is a no-op.
func (r *TagRegistry) AddTag(ctx context.Context, ticketID int64, name string) error {
	if err := r.validate(name); err != nil {
		return err
	}
	_, err := r.store.AddTag(ctx, ticketID, name)
	return err
}

// RemoveTag drops the association. Removing an absent tag is a no-op.
func (r *TagRegistry) RemoveTag(ctx context.Context, ticketID int64, name string) error {
	_, err := r.store.RemoveTag(ctx, ticketID, name)
	return err
}

// ToggleTag applies name if absent and removes it if present, atomically per
// (ticket, tag). It reports whether the tag is applied afterwards.
func (r *TagRegistry) ToggleTag(ctx context.Context, ticketID int64, name string) (bool, error) {
	if err := r.validate(name); err != nil {
		return false, err
	}
	return r.store.ToggleTag(ctx, ticketID, name)
}

// TagsFor returns every tag name stored for the ticket, configured or not.
func (r *TagRegistry) TagsFor(ctx context.Context, ticketID int64) ([]string, error) {
	return r.store.TagsFor(ctx, ticketID)
}

// Known filters names down to configured tags, preserving configuration order.
func (r *TagRegistry) Known(names []string) []domain.Tag {
	present := make(map[string]struct{}, len(names))
	for _, name := range names {
		present[name] = struct{}{}
	}
	out := make([]domain.Tag, 0, len(names))
	for _, tag := range r.tags {
		if _, ok := present[tag.Name]; ok {
			out = append(out, tag)
		}
	}
	return out
}

func (r *TagRegistry) validate(name string) error {
	if !r.IsValidTag(name) {
		return apperrors.NewValidationError("unknown tag", map[string]any{"tag": name})
	}
	return nil
}
