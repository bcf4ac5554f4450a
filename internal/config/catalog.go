package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-bridge/internal/domain"
)

// Catalog is the immutable set of ticket categories and tags offered by the
// deployment. It is loaded once at start and shared by reference.
type Catalog struct {
	Categories []domain.Category `yaml:"categories"`
	Tags       []domain.Tag      `yaml:"tags"`
}

// DefaultCatalog returns the catalog used when no file is configured.
func DefaultCatalog() Catalog {
	return Catalog{
		Categories: []domain.Category{
			{ID: "category1", Name: "General Support"},
			{ID: "category2", Name: "Billing"},
			{ID: "category3", Name: "Technical"},
		},
		Tags: []domain.Tag{
			{Name: "high-priority", Color: "#ff0000"},
			{Name: "low-priority", Color: "#00ff00"},
			{Name: "bug", Color: "#0000ff"},
			{Name: "feature-request", Color: "#ffff00"},
		},
	}
}

// LoadCatalog reads a YAML catalog from path. An empty path yields DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(raw []byte) (Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return Catalog{}, err
	}
	return catalog, nil
}

// Validate checks that categories and tags are non-empty and unique.
func (c Catalog) Validate() error {
	if len(c.Categories) == 0 {
		return errors.New("catalog: at least one category is required")
	}
	seen := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.ID) == "" || strings.TrimSpace(cat.Name) == "" {
			return errors.New("catalog: category id and name are required")
		}
		if _, dup := seen[cat.ID]; dup {
			return fmt.Errorf("catalog: duplicate category %q", cat.ID)
		}
		seen[cat.ID] = struct{}{}
	}
	seen = make(map[string]struct{}, len(c.Tags))
	for _, tag := range c.Tags {
		if strings.TrimSpace(tag.Name) == "" {
			return errors.New("catalog: tag name is required")
		}
		if _, dup := seen[tag.Name]; dup {
			return fmt.Errorf("catalog: duplicate tag %q", tag.Name)
		}
		seen[tag.Name] = struct{}{}
	}
	return nil
}

// Category looks up a category by id.
func (c Catalog) Category(id string) (domain.Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return domain.Category{}, false
}
