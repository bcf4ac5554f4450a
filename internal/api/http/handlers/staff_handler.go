package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bridge/internal/api/dto"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/observability"
	"github.com/spec-kit/ticket-bridge/internal/service"
)

// StaffHandler serves panel metadata: the caller, the catalog and
// consistency warnings.
type StaffHandler struct {
	tickets *service.TicketService
	tags    *service.TagRegistry
	catalog []dto.CategoryResponse
	metrics *observability.Metrics
}

// NewStaffHandler constructs handler.
func NewStaffHandler(ticketService *service.TicketService, tags *service.TagRegistry, categories []domain.Category, metrics *observability.Metrics) *StaffHandler {
	catalog := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		catalog = append(catalog, dto.CategoryResponse{ID: category.ID, Name: category.Name})
	}
	return &StaffHandler{tickets: ticketService, tags: tags, catalog: catalog, metrics: metrics}
}

// Me GET /api/me.
func (h *StaffHandler) Me(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StaffResponse{
		ID:          staff.ID,
		DisplayName: staff.DisplayName,
		AvatarRef:   staff.AvatarRef,
	}})
}

// ListCategories GET /api/categories.
func (h *StaffHandler) ListCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.catalog})
}

// ListTags GET /api/tags.
func (h *StaffHandler) ListTags(c *fiber.Ctx) error {
	configured := h.tags.ConfiguredTags()
	items := make([]dto.TagResponse, 0, len(configured))
	for _, tag := range configured {
		items = append(items, dto.TagResponse{Name: tag.Name, Color: tag.Color})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListWarnings GET /api/warnings.
func (h *StaffHandler) ListWarnings(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.tickets.Warnings()})
}

// Metrics GET /api/metrics.
func (h *StaffHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
