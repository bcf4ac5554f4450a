package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bridge/internal/api/dto"
	"github.com/spec-kit/ticket-bridge/internal/auth"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/service"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

// TicketsHandler serves the staff panel ticket endpoints.
type TicketsHandler struct {
	tickets    *service.TicketService
	projection *service.ProjectionService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, projection *service.ProjectionService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, projection: projection}
}

// ListTickets GET /api/tickets?filter=all|open|closed|unassigned|mine.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	kind, ok := domain.ParseTicketFilterKind(c.Query("filter"))
	if !ok {
		return apperrors.NewValidationError("unknown filter", map[string]any{"filter": c.Query("filter")})
	}
	views, err := h.projection.ListTickets(c.UserContext(), domain.TicketFilter{Kind: kind, StaffID: staff.ID})
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(views))
	for i := range views {
		items = append(items, ticketSummary(&views[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	view, err := h.projection.GetTicket(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	messages, err := h.projection.GetMessages(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		TicketSummary: ticketSummary(view),
		Messages:      messageResponses(messages),
	}})
}

// ListMessages GET /api/tickets/:id/messages.
func (h *TicketsHandler) ListMessages(c *fiber.Ctx) error {
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	messages, err := h.projection.GetMessages(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": messageResponses(messages)})
}

// Reply POST /api/tickets/:id/reply.
func (h *TicketsHandler) Reply(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperrors.NewValidationError("content required", nil)
	}
	result, err := h.tickets.Reply(c.UserContext(), ticketID, *staff, req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.mutationResponse(c, ticketID, result)})
}

// Assign POST /api/tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	assignee := strings.TrimSpace(req.StaffID)
	if assignee == "" {
		assignee = staff.ID
	}
	result, err := h.tickets.Assign(c.UserContext(), ticketID, assignee, *staff)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.mutationResponse(c, ticketID, result)})
}

// Close POST /api/tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	result, err := h.tickets.Close(c.UserContext(), ticketID, *staff)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": h.mutationResponse(c, ticketID, result)})
}

// ToggleTag POST /api/tickets/:id/tags.
func (h *TicketsHandler) ToggleTag(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	var req dto.ToggleTagRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	applied, err := h.tickets.ToggleTag(c.UserContext(), ticketID, req.Tag, *staff)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToggleTagResponse{Tag: req.Tag, Applied: applied}})
}

// mutationResponse re-reads the ticket so tags and category names are current.
// The mutation already committed, so a failed re-read falls back to the result.
func (h *TicketsHandler) mutationResponse(c *fiber.Ctx, ticketID int64, result *service.MutationResult) dto.MutationResponse {
	resp := dto.MutationResponse{Warnings: result.Warnings}
	if resp.Warnings == nil {
		resp.Warnings = []domain.ConsistencyWarning{}
	}
	if view, err := h.projection.GetTicket(c.UserContext(), ticketID); err == nil {
		summary := ticketSummary(view)
		resp.Ticket = &summary
	} else if result.Ticket != nil {
		summary := ticketSummary(&domain.TicketView{
			Ticket:       *result.Ticket,
			CategoryName: h.projection.CategoryName(result.Ticket.Category),
		})
		resp.Ticket = &summary
	}
	if result.Message != nil {
		msg := ticketMessageResponse(result.Message)
		resp.Message = &msg
	}
	return resp
}

func staffPrincipal(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return &principal.Staff, nil
}

func ticketIDParam(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": raw})
	}
	return id, nil
}

func ticketSummary(view *domain.TicketView) dto.TicketSummary {
	tags := make([]dto.TagResponse, 0, len(view.Tags))
	for _, tag := range view.Tags {
		tags = append(tags, dto.TagResponse{Name: tag.Name, Color: tag.Color})
	}
	return dto.TicketSummary{
		ID:            view.Ticket.ID,
		RequesterID:   view.Ticket.RequesterID,
		RequesterName: view.Ticket.RequesterName,
		Category:      view.Ticket.Category,
		CategoryName:  view.CategoryName,
		Status:        view.Ticket.Status,
		AssigneeID:    view.Ticket.AssigneeID,
		ThreadRef:     view.Ticket.ThreadRef,
		Tags:          tags,
		CreatedAt:     view.Ticket.CreatedAt,
		UpdatedAt:     view.Ticket.UpdatedAt,
	}
}

func messageResponses(messages []domain.TicketMessage) []dto.TicketMessageResponse {
	out := make([]dto.TicketMessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, ticketMessageResponse(&messages[i]))
	}
	return out
}

func ticketMessageResponse(msg *domain.TicketMessage) dto.TicketMessageResponse {
	return dto.TicketMessageResponse{
		ID:         msg.ID,
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Content:    msg.Content,
		IsStaff:    msg.IsStaff,
		Timestamp:  msg.Timestamp,
	}
}
