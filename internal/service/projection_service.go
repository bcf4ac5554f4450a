package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/repository"
)

// maxTagLookups bounds concurrent tag reads per listing.
const maxTagLookups = 8

// ProjectionService builds read-only panel views. It never mutates state and
// re-reads the store on every call.
type ProjectionService struct {
	tickets    repository.TicketRepository
	messages   repository.TicketMessageRepository
	tags       *TagRegistry
	categories map[string]string
}

// ProjectionDependencies bundles collaborators for the projection layer.
type ProjectionDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.TicketMessageRepository
	Tags        *TagRegistry
	Categories  []domain.Category
}

// NewProjectionService constructs the service.
func NewProjectionService(deps ProjectionDependencies) *ProjectionService {
	names := make(map[string]string, len(deps.Categories))
	for _, category := range deps.Categories {
		names[category.ID] = category.Name
	}
	return &ProjectionService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		tags:       deps.Tags,
		categories: names,
	}
}

// ListTickets returns the filtered tickets with their configured tags
// attached. An empty result is an empty slice.
func (p *ProjectionService) ListTickets(ctx context.Context, filter domain.TicketFilter) ([]domain.TicketView, error) {
	tickets, err := p.tickets.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]domain.TicketView, len(tickets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxTagLookups)
	for i := range tickets {
		g.Go(func() error {
			view, err := p.view(gctx, tickets[i])
			if err != nil {
				return err
			}
			views[i] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// GetTicket returns one ticket view.
func (p *ProjectionService) GetTicket(ctx context.Context, ticketID int64) (*domain.TicketView, error) {
	ticket, err := p.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	view, err := p.view(ctx, *ticket)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// GetMessages returns the ticket conversation in (timestamp, id) order.
func (p *ProjectionService) GetMessages(ctx context.Context, ticketID int64) ([]domain.TicketMessage, error) {
	return p.messages.ListByTicket(ctx, ticketID)
}

// CategoryName resolves a category id, falling back to the id itself.
func (p *ProjectionService) CategoryName(id string) string {
	if name, ok := p.categories[id]; ok {
		return name
	}
	return id
}

func (p *ProjectionService) view(ctx context.Context, ticket domain.Ticket) (domain.TicketView, error) {
	names, err := p.tags.TagsFor(ctx, ticket.ID)
	if err != nil {
		return domain.TicketView{}, err
	}
	return domain.TicketView{
		Ticket:       ticket,
		CategoryName: p.CategoryName(ticket.Category),
		Tags:         p.tags.Known(names),
	}, nil
}
