package repository

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

// DispatchStore exposes the ticket and agent queries the dispatch coordinator needs.
type DispatchStore struct {
	tickets TicketRepository
	agents  AgentRepository
}

// NewDispatchStore combines the ticket and agent repositories.
func NewDispatchStore(tickets TicketRepository, agents AgentRepository) *DispatchStore {
	return &DispatchStore{tickets: tickets, agents: agents}
}

func (s *DispatchStore) ListOpenTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.ListByStatus(ctx, domain.TicketStatusOpen)
}

func (s *DispatchStore) ListInProgressTickets(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.ListByStatus(ctx, domain.TicketStatusInProgress)
}

func (s *DispatchStore) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	return s.agents.List(ctx)
}

func (s *DispatchStore) AssignTicket(ctx context.Context, ticketID, agentID string) error {
	return s.tickets.Assign(ctx, ticketID, agentID)
}

func (s *DispatchStore) ResolveTicket(ctx context.Context, ticketID string, resolvedAt time.Time) error {
	return s.tickets.Resolve(ctx, ticketID, resolvedAt)
}

// AgentForTicket returns nil without error when no agent is linked to the ticket.
func (s *DispatchStore) AgentForTicket(ctx context.Context, ticketID string) (*domain.Agent, error) {
	agent, err := s.agents.GetByTicketID(ctx, ticketID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return agent, nil
}
