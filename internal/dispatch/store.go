package dispatch

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// Store is the slice of the ticket store the coordinator works against.
// Every call returns snapshots; nothing is cached between activations.
type Store interface {
	ListOpenTickets(ctx context.Context) ([]domain.Ticket, error)
	ListInProgressTickets(ctx context.Context) ([]domain.Ticket, error)
	ListAgents(ctx context.Context) ([]domain.Agent, error)
	AssignTicket(ctx context.Context, ticketID, agentID string) error
	ResolveTicket(ctx context.Context, ticketID string, resolvedAt time.Time) error
	// AgentForTicket returns (nil, nil) when no agent is linked to the ticket.
	AgentForTicket(ctx context.Context, ticketID string) (*domain.Agent, error)
}

// AuditLog receives one event per assignment or resolution.
type AuditLog interface {
	Append(ctx context.Context, event *domain.DispatchEvent) error
}
