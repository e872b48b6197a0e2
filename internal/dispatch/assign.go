package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// assignOpenTickets hands OPEN tickets, highest priority first, to agents in
// round-robin order. Agent load is not considered and a ticket claimed by
// someone else since the listing is simply overwritten.
func (c *Coordinator) assignOpenTickets(ctx context.Context) (int, error) {
	tickets, err := c.store.ListOpenTickets(ctx)
	if err != nil {
		return 0, &Error{Task: taskAssignment, Op: "list open tickets", Err: err}
	}
	domain.SortByPriority(tickets)

	agents, err := c.store.ListAgents(ctx)
	if err != nil {
		return 0, &Error{Task: taskAssignment, Op: "list agents", Err: err}
	}

	if len(tickets) == 0 || len(agents) == 0 {
		c.logger.Debug("nothing to assign", zap.Int("tickets", len(tickets)), zap.Int("agents", len(agents)))
		return 0, nil
	}

	for i, ticket := range tickets {
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				return i, interrupted(taskAssignment, "pause", ticket.ID, err)
			}
		}

		agent := agents[i%len(agents)]
		if err := c.store.AssignTicket(ctx, ticket.ID, agent.ID); err != nil {
			return i, &Error{Task: taskAssignment, Op: "assign ticket", TicketID: ticket.ID, Err: err}
		}

		agentID := agent.ID
		ticket.Status = domain.TicketStatusInProgress
		ticket.AssignedAgentID = &agentID
		event := domain.NewDispatchEvent(domain.DispatchAssigned, ticket, &agent, c.now())
		if err := c.audit.Append(ctx, event); err != nil {
			return i, &Error{Task: taskAssignment, Op: "append audit event", TicketID: ticket.ID, Err: err}
		}

		c.metrics.RecordDispatch(string(domain.DispatchAssigned))
		c.logger.Info("ticket assigned",
			zap.String("ticket_id", ticket.ID),
			zap.String("agent_id", agent.ID),
			zap.String("priority", string(ticket.Priority)),
		)
	}
	return len(tickets), nil
}
