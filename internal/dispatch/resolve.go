package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// resolveInProgressTickets closes IN_PROGRESS tickets, highest priority first,
// and records which agent held each one. A ticket with no linked agent is
// still resolved and logged with an empty agent.
func (c *Coordinator) resolveInProgressTickets(ctx context.Context) (int, error) {
	tickets, err := c.store.ListInProgressTickets(ctx)
	if err != nil {
		return 0, &Error{Task: taskResolution, Op: "list in-progress tickets", Err: err}
	}
	domain.SortByPriority(tickets)

	if len(tickets) == 0 {
		c.logger.Debug("nothing to resolve")
		return 0, nil
	}

	for i, ticket := range tickets {
		if i > 0 {
			if err := c.pause(ctx); err != nil {
				return i, interrupted(taskResolution, "pause", ticket.ID, err)
			}
		}

		resolvedAt := c.now()
		if err := c.store.ResolveTicket(ctx, ticket.ID, resolvedAt); err != nil {
			return i, &Error{Task: taskResolution, Op: "resolve ticket", TicketID: ticket.ID, Err: err}
		}
		ticket.Status = domain.TicketStatusClosed
		ticket.ResolvedAt = &resolvedAt

		agent, err := c.store.AgentForTicket(ctx, ticket.ID)
		if err != nil {
			return i, &Error{Task: taskResolution, Op: "look up agent", TicketID: ticket.ID, Err: err}
		}
		if agent == nil {
			c.logger.Warn("resolved ticket has no agent", zap.String("ticket_id", ticket.ID))
		}

		event := domain.NewDispatchEvent(domain.DispatchResolved, ticket, agent, c.now())
		if err := c.audit.Append(ctx, event); err != nil {
			return i, &Error{Task: taskResolution, Op: "append audit event", TicketID: ticket.ID, Err: err}
		}

		c.metrics.RecordDispatch(string(domain.DispatchResolved))
		fields := []zap.Field{zap.String("ticket_id", ticket.ID)}
		if agent != nil {
			fields = append(fields, zap.String("agent_id", agent.ID))
		}
		c.logger.Info("ticket resolved", fields...)
	}
	return len(tickets), nil
}
