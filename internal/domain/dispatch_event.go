package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DispatchAction tags a dispatch event.
type DispatchAction string

const (
	DispatchAssigned DispatchAction = "ASSIGNED"
	DispatchResolved DispatchAction = "RESOLVED"
)

// DispatchTimeLayout is the timestamp layout used in rendered log lines.
const DispatchTimeLayout = "02.01.2006. 15:04:05"

// DispatchEvent is an immutable audit record of one assignment or resolution.
type DispatchEvent struct {
	ID            string
	Action        DispatchAction
	TicketID      string
	TicketSummary string
	Priority      TicketPriority
	AgentID       *string
	AgentName     string
	OccurredAt    time.Time
}

// NewDispatchEvent snapshots the ticket and (possibly absent) agent at time at.
func NewDispatchEvent(action DispatchAction, ticket Ticket, agent *Agent, at time.Time) *DispatchEvent {
	event := &DispatchEvent{
		ID:            uuid.NewString(),
		Action:        action,
		TicketID:      ticket.ID,
		TicketSummary: ticket.Summary,
		Priority:      ticket.Priority,
		OccurredAt:    at,
	}
	if agent != nil {
		id := agent.ID
		event.AgentID = &id
		event.AgentName = agent.DisplayName()
	}
	return event
}

// String renders the event as a resolution log line.
func (e *DispatchEvent) String() string {
	agent := "none"
	if e.AgentID != nil {
		agent = *e.AgentID
	}
	verb := "ASSIGNED to"
	if e.Action == DispatchResolved {
		verb = "RESOLVED by"
	}
	return fmt.Sprintf("Ticket (ID: %s) has been %s agent (ID: %s) at %s",
		e.TicketID, verb, agent, e.OccurredAt.Format(DispatchTimeLayout))
}
