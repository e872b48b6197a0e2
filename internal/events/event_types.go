package events

import (
	"time"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketEdited   EventType = "ticket_edited"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketResolved EventType = "ticket_resolved"
)

// Event represents a domain event emitted by services and the dispatch journal.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CustomerID string                `json:"customer_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Summary    string                `json:"summary"`
}

// TicketEditedPayload lists the fields a manual edit touched.
type TicketEditedPayload struct {
	Fields []domain.ChangedField `json:"fields"`
}

// DispatchPayload carries the audit record behind an assignment or resolution.
type DispatchPayload struct {
	EventID   string                `json:"event_id"`
	Action    domain.DispatchAction `json:"action"`
	Priority  domain.TicketPriority `json:"priority"`
	AgentID   *string               `json:"agent_id,omitempty"`
	AgentName string                `json:"agent_name,omitempty"`
	Line      string                `json:"line"`
}

// FromDispatchEvent wraps a dispatch audit record as a bus event.
func FromDispatchEvent(e *domain.DispatchEvent) Event {
	eventType := EventTicketAssigned
	if e.Action == domain.DispatchResolved {
		eventType = EventTicketResolved
	}
	return Event{
		ID:        e.ID,
		Type:      eventType,
		TicketID:  e.TicketID,
		Timestamp: e.OccurredAt,
		Payload: DispatchPayload{
			EventID:   e.ID,
			Action:    e.Action,
			Priority:  e.Priority,
			AgentID:   e.AgentID,
			AgentName: e.AgentName,
			Line:      e.String(),
		},
	}
}
