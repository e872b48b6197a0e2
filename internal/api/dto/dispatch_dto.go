package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// DispatchEventResponse represents one resolution log entry.
type DispatchEventResponse struct {
	ID            string                `json:"id"`
	Action        domain.DispatchAction `json:"action"`
	TicketID      string                `json:"ticket_id"`
	TicketSummary string                `json:"ticket_summary"`
	Priority      domain.TicketPriority `json:"priority"`
	AgentID       *string               `json:"agent_id"`
	AgentName     string                `json:"agent_name,omitempty"`
	OccurredAt    time.Time             `json:"occurred_at"`
	Line          string                `json:"line"`
}

// NewDispatchEventResponse maps an event including its rendered log line.
func NewDispatchEventResponse(e *domain.DispatchEvent) DispatchEventResponse {
	return DispatchEventResponse{
		ID:            e.ID,
		Action:        e.Action,
		TicketID:      e.TicketID,
		TicketSummary: e.TicketSummary,
		Priority:      e.Priority,
		AgentID:       e.AgentID,
		AgentName:     e.AgentName,
		OccurredAt:    e.OccurredAt,
		Line:          e.String(),
	}
}

// DispatchStatusResponse reports launcher and gate state.
type DispatchStatusResponse struct {
	Running  bool `json:"running"`
	GateBusy bool `json:"gate_busy"`
}
