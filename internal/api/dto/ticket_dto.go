package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Summary     string                `json:"summary"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	CustomerID  string                `json:"customer_id"`
}

// UpdateTicketRequest payload; absent fields stay unchanged.
type UpdateTicketRequest struct {
	Summary     *string                `json:"summary"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID              string                `json:"id"`
	Summary         string                `json:"summary"`
	Description     string                `json:"description"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	AssignedAgentID *string               `json:"assigned_agent_id"`
	CustomerID      string                `json:"customer_id"`
	CreatedAt       time.Time             `json:"created_at"`
	ResolvedAt      *time.Time            `json:"resolved_at"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		Summary:         t.Summary,
		Description:     t.Description,
		Status:          t.Status,
		Priority:        t.Priority,
		AssignedAgentID: t.AssignedAgentID,
		CustomerID:      t.CustomerID,
		CreatedAt:       t.CreatedAt,
		ResolvedAt:      t.ResolvedAt,
	}
}

// EntityChangeResponse represents one manual edit.
type EntityChangeResponse struct {
	ID          string               `json:"id"`
	Entity      domain.ChangedEntity `json:"entity"`
	EntityID    string               `json:"entity_id"`
	Field       domain.ChangedField  `json:"field"`
	OldValue    string               `json:"old_value"`
	NewValue    string               `json:"new_value"`
	ChangedByID string               `json:"changed_by_id"`
	ChangedAt   time.Time            `json:"changed_at"`
}

// NewEntityChangeResponse maps a change entry.
func NewEntityChangeResponse(c *domain.EntityChange) EntityChangeResponse {
	return EntityChangeResponse{
		ID:          c.ID,
		Entity:      c.Entity,
		EntityID:    c.EntityID,
		Field:       c.Field,
		OldValue:    c.OldValue,
		NewValue:    c.NewValue,
		ChangedByID: c.ChangedByID,
		ChangedAt:   c.ChangedAt,
	}
}
