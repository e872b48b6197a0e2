package domain

import (
	"slices"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency. Declaration order is dispatch order.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityNormal TicketPriority = "NORMAL"
	TicketPriorityLow    TicketPriority = "LOW"
)

// Rank orders priorities for dispatch: HIGH first, unknown values last.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityHigh:
		return 0
	case TicketPriorityNormal:
		return 1
	case TicketPriorityLow:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	return p.Rank() < 3
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID              string
	Summary         string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	AssignedAgentID *string
	CustomerID      string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}

// IsResolved reports whether the ticket carries a resolution timestamp.
// A consistent ticket has ResolvedAt set exactly when it is CLOSED.
func (t *Ticket) IsResolved() bool {
	return t.ResolvedAt != nil
}

// Consistent checks the resolved-at/status invariant.
func (t *Ticket) Consistent() bool {
	return t.IsResolved() == (t.Status == TicketStatusClosed)
}

// SortByPriority stable-sorts tickets HIGH before NORMAL before LOW,
// keeping store order among equal priorities.
func SortByPriority(tickets []Ticket) {
	slices.SortStableFunc(tickets, func(a, b Ticket) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
}
