package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

// MemoryStore keeps every repository in process memory. It backs the service
// when no Postgres DSN is configured and is the store used by tests.
// Reads return copies, never references into the store.
type MemoryStore struct {
	mu        sync.RWMutex
	tickets   []domain.Ticket
	agents    []domain.Agent
	customers []domain.Customer
	events    []domain.DispatchEvent
	changes   []domain.EntityChange
	now       func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Tickets returns the ticket repository view.
func (s *MemoryStore) Tickets() TicketRepository { return memoryTickets{s} }

// Agents returns the agent repository view.
func (s *MemoryStore) Agents() AgentRepository { return memoryAgents{s} }

// Customers returns the customer repository view.
func (s *MemoryStore) Customers() CustomerRepository { return memoryCustomers{s} }

// DispatchEvents returns the resolution log view.
func (s *MemoryStore) DispatchEvents() DispatchEventRepository { return memoryEvents{s} }

// EntityChanges returns the change log view.
func (s *MemoryStore) EntityChanges() EntityChangeRepository { return memoryChanges{s} }

func (s *MemoryStore) ticketIndex(id string) int {
	return slices.IndexFunc(s.tickets, func(t domain.Ticket) bool { return t.ID == id })
}

func (s *MemoryStore) agentIndex(id string) int {
	return slices.IndexFunc(s.agents, func(a domain.Agent) bool { return a.ID == id })
}

func (s *MemoryStore) withOpenCount(agent domain.Agent) domain.Agent {
	agent.OpenTickets = 0
	for _, t := range s.tickets {
		if t.Status == domain.TicketStatusInProgress && t.AssignedAgentID != nil && *t.AssignedAgentID == agent.ID {
			agent.OpenTickets++
		}
	}
	return agent
}

func copyTicket(t domain.Ticket) domain.Ticket {
	if t.AssignedAgentID != nil {
		id := *t.AssignedAgentID
		t.AssignedAgentID = &id
	}
	if t.ResolvedAt != nil {
		at := *t.ResolvedAt
		t.ResolvedAt = &at
	}
	return t
}

type memoryTickets struct{ s *MemoryStore }

func (r memoryTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = r.s.now()
	r.s.tickets = append(r.s.tickets, copyTicket(*ticket))
	return nil
}

func (r memoryTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.ticketIndex(ticket.ID)
	if i < 0 {
		return apperrors.ErrNotFound
	}
	r.s.tickets[i].Summary = ticket.Summary
	r.s.tickets[i].Description = ticket.Description
	r.s.tickets[i].Priority = ticket.Priority
	return nil
}

func (r memoryTickets) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.ticketIndex(id)
	if i < 0 {
		return apperrors.ErrNotFound
	}
	r.s.tickets = slices.Delete(r.s.tickets, i, i+1)
	return nil
}

func (r memoryTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i := r.s.ticketIndex(id)
	if i < 0 {
		return nil, apperrors.ErrNotFound
	}
	t := copyTicket(r.s.tickets[i])
	return &t, nil
}

func (r memoryTickets) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Ticket
	for i := len(r.s.tickets) - 1; i >= 0; i-- {
		t := r.s.tickets[i]
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.AgentID != nil && (t.AssignedAgentID == nil || *t.AssignedAgentID != *filter.AgentID) {
			continue
		}
		if filter.CustomerID != nil && t.CustomerID != *filter.CustomerID {
			continue
		}
		result = append(result, copyTicket(t))
	}
	return paginate(result, filter.Limit, filter.Offset, 50), nil
}

func (r memoryTickets) ListByStatus(_ context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.Ticket
	for _, t := range r.s.tickets {
		if t.Status == status {
			result = append(result, copyTicket(t))
		}
	}
	return result, nil
}

func (r memoryTickets) Assign(_ context.Context, ticketID, agentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.ticketIndex(ticketID)
	if i < 0 {
		return apperrors.ErrNotFound
	}
	id := agentID
	r.s.tickets[i].AssignedAgentID = &id
	r.s.tickets[i].Status = domain.TicketStatusInProgress
	return nil
}

func (r memoryTickets) Resolve(_ context.Context, ticketID string, resolvedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.ticketIndex(ticketID)
	if i < 0 {
		return apperrors.ErrNotFound
	}
	at := resolvedAt
	r.s.tickets[i].ResolvedAt = &at
	r.s.tickets[i].Status = domain.TicketStatusClosed
	return nil
}

type memoryAgents struct{ s *MemoryStore }

func (r memoryAgents) Create(_ context.Context, agent *domain.Agent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if slices.ContainsFunc(r.s.agents, func(a domain.Agent) bool { return a.Email == agent.Email }) {
		return apperrors.NewConflict("agent email already exists", map[string]any{"email": agent.Email})
	}
	agent.ID = uuid.NewString()
	agent.CreatedAt = r.s.now()
	r.s.agents = append(r.s.agents, *agent)
	return nil
}

func (r memoryAgents) Update(_ context.Context, agent *domain.Agent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.agentIndex(agent.ID)
	if i < 0 {
		return apperrors.ErrNotFound
	}
	created := r.s.agents[i].CreatedAt
	r.s.agents[i] = *agent
	r.s.agents[i].CreatedAt = created
	return nil
}

func (r memoryAgents) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i := r.s.agentIndex(id)
	if i < 0 {
		return nil, apperrors.ErrNotFound
	}
	agent := r.s.withOpenCount(r.s.agents[i])
	return &agent, nil
}

func (r memoryAgents) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i := slices.IndexFunc(r.s.agents, func(a domain.Agent) bool { return a.Email == email })
	if i < 0 {
		return nil, apperrors.ErrNotFound
	}
	agent := r.s.withOpenCount(r.s.agents[i])
	return &agent, nil
}

func (r memoryAgents) List(_ context.Context) ([]domain.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]domain.Agent, 0, len(r.s.agents))
	for _, a := range r.s.agents {
		result = append(result, r.s.withOpenCount(a))
	}
	return result, nil
}

func (r memoryAgents) GetByTicketID(_ context.Context, ticketID string) (*domain.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i := r.s.ticketIndex(ticketID)
	if i < 0 || r.s.tickets[i].AssignedAgentID == nil {
		return nil, apperrors.ErrNotFound
	}
	j := r.s.agentIndex(*r.s.tickets[i].AssignedAgentID)
	if j < 0 {
		return nil, apperrors.ErrNotFound
	}
	agent := r.s.withOpenCount(r.s.agents[j])
	return &agent, nil
}

type memoryCustomers struct{ s *MemoryStore }

func (r memoryCustomers) Create(_ context.Context, customer *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if slices.ContainsFunc(r.s.customers, func(c domain.Customer) bool { return c.Email == customer.Email }) {
		return apperrors.NewConflict("customer email already exists", map[string]any{"email": customer.Email})
	}
	customer.ID = uuid.NewString()
	customer.CreatedAt = r.s.now()
	r.s.customers = append(r.s.customers, *customer)
	return nil
}

func (r memoryCustomers) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i := slices.IndexFunc(r.s.customers, func(c domain.Customer) bool { return c.ID == id })
	if i < 0 {
		return nil, apperrors.ErrNotFound
	}
	customer := r.s.customers[i]
	return &customer, nil
}

func (r memoryCustomers) List(_ context.Context) ([]domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := slices.Clone(r.s.customers)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	return result, nil
}

type memoryEvents struct{ s *MemoryStore }

func (r memoryEvents) Append(_ context.Context, event *domain.DispatchEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	r.s.events = append(r.s.events, *event)
	return nil
}

func (r memoryEvents) List(_ context.Context, filter DispatchEventFilter) ([]domain.DispatchEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.DispatchEvent
	for i := len(r.s.events) - 1; i >= 0; i-- {
		e := r.s.events[i]
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		if filter.TicketID != nil && e.TicketID != *filter.TicketID {
			continue
		}
		result = append(result, e)
	}
	return paginate(result, filter.Limit, filter.Offset, 100), nil
}

type memoryChanges struct{ s *MemoryStore }

func (r memoryChanges) Create(_ context.Context, change *domain.EntityChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	change.ID = uuid.NewString()
	change.ChangedAt = r.s.now()
	r.s.changes = append(r.s.changes, *change)
	return nil
}

func (r memoryChanges) List(_ context.Context, entity domain.ChangedEntity, entityID *string) ([]domain.EntityChange, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []domain.EntityChange
	for i := len(r.s.changes) - 1; i >= 0; i-- {
		c := r.s.changes[i]
		if c.Entity != entity {
			continue
		}
		if entityID != nil && c.EntityID != *entityID {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

func paginate[T any](items []T, limit, offset, fallback int) []T {
	if limit <= 0 {
		limit = fallback
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	if limit > len(items)-offset {
		limit = len(items) - offset
	}
	return items[offset : offset+limit]
}
