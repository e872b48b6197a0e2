package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	"github.com/spec-kit/helpdesk-dispatch/internal/events"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

// TicketService coordinates ticket intake and manual edits. Assignment and
// resolution are left to the dispatch coordinator.
type TicketService struct {
	tickets    repository.TicketRepository
	customers  repository.CustomerRepository
	changes    repository.EntityChangeRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	CustomerRepo repository.CustomerRepository
	ChangeRepo   repository.EntityChangeRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Summary     string
	Description string
	Priority    domain.TicketPriority
	CustomerID  string
}

// TicketUpdateInput carries optional field edits.
type TicketUpdateInput struct {
	Summary     *string
	Description *string
	Priority    *domain.TicketPriority
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		customers:  deps.CustomerRepo,
		changes:    deps.ChangeRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket opens a ticket for an existing customer.
func (s *TicketService) CreateTicket(ctx context.Context, actorID string, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Summary:     strings.TrimSpace(input.Summary),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		CustomerID:  strings.TrimSpace(input.CustomerID),
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityNormal
	}

	details := map[string]any{}
	if ticket.Summary == "" {
		details["summary"] = "required"
	}
	if !ticket.Priority.Valid() {
		details["priority"] = "must be HIGH, NORMAL or LOW"
	}
	if ticket.CustomerID == "" {
		details["customer_id"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	if _, err := s.customers.GetByID(ctx, ticket.CustomerID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"customer_id": "unknown customer"})
		}
		return nil, err
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  optionalID(actorID),
		Payload: events.TicketCreatedPayload{
			CustomerID: ticket.CustomerID,
			Priority:   ticket.Priority,
			Summary:    ticket.Summary,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets matching filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": *filter.Status})
	}
	return s.tickets.List(ctx, filter)
}

// GetTicket fetches one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// UpdateTicket edits summary, description and priority. Every changed field
// gets an entity change entry attributed to changedByID.
func (s *TicketService) UpdateTicket(ctx context.Context, changedByID, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	var changes []domain.EntityChange
	record := func(field domain.ChangedField, oldValue, newValue string) {
		changes = append(changes, domain.EntityChange{
			Entity:      domain.ChangedEntityTicket,
			EntityID:    ticket.ID,
			Field:       field,
			OldValue:    oldValue,
			NewValue:    newValue,
			ChangedByID: changedByID,
		})
	}

	if input.Summary != nil {
		summary := strings.TrimSpace(*input.Summary)
		if summary == "" {
			return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"summary": "required"})
		}
		if summary != ticket.Summary {
			record(domain.FieldSummary, ticket.Summary, summary)
			ticket.Summary = summary
		}
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description != ticket.Description {
			record(domain.FieldDescription, ticket.Description, description)
			ticket.Description = description
		}
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid ticket", map[string]any{"priority": "must be HIGH, NORMAL or LOW"})
		}
		if *input.Priority != ticket.Priority {
			record(domain.FieldPriority, string(ticket.Priority), string(*input.Priority))
			ticket.Priority = *input.Priority
		}
	}
	if len(changes) == 0 {
		return ticket, nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := recordChanges(ctx, s.changes, changes); err != nil {
		return nil, err
	}

	fields := make([]domain.ChangedField, 0, len(changes))
	for _, c := range changes {
		fields = append(fields, c.Field)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEdited,
		TicketID: ticket.ID,
		ActorID:  optionalID(changedByID),
		Payload:  events.TicketEditedPayload{Fields: fields},
	})
	return ticket, nil
}

// DeleteTicket removes a ticket. Its dispatch events stay in the log.
func (s *TicketService) DeleteTicket(ctx context.Context, id string) error {
	if err := s.tickets.Delete(ctx, id); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

// ListChanges returns the manual edit history for an entity kind, optionally one record.
func (s *TicketService) ListChanges(ctx context.Context, entity domain.ChangedEntity, entityID *string) ([]domain.EntityChange, error) {
	if entity != domain.ChangedEntityTicket && entity != domain.ChangedEntityAgent {
		return nil, apperrors.NewValidationError("invalid entity", map[string]any{"entity": entity})
	}
	return s.changes.List(ctx, entity, entityID)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
