package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/spec-kit/helpdesk-dispatch/internal/auth"
	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

// AgentService manages agent accounts.
type AgentService struct {
	agents     repository.AgentRepository
	changes    repository.EntityChangeRepository
	bcryptCost int
}

// AgentCreateInput describes a new agent.
type AgentCreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Type      domain.AgentType
}

// AgentUpdateInput carries optional name edits.
type AgentUpdateInput struct {
	FirstName *string
	LastName  *string
}

// NewAgentService constructs the service.
func NewAgentService(agents repository.AgentRepository, changes repository.EntityChangeRepository, bcryptCost int) *AgentService {
	return &AgentService{agents: agents, changes: changes, bcryptCost: bcryptCost}
}

// CreateAgent validates input, hashes the password and stores the agent.
func (s *AgentService) CreateAgent(ctx context.Context, input AgentCreateInput) (*domain.Agent, error) {
	agent := &domain.Agent{
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Email:     normalizeEmail(input.Email),
		Type:      input.Type,
	}
	if agent.Type == "" {
		agent.Type = domain.AgentTypeAgent
	}

	details := map[string]any{}
	if agent.FirstName == "" {
		details["first_name"] = "required"
	}
	if agent.LastName == "" {
		details["last_name"] = "required"
	}
	if _, err := mail.ParseAddress(agent.Email); err != nil {
		details["email"] = "invalid"
	}
	if len(input.Password) < 8 {
		details["password"] = "must be at least 8 characters"
	}
	if !agent.Type.Valid() {
		details["type"] = "must be SUPERAGENT or AGENT"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid agent", details)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	agent.PasswordHash = hash
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// ListAgents returns every agent with its derived status.
func (s *AgentService) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	return s.agents.List(ctx)
}

// GetAgent fetches one agent.
func (s *AgentService) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"id": id})
		}
		return nil, err
	}
	return agent, nil
}

// UpdateAgent edits names and records one change entry per modified field.
func (s *AgentService) UpdateAgent(ctx context.Context, changedByID, id string, input AgentUpdateInput) (*domain.Agent, error) {
	agent, err := s.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}

	var changes []domain.EntityChange
	apply := func(field domain.ChangedField, target *string, value *string) error {
		if value == nil {
			return nil
		}
		next := strings.TrimSpace(*value)
		if next == "" {
			return apperrors.NewValidationError("invalid agent", map[string]any{strings.ToLower(string(field)): "required"})
		}
		if next == *target {
			return nil
		}
		changes = append(changes, domain.EntityChange{
			Entity:      domain.ChangedEntityAgent,
			EntityID:    agent.ID,
			Field:       field,
			OldValue:    *target,
			NewValue:    next,
			ChangedByID: changedByID,
		})
		*target = next
		return nil
	}
	if err := apply(domain.FieldFirstName, &agent.FirstName, input.FirstName); err != nil {
		return nil, err
	}
	if err := apply(domain.FieldLastName, &agent.LastName, input.LastName); err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return agent, nil
	}

	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, err
	}
	if err := recordChanges(ctx, s.changes, changes); err != nil {
		return nil, err
	}
	return agent, nil
}

func recordChanges(ctx context.Context, repo repository.EntityChangeRepository, changes []domain.EntityChange) error {
	for i := range changes {
		if err := repo.Create(ctx, &changes[i]); err != nil {
			return err
		}
	}
	return nil
}
