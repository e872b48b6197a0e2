package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Agent       AgentResponse `json:"agent"`
}

// CreateAgentRequest payload.
type CreateAgentRequest struct {
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	Type      domain.AgentType `json:"type"`
}

// UpdateAgentRequest payload; absent fields stay unchanged.
type UpdateAgentRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// AgentResponse represents an agent with derived availability.
type AgentResponse struct {
	ID          string             `json:"id"`
	FirstName   string             `json:"first_name"`
	LastName    string             `json:"last_name"`
	Email       string             `json:"email"`
	Type        domain.AgentType   `json:"type"`
	Status      domain.AgentStatus `json:"status"`
	OpenTickets int                `json:"open_tickets"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewAgentResponse maps a domain agent, leaving out the password hash.
func NewAgentResponse(a *domain.Agent) AgentResponse {
	return AgentResponse{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		Type:        a.Type,
		Status:      a.Status(),
		OpenTickets: a.OpenTickets,
		CreatedAt:   a.CreatedAt,
	}
}

// CreateCustomerRequest payload.
type CreateCustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// CustomerResponse represents a customer.
type CustomerResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCustomerResponse maps a domain customer.
func NewCustomerResponse(c *domain.Customer) CustomerResponse {
	return CustomerResponse{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName, Email: c.Email, CreatedAt: c.CreatedAt}
}
