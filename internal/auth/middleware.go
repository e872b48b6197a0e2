package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal is the authenticated agent behind a request.
type Principal struct {
	Agent *domain.Agent
	Token domain.Token
}

// IsSuperAgent reports whether the caller holds the SUPERAGENT tier.
func (p *Principal) IsSuperAgent() bool {
	return p != nil && p.Agent != nil && p.Agent.Type == domain.AgentTypeSuperAgent
}

// AuthMiddleware validates bearer tokens and loads the calling agent.
type AuthMiddleware struct {
	tokens *TokenManager
	agents repository.AgentRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, agents repository.AgentRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, agents: agents}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(raw))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	// The stored tier wins over the one in the token so demotions apply immediately.
	agent, err := m.agents.GetByID(c.UserContext(), claims.RegisteredClaims.Subject)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewUnauthorized("agent not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{Agent: agent, Token: claims.Token()})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated agent.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil
}
