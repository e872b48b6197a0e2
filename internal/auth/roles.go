package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

// RequireAgentType ensures the caller is one of the allowed tiers.
// With no tiers given any authenticated agent passes.
func RequireAgentType(allowed ...domain.AgentType) fiber.Handler {
	allowedSet := make(map[domain.AgentType]struct{}, len(allowed))
	for _, t := range allowed {
		allowedSet[t] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Agent == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Agent.Type]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireSuperAgent is RequireAgentType restricted to SUPERAGENT.
func RequireSuperAgent() fiber.Handler {
	return RequireAgentType(domain.AgentTypeSuperAgent)
}
