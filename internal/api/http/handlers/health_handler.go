package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dispatch/internal/persistence"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, redis: redis}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

type pinger interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// probe returns the dependency state and whether it blocks readiness.
func probe(ctx context.Context, dep pinger, unconfigured string) (string, bool) {
	if !dep.Enabled() {
		return unconfigured, true
	}
	if err := dep.Ping(ctx); err != nil {
		return "unreachable", false
	}
	return "ok", true
}

// Ready reports readiness. Unconfigured dependencies are reported but never
// fail the probe: the service then runs on the in-memory store without a feed.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	pgState, pgOK := probe(ctx, h.postgres, "not configured (in-memory store)")
	redisState, redisOK := probe(ctx, h.redis, "not configured")
	deps := fiber.Map{"postgres": pgState, "redis": redisState}

	if !pgOK || !redisOK {
		return apperrors.NewDomainError("DEPENDENCY_UNAVAILABLE", "one or more dependencies unavailable", fiber.StatusServiceUnavailable, deps)
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": deps})
}
