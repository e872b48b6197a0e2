package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-dispatch/internal/api/dto"
	"github.com/spec-kit/helpdesk-dispatch/internal/dispatch"
	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	"github.com/spec-kit/helpdesk-dispatch/internal/observability"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
	"github.com/spec-kit/helpdesk-dispatch/internal/service"
	"github.com/spec-kit/helpdesk-dispatch/internal/worker"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

// DispatchHandler exposes the coordinator: manual activation, status,
// resolution log and the redis feed.
type DispatchHandler struct {
	launcher    *worker.DispatchLauncher
	coordinator *dispatch.Coordinator
	journal     *service.AuditJournal
	feed        *service.DispatchFeed
	metrics     *observability.Metrics
}

// NewDispatchHandler constructs handler.
func NewDispatchHandler(launcher *worker.DispatchLauncher, coordinator *dispatch.Coordinator, journal *service.AuditJournal, feed *service.DispatchFeed, metrics *observability.Metrics) *DispatchHandler {
	return &DispatchHandler{launcher: launcher, coordinator: coordinator, journal: journal, feed: feed, metrics: metrics}
}

// Activate POST /dispatch/activations.
func (h *DispatchHandler) Activate(c *fiber.Ctx) error {
	err := h.launcher.Trigger()
	switch {
	case errors.Is(err, worker.ErrActivationRunning):
		return apperrors.NewConflict("dispatch activation already running", nil)
	case errors.Is(err, worker.ErrTriggerThrottled):
		return apperrors.NewTooManyRequests("too many dispatch triggers")
	case err != nil:
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"status": "accepted"}})
}

// Status GET /dispatch/status.
func (h *DispatchHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.DispatchStatusResponse{
		Running:  h.launcher.Running(),
		GateBusy: h.coordinator.Busy(),
	}})
}

// ListEvents GET /dispatch/events?action=&ticket_id=&limit=&offset=.
func (h *DispatchHandler) ListEvents(c *fiber.Ctx) error {
	ticketID, err := uuidQuery(c, "ticket_id")
	if err != nil {
		return err
	}
	filter := repository.DispatchEventFilter{
		TicketID: ticketID,
		Limit:    c.QueryInt("limit", 100),
		Offset:   c.QueryInt("offset", 0),
	}
	if raw := optionalQuery(c, "action"); raw != nil {
		action := domain.DispatchAction(strings.ToUpper(*raw))
		if action != domain.DispatchAssigned && action != domain.DispatchResolved {
			return apperrors.NewValidationError("invalid action filter", map[string]any{"action": *raw})
		}
		filter.Action = &action
	}
	events, err := h.journal.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.DispatchEventResponse, 0, len(events))
	for i := range events {
		items = append(items, dto.NewDispatchEventResponse(&events[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Feed GET /dispatch/feed?limit=.
func (h *DispatchHandler) Feed(c *fiber.Ctx) error {
	entries, err := h.feed.Recent(c.UserContext(), int64(c.QueryInt("limit", 20)))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// Metrics GET /metrics.
func (h *DispatchHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
