package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-dispatch/internal/api/dto"
	"github.com/spec-kit/helpdesk-dispatch/internal/auth"
	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
	"github.com/spec-kit/helpdesk-dispatch/internal/service"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

// TicketsHandler manages ticket intake, edits and the change log.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), principal.Agent.ID, service.TicketCreateInput{
		Summary:     req.Summary,
		Description: req.Description,
		Priority:    req.Priority,
		CustomerID:  req.CustomerID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /tickets?status=&agent_id=&customer_id=&limit=&offset=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := repository.TicketFilter{
		AgentID:    optionalQuery(c, "agent_id"),
		CustomerID: optionalQuery(c, "customer_id"),
		Limit:      c.QueryInt("limit", 50),
		Offset:     c.QueryInt("offset", 0),
	}
	if status := optionalQuery(c, "status"); status != nil {
		s := domain.TicketStatus(strings.ToUpper(*status))
		filter.Status = &s
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), principal.Agent.ID, c.Params("id"), service.TicketUpdateInput{
		Summary:     req.Summary,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListChanges GET /changes?entity=TICKET|AGENT&entity_id=.
func (h *TicketsHandler) ListChanges(c *fiber.Ctx) error {
	entity := domain.ChangedEntity(strings.ToUpper(c.Query("entity", string(domain.ChangedEntityTicket))))
	entityID, err := uuidQuery(c, "entity_id")
	if err != nil {
		return err
	}
	changes, err := h.service.ListChanges(c.UserContext(), entity, entityID)
	if err != nil {
		return err
	}
	items := make([]dto.EntityChangeResponse, 0, len(changes))
	for i := range changes {
		items = append(items, dto.NewEntityChangeResponse(&changes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Agent == nil {
		return nil, apperrors.NewUnauthorized("agent required")
	}
	return principal, nil
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil
	}
	return &value
}

// uuidQuery is optionalQuery for id filters; a malformed id is a validation error.
func uuidQuery(c *fiber.Ctx, key string) (*string, error) {
	value := optionalQuery(c, key)
	if value == nil {
		return nil, nil
	}
	if _, err := uuid.Parse(*value); err != nil {
		return nil, apperrors.NewValidationError("invalid id filter", map[string]any{key: "must be a UUID"})
	}
	return value, nil
}
