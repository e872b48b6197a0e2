package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-dispatch/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-dispatch/internal/auth"
	"github.com/spec-kit/helpdesk-dispatch/internal/config"
	"github.com/spec-kit/helpdesk-dispatch/internal/dispatch"
	"github.com/spec-kit/helpdesk-dispatch/internal/events"
	"github.com/spec-kit/helpdesk-dispatch/internal/observability"
	"github.com/spec-kit/helpdesk-dispatch/internal/persistence"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
	"github.com/spec-kit/helpdesk-dispatch/internal/service"
	"github.com/spec-kit/helpdesk-dispatch/internal/worker"
)

const (
	rootEmail    = "root@example.com"
	rootPassword = "changeme1"
)

type testServer struct {
	app      *fiber.App
	launcher *worker.DispatchLauncher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := repository.NewMemoryStore()
	metrics := observability.NewMetrics()
	bus := events.NewInMemoryDispatcher()
	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}

	authService := service.NewAuthService(authCfg, store.Agents(), logger)
	require.NoError(t, authService.EnsureBootstrapAgent(context.Background(), rootEmail, rootPassword))

	journal := service.NewAuditJournal(store.DispatchEvents(), bus, logger)
	feed := service.NewDispatchFeed(bus, nil, config.RedisConfig{}, logger)
	coordinator := dispatch.NewCoordinator(
		repository.NewDispatchStore(store.Tickets(), store.Agents()),
		journal,
		logger,
		dispatch.WithPace(0),
		dispatch.WithMetrics(metrics),
	)
	launcher := worker.NewDispatchLauncher(coordinator, config.DispatchConfig{}, logger)
	launcher.Start(context.Background())
	t.Cleanup(launcher.Wait)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("helpdesk-dispatch", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:      handlers.NewAuthHandler(authService),
		Agents:    handlers.NewAgentsHandler(service.NewAgentService(store.Agents(), store.EntityChanges(), bcrypt.MinCost)),
		Customers: handlers.NewCustomersHandler(service.NewCustomerService(store.Customers())),
		Tickets: handlers.NewTicketsHandler(service.NewTicketService(service.TicketDependencies{
			TicketRepo:   store.Tickets(),
			CustomerRepo: store.Customers(),
			ChangeRepo:   store.EntityChanges(),
			Dispatcher:   bus,
			Logger:       logger,
		})),
		Dispatch:       handlers.NewDispatchHandler(launcher, coordinator, journal, feed, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Agents()),
	})
	return &testServer{app: app, launcher: launcher}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env := s.do(t, stdhttp.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, stdhttp.StatusOK, status)
	return decode[struct {
		AccessToken string `json:"access_token"`
	}](t, env.Data).AccessToken
}

type idOnly struct {
	ID string `json:"id"`
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, stdhttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, stdhttp.StatusOK, status)

	status, _ = s.do(t, stdhttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, stdhttp.StatusOK, status)

	status, env := s.do(t, stdhttp.MethodGet, "/nope", "", nil)
	assert.Equal(t, stdhttp.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRouter_AuthAndRoles(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, stdhttp.MethodPost, "/auth/login", "", map[string]string{"email": rootEmail, "password": "nope"})
	assert.Equal(t, stdhttp.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = s.do(t, stdhttp.MethodGet, "/tickets", "", nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, status)

	root := s.login(t, rootEmail, rootPassword)
	status, _ = s.do(t, stdhttp.MethodPost, "/agents", root, map[string]string{
		"first_name": "Ana", "last_name": "Kovac", "email": "ana@example.com", "password": "password1", "type": "AGENT",
	})
	require.Equal(t, stdhttp.StatusCreated, status)

	ana := s.login(t, "ana@example.com", "password1")
	status, env = s.do(t, stdhttp.MethodPost, "/dispatch/activations", ana, nil)
	assert.Equal(t, stdhttp.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = s.do(t, stdhttp.MethodGet, "/agents", ana, nil)
	require.Equal(t, stdhttp.StatusOK, status)
	agents := decode[[]struct {
		Email  string `json:"email"`
		Status string `json:"status"`
	}](t, env.Data)
	require.Len(t, agents, 2)
	assert.Equal(t, "AVAILABLE", agents[1].Status)
}

func TestRouter_TicketEditsAreLogged(t *testing.T) {
	s := newTestServer(t)
	root := s.login(t, rootEmail, rootPassword)

	status, env := s.do(t, stdhttp.MethodPost, "/customers", root, map[string]string{
		"first_name": "Iva", "last_name": "Horvat", "email": "iva@example.com",
	})
	require.Equal(t, stdhttp.StatusCreated, status)
	customer := decode[idOnly](t, env.Data)

	status, env = s.do(t, stdhttp.MethodPost, "/tickets", root, map[string]string{
		"summary": "printer jam", "customer_id": customer.ID, "priority": "LOW",
	})
	require.Equal(t, stdhttp.StatusCreated, status)
	ticket := decode[idOnly](t, env.Data)

	status, env = s.do(t, stdhttp.MethodPost, "/tickets", root, map[string]string{"summary": ""})
	assert.Equal(t, stdhttp.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "summary")

	status, _ = s.do(t, stdhttp.MethodPatch, "/tickets/"+ticket.ID, root, map[string]string{"priority": "HIGH"})
	require.Equal(t, stdhttp.StatusOK, status)

	status, env = s.do(t, stdhttp.MethodGet, "/changes?entity=ticket&entity_id="+ticket.ID, root, nil)
	require.Equal(t, stdhttp.StatusOK, status)
	changes := decode[[]struct {
		Field    string `json:"field"`
		OldValue string `json:"old_value"`
		NewValue string `json:"new_value"`
	}](t, env.Data)
	require.Len(t, changes, 1)

	status, _ = s.do(t, stdhttp.MethodGet, "/changes?entity=ticket&entity_id=42", root, nil)
	assert.Equal(t, stdhttp.StatusBadRequest, status)
	assert.Equal(t, "PRIORITY", changes[0].Field)
	assert.Equal(t, "LOW", changes[0].OldValue)
	assert.Equal(t, "HIGH", changes[0].NewValue)

	status, _ = s.do(t, stdhttp.MethodDelete, "/tickets/"+ticket.ID, root, nil)
	assert.Equal(t, stdhttp.StatusNoContent, status)
	status, _ = s.do(t, stdhttp.MethodGet, "/tickets/"+ticket.ID, root, nil)
	assert.Equal(t, stdhttp.StatusNotFound, status)
}

func TestRouter_ManualActivation(t *testing.T) {
	s := newTestServer(t)
	root := s.login(t, rootEmail, rootPassword)

	status, env := s.do(t, stdhttp.MethodPost, "/customers", root, map[string]string{
		"first_name": "Iva", "last_name": "Horvat", "email": "iva@example.com",
	})
	require.Equal(t, stdhttp.StatusCreated, status)
	customer := decode[idOnly](t, env.Data)

	status, env = s.do(t, stdhttp.MethodPost, "/tickets", root, map[string]string{
		"summary": "vpn down", "customer_id": customer.ID, "priority": "HIGH",
	})
	require.Equal(t, stdhttp.StatusCreated, status)
	ticket := decode[idOnly](t, env.Data)

	status, _ = s.do(t, stdhttp.MethodPost, "/dispatch/activations", root, nil)
	require.Equal(t, stdhttp.StatusAccepted, status)
	require.Eventually(t, func() bool { return !s.launcher.Running() }, 5*time.Second, 10*time.Millisecond)

	status, env = s.do(t, stdhttp.MethodGet, "/tickets/"+ticket.ID, root, nil)
	require.Equal(t, stdhttp.StatusOK, status)
	got := decode[struct {
		Status          string  `json:"status"`
		AssignedAgentID *string `json:"assigned_agent_id"`
	}](t, env.Data)
	assert.NotEqual(t, "OPEN", got.Status)
	assert.NotNil(t, got.AssignedAgentID)

	status, env = s.do(t, stdhttp.MethodGet, "/dispatch/events?action=assigned", root, nil)
	require.Equal(t, stdhttp.StatusOK, status)
	logged := decode[[]struct {
		TicketID string `json:"ticket_id"`
		Line     string `json:"line"`
	}](t, env.Data)
	require.Len(t, logged, 1)
	assert.Equal(t, ticket.ID, logged[0].TicketID)
	assert.Contains(t, logged[0].Line, "has been ASSIGNED to agent")

	status, _ = s.do(t, stdhttp.MethodGet, "/dispatch/events?action=bogus", root, nil)
	assert.Equal(t, stdhttp.StatusBadRequest, status)

	status, env = s.do(t, stdhttp.MethodGet, "/dispatch/events?ticket_id=not-a-uuid", root, nil)
	assert.Equal(t, stdhttp.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "ticket_id")

	status, env = s.do(t, stdhttp.MethodGet, "/dispatch/events?limit=9223372036854775807&offset=1", root, nil)
	require.Equal(t, stdhttp.StatusOK, status)
	assert.Empty(t, decode[[]json.RawMessage](t, env.Data))

	status, env = s.do(t, stdhttp.MethodGet, "/dispatch/status", root, nil)
	require.Equal(t, stdhttp.StatusOK, status)
	assert.False(t, decode[struct {
		Running bool `json:"running"`
	}](t, env.Data).Running)

	status, env = s.do(t, stdhttp.MethodGet, "/dispatch/feed", root, nil)
	assert.Equal(t, stdhttp.StatusServiceUnavailable, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FEED_UNAVAILABLE", env.Error.Code)

	status, _ = s.do(t, stdhttp.MethodGet, "/metrics", "", nil)
	assert.Equal(t, stdhttp.StatusOK, status)
}
