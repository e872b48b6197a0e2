package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-dispatch/internal/config"
	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	"github.com/spec-kit/helpdesk-dispatch/internal/events"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

func errorCode(err error) string {
	return apperrors.ToDomainError(err).Code
}

func TestAuthService_LoginAndBootstrap(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAuthService(config.AuthConfig{JWTSecret: "secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}, store.Agents(), zaptest.NewLogger(t))

	require.NoError(t, svc.EnsureBootstrapAgent(ctx, " Root@Example.com ", "changeme1"))
	require.NoError(t, svc.EnsureBootstrapAgent(ctx, "root@example.com", "changeme1"), "second call is a no-op")
	require.NoError(t, svc.EnsureBootstrapAgent(ctx, "", ""))

	agents, err := store.Agents().List(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, domain.AgentTypeSuperAgent, agents[0].Type)

	agent, token, exp, err := svc.Login(ctx, "ROOT@example.com", "changeme1")
	require.NoError(t, err)
	assert.Equal(t, agents[0].ID, agent.ID)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.AgentTypeSuperAgent, claims.Role)

	_, _, _, err = svc.Login(ctx, "root@example.com", "wrong")
	assert.Equal(t, "UNAUTHORIZED", errorCode(err))
	_, _, _, err = svc.Login(ctx, "nobody@example.com", "changeme1")
	assert.Equal(t, "UNAUTHORIZED", errorCode(err))
	_, _, _, err = svc.Login(ctx, "", "")
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
}

func TestAgentService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewAgentService(store.Agents(), store.EntityChanges(), bcrypt.MinCost)

	_, err := svc.CreateAgent(ctx, AgentCreateInput{Email: "bad", Password: "short"})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))

	agent, err := svc.CreateAgent(ctx, AgentCreateInput{FirstName: "Ana", LastName: "Kovac", Email: "ana@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, domain.AgentTypeAgent, agent.Type)
	assert.NotEqual(t, "password1", agent.PasswordHash)

	_, err = svc.CreateAgent(ctx, AgentCreateInput{FirstName: "Ana", LastName: "Dup", Email: "ana@example.com", Password: "password1"})
	assert.Equal(t, "CONFLICT", errorCode(err))

	first, same := "Anna", "Kovac"
	updated, err := svc.UpdateAgent(ctx, "editor-1", agent.ID, AgentUpdateInput{FirstName: &first, LastName: &same})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.FirstName)

	changes, err := store.EntityChanges().List(ctx, domain.ChangedEntityAgent, &agent.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.FieldFirstName, changes[0].Field)
	assert.Equal(t, "Ana", changes[0].OldValue)
	assert.Equal(t, "Anna", changes[0].NewValue)
	assert.Equal(t, "editor-1", changes[0].ChangedByID)

	_, err = svc.GetAgent(ctx, "missing")
	assert.Equal(t, "NOT_FOUND", errorCode(err))
}

func newTicketService(t *testing.T, store *repository.MemoryStore, dispatcher events.Dispatcher) *TicketService {
	t.Helper()
	return NewTicketService(TicketDependencies{
		TicketRepo:   store.Tickets(),
		CustomerRepo: store.Customers(),
		ChangeRepo:   store.EntityChanges(),
		Dispatcher:   dispatcher,
		Logger:       zaptest.NewLogger(t),
	})
}

func TestTicketService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()

	var published []events.Event
	for _, et := range []events.EventType{events.EventTicketCreated, events.EventTicketEdited} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			published = append(published, e)
			return nil
		})
	}

	customer, err := NewCustomerService(store.Customers()).CreateCustomer(ctx, "Iva", "Horvat", "iva@example.com")
	require.NoError(t, err)

	svc := newTicketService(t, store, dispatcher)

	_, err = svc.CreateTicket(ctx, "agent-1", TicketCreateInput{Summary: "vpn", CustomerID: "missing"})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
	_, err = svc.CreateTicket(ctx, "agent-1", TicketCreateInput{Summary: "vpn", CustomerID: customer.ID, Priority: "URGENT"})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))

	ticket, err := svc.CreateTicket(ctx, "agent-1", TicketCreateInput{Summary: " vpn down ", CustomerID: customer.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityNormal, ticket.Priority)
	assert.Equal(t, "vpn down", ticket.Summary)

	high := domain.TicketPriorityHigh
	description := "office wide"
	updated, err := svc.UpdateTicket(ctx, "agent-1", ticket.ID, TicketUpdateInput{Priority: &high, Description: &description})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)

	changes, err := svc.ListChanges(ctx, domain.ChangedEntityTicket, &ticket.ID)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	fields := []domain.ChangedField{changes[0].Field, changes[1].Field}
	assert.ElementsMatch(t, []domain.ChangedField{domain.FieldPriority, domain.FieldDescription}, fields)

	_, err = svc.ListChanges(ctx, "CUSTOMER", nil)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))

	require.Len(t, published, 2)
	assert.Equal(t, events.EventTicketCreated, published[0].Type)
	assert.Equal(t, events.EventTicketEdited, published[1].Type)

	status := domain.TicketStatusOpen
	open, err := svc.ListTickets(ctx, repository.TicketFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, open, 1)

	bogus := domain.TicketStatus("DONE")
	_, err = svc.ListTickets(ctx, repository.TicketFilter{Status: &bogus})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))

	require.NoError(t, svc.DeleteTicket(ctx, ticket.ID))
	_, err = svc.GetTicket(ctx, ticket.ID)
	assert.Equal(t, "NOT_FOUND", errorCode(err))
	assert.Equal(t, "NOT_FOUND", errorCode(svc.DeleteTicket(ctx, ticket.ID)))
}

func TestTicketService_UpdateWithoutChanges(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	customer, err := NewCustomerService(store.Customers()).CreateCustomer(ctx, "Iva", "Horvat", "iva@example.com")
	require.NoError(t, err)
	svc := newTicketService(t, store, nil)

	ticket, err := svc.CreateTicket(ctx, "", TicketCreateInput{Summary: "printer", CustomerID: customer.ID})
	require.NoError(t, err)

	same := "printer"
	_, err = svc.UpdateTicket(ctx, "agent-1", ticket.ID, TicketUpdateInput{Summary: &same})
	require.NoError(t, err)

	changes, err := svc.ListChanges(ctx, domain.ChangedEntityTicket, nil)
	require.NoError(t, err)
	assert.Empty(t, changes)

	empty := "  "
	_, err = svc.UpdateTicket(ctx, "agent-1", ticket.ID, TicketUpdateInput{Summary: &empty})
	assert.Equal(t, "VALIDATION_FAILED", errorCode(err))
}

// fakeList is an in-process stand-in for the redis list commands.
type fakeList struct {
	mu      sync.Mutex
	items   map[string][]string
	pushErr error
}

func newFakeList() *fakeList {
	return &fakeList{items: make(map[string][]string)}
}

func (l *fakeList) LPush(_ context.Context, key string, values ...any) *redis.IntCmd {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pushErr != nil {
		return redis.NewIntResult(0, l.pushErr)
	}
	for _, v := range values {
		var s string
		switch val := v.(type) {
		case []byte:
			s = string(val)
		case string:
			s = val
		}
		l.items[key] = append([]string{s}, l.items[key]...)
	}
	return redis.NewIntResult(int64(len(l.items[key])), nil)
}

func (l *fakeList) LTrim(_ context.Context, key string, start, stop int64) *redis.StatusCmd {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := l.items[key]
	if stop+1 < int64(len(items)) {
		items = items[:stop+1]
	}
	l.items[key] = items[start:]
	return redis.NewStatusResult("OK", nil)
}

func (l *fakeList) LRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := l.items[key]
	if stop+1 < int64(len(items)) {
		items = items[:stop+1]
	}
	if start > int64(len(items)) {
		start = int64(len(items))
	}
	return redis.NewStringSliceResult(append([]string(nil), items[start:]...), nil)
}

func TestAuditJournalFeedsRedisList(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	list := newFakeList()

	feed := NewDispatchFeed(dispatcher, list, config.RedisConfig{FeedKey: "feed", FeedLength: 2}, zaptest.NewLogger(t))
	feed.RegisterHandlers()
	journal := NewAuditJournal(store.DispatchEvents(), dispatcher, zaptest.NewLogger(t))

	agent := &domain.Agent{ID: "a-1", FirstName: "Ana"}
	at := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"t-1", "t-2", "t-3"} {
		ticket := domain.Ticket{ID: id, Priority: domain.TicketPriorityHigh}
		require.NoError(t, journal.Append(ctx, domain.NewDispatchEvent(domain.DispatchAssigned, ticket, agent, at)))
	}

	stored, err := journal.List(ctx, repository.DispatchEventFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 3)

	entries, err := feed.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "feed is capped")
	assert.Equal(t, "t-3", entries[0].TicketID)
	assert.Equal(t, "t-2", entries[1].TicketID)
	assert.Equal(t, events.EventTicketAssigned, entries[0].Type)
	assert.Equal(t, "Ticket (ID: t-3) has been ASSIGNED to agent (ID: a-1) at 01.05.2024. 09:00:00", entries[0].Line)
}

func TestAuditJournal_FeedFailureDoesNotFailAppend(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	list := newFakeList()
	list.pushErr = errors.New("redis down")

	NewDispatchFeed(dispatcher, list, config.RedisConfig{}, zaptest.NewLogger(t)).RegisterHandlers()
	journal := NewAuditJournal(store.DispatchEvents(), dispatcher, zaptest.NewLogger(t))

	event := domain.NewDispatchEvent(domain.DispatchResolved, domain.Ticket{ID: "t-1"}, nil, time.Now())
	require.NoError(t, journal.Append(ctx, event))

	stored, err := journal.List(ctx, repository.DispatchEventFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestDispatchFeed_Disabled(t *testing.T) {
	feed := NewDispatchFeed(events.NewInMemoryDispatcher(), nil, config.RedisConfig{}, zaptest.NewLogger(t))
	feed.RegisterHandlers()
	_, err := feed.Recent(context.Background(), 5)
	assert.Equal(t, "FEED_UNAVAILABLE", errorCode(err))
}

func TestDispatchFeed_MirrorsTicketActivity(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	list := newFakeList()
	feed := NewDispatchFeed(dispatcher, list, config.RedisConfig{}, zaptest.NewLogger(t))
	feed.RegisterHandlers()

	customer, err := NewCustomerService(store.Customers()).CreateCustomer(ctx, "Iva", "Horvat", "iva@example.com")
	require.NoError(t, err)
	svc := newTicketService(t, store, dispatcher)

	ticket, err := svc.CreateTicket(ctx, "agent-1", TicketCreateInput{Summary: "vpn", CustomerID: customer.ID, Priority: domain.TicketPriorityLow})
	require.NoError(t, err)
	high := domain.TicketPriorityHigh
	_, err = svc.UpdateTicket(ctx, "agent-1", ticket.ID, TicketUpdateInput{Priority: &high})
	require.NoError(t, err)

	entries, err := feed.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, events.EventTicketEdited, entries[0].Type)
	assert.Equal(t, "Ticket (ID: "+ticket.ID+") has been EDITED (PRIORITY)", entries[0].Line)
	assert.Equal(t, events.EventTicketCreated, entries[1].Type)
	assert.Equal(t, "Ticket (ID: "+ticket.ID+") has been CREATED with priority LOW", entries[1].Line)
	assert.JSONEq(t, `{"customer_id":"`+customer.ID+`","priority":"LOW","summary":"vpn"}`, string(entries[1].Payload))
}
