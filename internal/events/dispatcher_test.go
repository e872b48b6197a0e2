package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
)

func TestDispatcher_PublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")

	var calls []string
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventTicketAssigned, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventTicketResolved, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketAssigned})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcher_PublishWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventTicketCreated}))
}

func TestFromDispatchEvent(t *testing.T) {
	at := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	ticket := domain.Ticket{ID: "t-1", Summary: "vpn", Priority: domain.TicketPriorityHigh}
	agent := &domain.Agent{ID: "a-1", FirstName: "Ana", LastName: "Kovac"}

	event := FromDispatchEvent(domain.NewDispatchEvent(domain.DispatchResolved, ticket, agent, at))
	assert.Equal(t, EventTicketResolved, event.Type)
	assert.Equal(t, "t-1", event.TicketID)
	assert.Equal(t, at, event.Timestamp)

	payload, ok := event.Payload.(DispatchPayload)
	require.True(t, ok)
	assert.Equal(t, domain.DispatchResolved, payload.Action)
	require.NotNil(t, payload.AgentID)
	assert.Equal(t, "a-1", *payload.AgentID)
	assert.Equal(t, "Ticket (ID: t-1) has been RESOLVED by agent (ID: a-1) at 02.01.2024. 15:04:05", payload.Line)
}
