package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dispatch/internal/domain"
	"github.com/spec-kit/helpdesk-dispatch/internal/events"
	"github.com/spec-kit/helpdesk-dispatch/internal/repository"
)

// AuditJournal is the dispatch coordinator's audit log. It persists every
// event first and then announces it on the events bus.
type AuditJournal struct {
	repo       repository.DispatchEventRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditJournal constructs the journal. dispatcher may be nil.
func NewAuditJournal(repo repository.DispatchEventRepository, dispatcher events.Dispatcher, logger *zap.Logger) *AuditJournal {
	return &AuditJournal{repo: repo, dispatcher: dispatcher, logger: logger}
}

// Append stores event. Subscriber failures are logged and never fail the append.
func (j *AuditJournal) Append(ctx context.Context, event *domain.DispatchEvent) error {
	if err := j.repo.Append(ctx, event); err != nil {
		return err
	}
	if j.dispatcher == nil {
		return nil
	}
	if err := j.dispatcher.Publish(ctx, events.FromDispatchEvent(event)); err != nil {
		j.logger.Warn("dispatch event subscribers failed",
			zap.String("event_id", event.ID),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
	return nil
}

// List returns dispatch events newest first.
func (j *AuditJournal) List(ctx context.Context, filter repository.DispatchEventFilter) ([]domain.DispatchEvent, error) {
	return j.repo.List(ctx, filter)
}
