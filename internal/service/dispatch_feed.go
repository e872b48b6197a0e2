package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-dispatch/internal/config"
	"github.com/spec-kit/helpdesk-dispatch/internal/events"
	apperrors "github.com/spec-kit/helpdesk-dispatch/pkg/util/errorutil"
)

const defaultFeedLength = 100

// FeedList is the subset of the redis client the feed uses.
type FeedList interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// FeedEntry is one mirrored bus event.
type FeedEntry struct {
	ID        string           `json:"id"`
	Type      events.EventType `json:"type"`
	TicketID  string           `json:"ticket_id"`
	Timestamp time.Time        `json:"timestamp"`
	Line      string           `json:"line"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
}

// DispatchFeed mirrors ticket intake, edits, assignments and resolutions into
// a capped redis list.
type DispatchFeed struct {
	dispatcher events.Dispatcher
	client     FeedList
	key        string
	length     int64
	logger     *zap.Logger
}

// NewDispatchFeed creates the feed. A nil client leaves the feed disabled.
func NewDispatchFeed(dispatcher events.Dispatcher, client FeedList, cfg config.RedisConfig, logger *zap.Logger) *DispatchFeed {
	length := cfg.FeedLength
	if length <= 0 {
		length = defaultFeedLength
	}
	key := cfg.FeedKey
	if key == "" {
		key = "dispatch:feed"
	}
	return &DispatchFeed{dispatcher: dispatcher, client: client, key: key, length: length, logger: logger}
}

// RegisterHandlers subscribes to ticket and dispatch events.
func (f *DispatchFeed) RegisterHandlers() {
	if f.dispatcher == nil || f.client == nil {
		return
	}
	f.dispatcher.Subscribe(events.EventTicketCreated, f.handleEvent)
	f.dispatcher.Subscribe(events.EventTicketEdited, f.handleEvent)
	f.dispatcher.Subscribe(events.EventTicketAssigned, f.handleEvent)
	f.dispatcher.Subscribe(events.EventTicketResolved, f.handleEvent)
}

func (f *DispatchFeed) handleEvent(ctx context.Context, event events.Event) error {
	line, err := feedLine(event)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(FeedEntry{
		ID:        event.ID,
		Type:      event.Type,
		TicketID:  event.TicketID,
		Timestamp: event.Timestamp,
		Line:      line,
		Payload:   payload,
	})
	if err != nil {
		return err
	}
	if err := f.client.LPush(ctx, f.key, raw).Err(); err != nil {
		f.logger.Warn("dispatch feed push failed", zap.String("ticket_id", event.TicketID), zap.Error(err))
		return err
	}
	if err := f.client.LTrim(ctx, f.key, 0, f.length-1).Err(); err != nil {
		f.logger.Warn("dispatch feed trim failed", zap.Error(err))
		return err
	}
	f.logger.Debug("dispatch feed updated", zap.String("ticket_id", event.TicketID), zap.String("type", string(event.Type)))
	return nil
}

func feedLine(event events.Event) (string, error) {
	switch payload := event.Payload.(type) {
	case events.DispatchPayload:
		return payload.Line, nil
	case events.TicketCreatedPayload:
		return fmt.Sprintf("Ticket (ID: %s) has been CREATED with priority %s", event.TicketID, payload.Priority), nil
	case events.TicketEditedPayload:
		fields := make([]string, 0, len(payload.Fields))
		for _, field := range payload.Fields {
			fields = append(fields, string(field))
		}
		return fmt.Sprintf("Ticket (ID: %s) has been EDITED (%s)", event.TicketID, strings.Join(fields, ", ")), nil
	default:
		return "", fmt.Errorf("dispatch feed: unexpected payload %T for %s", event.Payload, event.Type)
	}
}

// Recent returns up to limit entries, newest first.
func (f *DispatchFeed) Recent(ctx context.Context, limit int64) ([]FeedEntry, error) {
	if f.client == nil {
		return nil, apperrors.NewDomainError("FEED_UNAVAILABLE", "dispatch feed is not configured", http.StatusServiceUnavailable, nil)
	}
	if limit <= 0 || limit > f.length {
		limit = f.length
	}
	raws, err := f.client.LRange(ctx, f.key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]FeedEntry, 0, len(raws))
	for _, raw := range raws {
		var entry FeedEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			f.logger.Warn("skipping malformed feed entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
