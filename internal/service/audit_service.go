package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/events"
	"github.com/spec-kit/snowsync/internal/observability"
	"github.com/spec-kit/snowsync/internal/repository"
)

// AuditService records every cross-system write published on the dispatcher.
type AuditService struct {
	dispatcher events.Dispatcher
	journal    repository.SyncJournalRepository
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, journal repository.SyncJournalRepository, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	if journal == nil {
		journal = repository.NewSyncJournalRepository(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		journal:    journal,
		metrics:    metrics,
		logger:     logger,
	}
}

var changeTypes = map[events.EventType]domain.SyncChangeType{
	events.EventIncidentCreated:   domain.ChangeIncidentCreated,
	events.EventIncidentUpdated:   domain.ChangeIncidentUpdated,
	events.EventRequestCreated:    domain.ChangeRequestCreated,
	events.EventRequestCommented:  domain.ChangeRequestCommented,
	events.EventAttachmentRelayed: domain.ChangeAttachmentRelayed,
	events.EventAttachmentFailed:  domain.ChangeAttachmentFailed,
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventIncidentCreated, a.handleSync)
	a.dispatcher.Subscribe(events.EventIncidentUpdated, a.handleSync)
	a.dispatcher.Subscribe(events.EventRequestCreated, a.handleSync)
	a.dispatcher.Subscribe(events.EventRequestCommented, a.handleSync)
	a.dispatcher.Subscribe(events.EventAttachmentRelayed, a.handleAttachment)
	a.dispatcher.Subscribe(events.EventAttachmentFailed, a.handleAttachment)
}

func (a *AuditService) handleSync(ctx context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("ticket_ref", event.TicketRef),
		zap.String("counterpart_ref", event.CounterpartRef))
	return a.append(ctx, event)
}

func (a *AuditService) handleAttachment(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.AttachmentPayload)
	ok := event.Type == events.EventAttachmentRelayed
	a.metrics.RecordTransfer(ctx, payload.Direction, ok)

	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("ticket_ref", event.TicketRef),
		zap.String("direction", payload.Direction),
		zap.String("key", payload.Key),
	}
	if ok {
		a.logger.Info(string(event.Type), fields...)
	} else {
		a.logger.Warn(string(event.Type), append(fields, zap.String("error", payload.Error))...)
	}
	return a.append(ctx, event)
}

func (a *AuditService) append(ctx context.Context, event events.Event) error {
	payload, err := payloadMap(event.Payload)
	if err != nil {
		return fmt.Errorf("journal %s: %w", event.ID, err)
	}
	entry := &domain.SyncJournalEntry{
		EventID:        event.ID,
		Source:         event.Source,
		ChangeType:     changeTypes[event.Type],
		TicketRef:      event.TicketRef,
		CounterpartRef: event.CounterpartRef,
		Payload:        payload,
	}
	if err := a.journal.Append(ctx, entry); err != nil {
		return fmt.Errorf("journal %s: %w", event.ID, err)
	}
	return nil
}

func payloadMap(payload any) (map[string]any, error) {
	if payload == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
