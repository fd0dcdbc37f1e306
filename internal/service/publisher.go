package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/clock"
	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/events"
)

// publisher stamps and dispatches sync events. Dispatch failures are logged
// and never fail the operation that produced the event.
type publisher struct {
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

func newPublisher(dispatcher events.Dispatcher, clk clock.Clock, logger *zap.Logger) publisher {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return publisher{dispatcher: dispatcher, clock: clk, logger: logger}
}

func (p publisher) publish(ctx context.Context, eventType events.EventType, source domain.TicketSystem, ticketRef, counterpartRef string, payload any) {
	if p.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:             uuid.NewString(),
		Type:           eventType,
		Source:         source,
		TicketRef:      ticketRef,
		CounterpartRef: counterpartRef,
		Timestamp:      p.clock.Now().UTC().Truncate(time.Millisecond),
		Payload:        payload,
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event handler failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_ref", ticketRef),
			zap.Error(err))
	}
}
