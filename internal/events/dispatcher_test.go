package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishInvokesEverySubscriber(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string
	d.Subscribe(EventIncidentCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.TicketRef)
		return errors.New("journal down")
	})
	d.Subscribe(EventIncidentCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.TicketRef)
		return nil
	})
	d.Subscribe(EventRequestCreated, func(context.Context, Event) error {
		seen = append(seen, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIncidentCreated, TicketRef: "FSD-1"})

	assert.EqualError(t, err, "journal down")
	assert.Equal(t, []string{"first:FSD-1", "second:FSD-1"}, seen)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	assert.NoError(t, NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventAttachmentFailed}))
}
