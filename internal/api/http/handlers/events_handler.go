package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/snowsync/internal/api/lambda"
	"github.com/spec-kit/snowsync/internal/service"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

// Relay moves a batch of bucket objects to one ticketing system.
type Relay func(ctx context.Context, records []service.ObjectRecord) service.RelayReport

// EventsHandler accepts S3 event notifications posted as JSON, for
// deployments where the bucket notifies over HTTP instead of Lambda.
type EventsHandler struct {
	relays map[string]Relay
}

// NewEventsHandler maps a path direction ("jsd", "snow") to its relay.
func NewEventsHandler(relays map[string]Relay) *EventsHandler {
	return &EventsHandler{relays: relays}
}

// Handle relays every record in the posted event.
func (h *EventsHandler) Handle(c *fiber.Ctx) error {
	direction := c.Params("direction")
	relay, ok := h.relays[direction]
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("unknown relay direction %q", direction))
	}

	var event events.S3Event
	if err := json.Unmarshal(c.Body(), &event); err != nil {
		return errorutil.NewValidationError(fmt.Sprintf("`body` is not valid JSON: %s", c.Body()))
	}

	report := relay(c.UserContext(), lambda.ObjectRecords(event))
	return c.JSON(fiber.Map{
		"ok":      true,
		"relayed": report.Relayed,
		"failed":  report.Failed,
	})
}
