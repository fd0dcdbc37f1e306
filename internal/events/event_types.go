package events

import (
	"time"

	"github.com/spec-kit/snowsync/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentCreated   EventType = "incident_created"
	EventIncidentUpdated   EventType = "incident_updated"
	EventRequestCreated    EventType = "request_created"
	EventRequestCommented  EventType = "request_commented"
	EventAttachmentRelayed EventType = "attachment_relayed"
	EventAttachmentFailed  EventType = "attachment_failed"
)

// Event represents a cross-system write performed by the bridge.
type Event struct {
	ID             string              `json:"id"`
	Type           EventType           `json:"type"`
	Source         domain.TicketSystem `json:"source"`
	TicketRef      string              `json:"ticket_ref"`
	CounterpartRef string              `json:"counterpart_ref,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
	Payload        interface{}         `json:"payload"`
}

// IncidentCreatedPayload payload.
type IncidentCreatedPayload struct {
	Urgency string `json:"urgency"`
	Summary string `json:"summary"`
}

// IncidentUpdatedPayload payload.
type IncidentUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	Priority string `json:"priority"`
	Summary  string `json:"summary"`
}

// RequestCommentedPayload payload.
type RequestCommentedPayload struct {
	Field       string `json:"field"`
	BodyPreview string `json:"body_preview"`
}

// AttachmentPayload payload for relay outcomes.
type AttachmentPayload struct {
	Direction string `json:"direction"`
	Bucket    string `json:"bucket,omitempty"`
	Key       string `json:"key"`
	FileName  string `json:"file_name"`
	Error     string `json:"error,omitempty"`
}
