package domain

import "time"

// SyncChangeType captures what a journal entry records.
type SyncChangeType string

const (
	ChangeIncidentCreated   SyncChangeType = "INCIDENT_CREATED"
	ChangeIncidentUpdated   SyncChangeType = "INCIDENT_UPDATED"
	ChangeRequestCreated    SyncChangeType = "REQUEST_CREATED"
	ChangeRequestCommented  SyncChangeType = "REQUEST_COMMENTED"
	ChangeAttachmentRelayed SyncChangeType = "ATTACHMENT_RELAYED"
	ChangeAttachmentFailed  SyncChangeType = "ATTACHMENT_FAILED"
)

// SyncJournalEntry is an immutable record of one cross-system write.
type SyncJournalEntry struct {
	ID             string
	EventID        string
	Source         TicketSystem
	ChangeType     SyncChangeType
	TicketRef      string
	CounterpartRef string
	Payload        map[string]any
	CreatedAt      time.Time
}
