package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/repository"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

const maxJournalLimit = 200

// JournalHandler exposes the sync journal for one ticket.
type JournalHandler struct {
	journal repository.SyncJournalRepository
}

// NewJournalHandler returns a new handler instance.
func NewJournalHandler(journal repository.SyncJournalRepository) *JournalHandler {
	return &JournalHandler{journal: journal}
}

type journalEntryResponse struct {
	ID             string         `json:"id"`
	EventID        string         `json:"event_id"`
	Source         string         `json:"source"`
	ChangeType     string         `json:"change_type"`
	TicketRef      string         `json:"ticket_ref"`
	CounterpartRef string         `json:"counterpart_ref"`
	Payload        map[string]any `json:"payload"`
	CreatedAt      time.Time      `json:"created_at"`
}

func toJournalEntryResponse(e domain.SyncJournalEntry) journalEntryResponse {
	return journalEntryResponse{
		ID:             e.ID,
		EventID:        e.EventID,
		Source:         string(e.Source),
		ChangeType:     string(e.ChangeType),
		TicketRef:      e.TicketRef,
		CounterpartRef: e.CounterpartRef,
		Payload:        e.Payload,
		CreatedAt:      e.CreatedAt,
	}
}

// List returns the newest entries where the ticket is either side of the
// write. ?limit caps the result (default 50, max 200).
func (h *JournalHandler) List(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return errorutil.NewValidationError("`limit` must be a positive integer")
		}
		limit = n
	}
	if limit > maxJournalLimit {
		limit = maxJournalLimit
	}

	entries, err := h.journal.ListByTicket(c.UserContext(), c.Params("ticketRef"), limit)
	if err != nil {
		return err
	}
	resp := make([]journalEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toJournalEntryResponse(e))
	}
	return c.JSON(fiber.Map{"ok": true, "entries": resp})
}
