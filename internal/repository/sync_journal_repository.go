package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/snowsync/internal/domain"
)

// SyncJournalRepository stores the audit trail of cross-system writes.
type SyncJournalRepository interface {
	Append(ctx context.Context, entry *domain.SyncJournalEntry) error
	ListByTicket(ctx context.Context, ticketRef string, limit int) ([]domain.SyncJournalEntry, error)
}

type syncJournalRepository struct {
	pool *pgxpool.Pool
}

// NewSyncJournalRepository constructs repository. Without a pool entries are
// discarded.
func NewSyncJournalRepository(pool *pgxpool.Pool) SyncJournalRepository {
	if pool == nil {
		return noopSyncJournalRepository{}
	}
	return &syncJournalRepository{pool: pool}
}

func (r *syncJournalRepository) Append(ctx context.Context, entry *domain.SyncJournalEntry) error {
	const query = `
        INSERT INTO sync_journal (event_id, source, change_type, ticket_ref, counterpart_ref, payload)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.EventID,
		entry.Source,
		entry.ChangeType,
		entry.TicketRef,
		entry.CounterpartRef,
		entry.Payload,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *syncJournalRepository) ListByTicket(ctx context.Context, ticketRef string, limit int) ([]domain.SyncJournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, event_id, source, change_type, ticket_ref, counterpart_ref, payload, created_at
        FROM sync_journal
        WHERE ticket_ref=$1 OR counterpart_ref=$1
        ORDER BY created_at DESC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, ticketRef, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SyncJournalEntry
	for rows.Next() {
		var entry domain.SyncJournalEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&entry.Source,
			&entry.ChangeType,
			&entry.TicketRef,
			&entry.CounterpartRef,
			&entry.Payload,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

type noopSyncJournalRepository struct{}

func (noopSyncJournalRepository) Append(context.Context, *domain.SyncJournalEntry) error { return nil }

func (noopSyncJournalRepository) ListByTicket(context.Context, string, int) ([]domain.SyncJournalEntry, error) {
	return nil, nil
}
