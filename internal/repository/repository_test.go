package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/snowsync/internal/domain"
)

func TestNilPoolRepositoriesAreNoops(t *testing.T) {
	ctx := context.Background()
	links := NewLinkRepository(nil)

	require.NoError(t, links.Create(ctx, &domain.Link{JiraKey: "FSD-1", SnowNumber: "INC1"}))
	_, err := links.GetByJiraKey(ctx, "FSD-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = links.GetBySnowNumber(ctx, "INC1")
	assert.ErrorIs(t, err, ErrNotFound)

	journal := NewSyncJournalRepository(nil)
	require.NoError(t, journal.Append(ctx, &domain.SyncJournalEntry{TicketRef: "FSD-1"}))
	entries, err := journal.ListByTicket(ctx, "FSD-1", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
	assert.False(t, isUniqueViolation(nil))
}
