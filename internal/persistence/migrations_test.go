package persistence

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/migrations"
)

func TestMigrationFilesAreOrdered(t *testing.T) {
	files := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 2")},
		"001_a.sql": {Data: []byte("SELECT 1")},
		"nested":    {Mode: 0o755 | 1<<31},
	}

	names, err := migrationFiles(files)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, names)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	names, err := migrationFiles(migrations.FS)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_ticket_links.sql", "002_sync_journal.sql"}, names)
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, zap.NewNop()))
}

func TestDisabledPostgres(t *testing.T) {
	pg := &Postgres{}
	assert.False(t, pg.Enabled())
	assert.Error(t, pg.Ping(context.Background()))
}
