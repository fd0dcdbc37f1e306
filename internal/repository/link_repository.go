package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/snowsync/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrLinkExists is returned when either side of a link is already linked.
	ErrLinkExists = errors.New("ticket already linked")
)

const uniqueViolation = "23505"

// LinkRepository persists JSD request to ServiceNow incident cross-references.
type LinkRepository interface {
	Create(ctx context.Context, link *domain.Link) error
	GetByJiraKey(ctx context.Context, jiraKey string) (*domain.Link, error)
	GetBySnowNumber(ctx context.Context, snowNumber string) (*domain.Link, error)
}

type linkRepository struct {
	pool *pgxpool.Pool
}

// NewLinkRepository constructs repository. Without a pool every lookup misses
// and every create succeeds.
func NewLinkRepository(pool *pgxpool.Pool) LinkRepository {
	if pool == nil {
		return noopLinkRepository{}
	}
	return &linkRepository{pool: pool}
}

func (r *linkRepository) Create(ctx context.Context, link *domain.Link) error {
	const query = `
        INSERT INTO ticket_links (jira_key, snow_number)
        VALUES ($1,$2)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query, link.JiraKey, link.SnowNumber).Scan(&link.ID, &link.CreatedAt)
	if isUniqueViolation(err) {
		return ErrLinkExists
	}
	return err
}

func (r *linkRepository) GetByJiraKey(ctx context.Context, jiraKey string) (*domain.Link, error) {
	const query = `
        SELECT id, jira_key, snow_number, created_at
        FROM ticket_links WHERE jira_key=$1`
	return r.scanOne(ctx, query, jiraKey)
}

func (r *linkRepository) GetBySnowNumber(ctx context.Context, snowNumber string) (*domain.Link, error) {
	const query = `
        SELECT id, jira_key, snow_number, created_at
        FROM ticket_links WHERE snow_number=$1`
	return r.scanOne(ctx, query, snowNumber)
}

func (r *linkRepository) scanOne(ctx context.Context, query string, arg string) (*domain.Link, error) {
	var link domain.Link
	err := r.pool.QueryRow(ctx, query, arg).Scan(&link.ID, &link.JiraKey, &link.SnowNumber, &link.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type noopLinkRepository struct{}

func (noopLinkRepository) Create(context.Context, *domain.Link) error { return nil }

func (noopLinkRepository) GetByJiraKey(context.Context, string) (*domain.Link, error) {
	return nil, ErrNotFound
}

func (noopLinkRepository) GetBySnowNumber(context.Context, string) (*domain.Link, error) {
	return nil, ErrNotFound
}
