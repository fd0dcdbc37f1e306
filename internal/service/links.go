package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/repository"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

// ensureUnlinked fails with a conflict when lookup finds an existing link.
func ensureUnlinked(ctx context.Context, lookup func(context.Context, string) (*domain.Link, error), field, ref string) error {
	if ref == "" {
		return nil
	}
	link, err := lookup(ctx, ref)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("link lookup for %s: %w", ref, err)
	}
	return errorutil.NewConflict(
		fmt.Sprintf("`%s` %s is already linked", field, ref),
		map[string]any{"jira_key": link.JiraKey, "snow_number": link.SnowNumber},
	)
}

// recordLink stores the cross reference. The remote records already exist at
// this point, so failures are logged rather than returned.
func recordLink(ctx context.Context, links repository.LinkRepository, logger *zap.Logger, jiraKey, snowNumber string) {
	if links == nil || jiraKey == "" || snowNumber == "" {
		return
	}
	err := links.Create(ctx, &domain.Link{JiraKey: jiraKey, SnowNumber: snowNumber})
	switch {
	case errors.Is(err, repository.ErrLinkExists):
		logger.Warn("link already recorded", zap.String("jira_key", jiraKey), zap.String("snow_number", snowNumber))
	case err != nil:
		logger.Error("failed to record link", zap.String("jira_key", jiraKey), zap.String("snow_number", snowNumber), zap.Error(err))
	}
}
