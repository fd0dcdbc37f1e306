package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/clock"
	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/events"
	"github.com/spec-kit/snowsync/internal/mapping"
	"github.com/spec-kit/snowsync/internal/repository"
	"github.com/spec-kit/snowsync/internal/validation"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

// JiraInboundService mirrors Jira webhook bodies onto ServiceNow incidents.
type JiraInboundService struct {
	incidents IncidentClient
	requests  RequestClient
	fieldIDs  *FieldIDResolver
	links     repository.LinkRepository
	defaults  mapping.SnowDefaults
	publisher publisher
	logger    *zap.Logger
}

// JiraInboundDependencies bundles collaborators for JiraInboundService.
type JiraInboundDependencies struct {
	Incidents IncidentClient
	Requests  RequestClient
	FieldIDs  *FieldIDResolver
	Links     repository.LinkRepository
	Defaults  mapping.SnowDefaults
	Events    events.Dispatcher
	Clock     clock.Clock
	Logger    *zap.Logger
}

// NewJiraInboundService wires the service.
func NewJiraInboundService(deps JiraInboundDependencies) *JiraInboundService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Links == nil {
		deps.Links = repository.NewLinkRepository(nil)
	}
	return &JiraInboundService{
		incidents: deps.Incidents,
		requests:  deps.Requests,
		fieldIDs:  deps.FieldIDs,
		links:     deps.Links,
		defaults:  deps.Defaults,
		publisher: newPublisher(deps.Events, deps.Clock, deps.Logger),
		logger:    deps.Logger,
	}
}

// Create opens a ServiceNow incident for a new JSD request and writes the
// incident number back into the request's customer reference field.
func (s *JiraInboundService) Create(ctx context.Context, body map[string]any) (string, error) {
	if err := validation.JiraRules.Validate(body, validation.All); err != nil {
		return "", err
	}
	key := mapping.JiraKey(body)

	if err := ensureUnlinked(ctx, s.links.GetByJiraKey, "key", key); err != nil {
		return "", err
	}

	customerRefField, err := s.fieldIDs.CustomerRefField(ctx)
	if err != nil {
		return "", err
	}

	payload := mapping.IncidentFromJira(body, s.defaults)
	number, err := s.incidents.CreateIncident(ctx, payload)
	if err != nil {
		return "", err
	}
	s.logger.Info("incident created", zap.String("jira_key", key), zap.String("snow_number", number))

	// The link is recorded before the backfill so a retried webhook conflicts
	// instead of opening a second incident.
	recordLink(ctx, s.links, s.logger, key, number)

	if key != "" {
		if err := s.requests.UpdateIssue(ctx, key, map[string]any{customerRefField: number}); err != nil {
			return "", fmt.Errorf("set customer reference on %s: %w", key, err)
		}
	}

	summary, _ := payload["shortDescription"].(string)
	urgency, _ := payload["urgency"].(string)
	s.publisher.publish(ctx, events.EventIncidentCreated, domain.SystemJira, key, number,
		events.IncidentCreatedPayload{Urgency: urgency, Summary: summary})

	return number, nil
}

// Update applies the present Jira fields to an existing incident.
func (s *JiraInboundService) Update(ctx context.Context, incidentID string, body map[string]any) error {
	if strings.TrimSpace(incidentID) == "" {
		return errorutil.NewValidationError("`incidentId` is absent or empty")
	}
	if err := validation.JiraRules.Validate(body, validation.Present); err != nil {
		return err
	}

	payload := mapping.IncidentUpdateFromJira(body)
	if _, err := s.incidents.UpdateIncident(ctx, incidentID, payload); err != nil {
		return err
	}
	s.logger.Info("incident updated", zap.String("snow_number", incidentID), zap.Int("fields", len(payload)))

	changed := make([]string, 0, len(payload))
	for field := range payload {
		changed = append(changed, field)
	}
	sort.Strings(changed)
	s.publisher.publish(ctx, events.EventIncidentUpdated, domain.SystemJira, mapping.JiraKey(body), incidentID,
		events.IncidentUpdatedPayload{Fields: changed})
	return nil
}
