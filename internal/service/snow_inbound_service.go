package service

import (
	"context"
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

// SnowInboundService mirrors ServiceNow incident pushes onto JSD requests.
type SnowInboundService struct {
	requests  RequestClient
	fieldIDs  *FieldIDResolver
	notifier  *ChangeNotifier
	links     repository.LinkRepository
	publisher publisher
	logger    *zap.Logger
}

// SnowInboundDependencies bundles collaborators for SnowInboundService.
type SnowInboundDependencies struct {
	Requests RequestClient
	FieldIDs *FieldIDResolver
	Notifier *ChangeNotifier
	Links    repository.LinkRepository
	Events   events.Dispatcher
	Clock    clock.Clock
	Logger   *zap.Logger
}

// NewSnowInboundService wires the service.
func NewSnowInboundService(deps SnowInboundDependencies) *SnowInboundService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Links == nil {
		deps.Links = repository.NewLinkRepository(nil)
	}
	return &SnowInboundService{
		requests:  deps.Requests,
		fieldIDs:  deps.FieldIDs,
		notifier:  deps.Notifier,
		links:     deps.Links,
		publisher: newPublisher(deps.Events, deps.Clock, deps.Logger),
		logger:    deps.Logger,
	}
}

// Create opens a JSD request for a new incident and returns its issue key.
func (s *SnowInboundService) Create(ctx context.Context, body map[string]any) (string, error) {
	if err := validation.SnowRules.Validate(body, validation.All); err != nil {
		return "", err
	}
	number, _ := validation.Scalar(body[domain.FieldSnowIncidentNumber])

	if err := ensureUnlinked(ctx, s.links.GetBySnowNumber, domain.FieldSnowIncidentNumber, number); err != nil {
		return "", err
	}

	ids, err := s.fieldIDs.RequestFieldIDs(ctx)
	if err != nil {
		return "", err
	}

	payload := mapping.RequestFromSnow(body, ids)
	key, err := s.requests.CreateRequest(ctx, payload)
	if err != nil {
		return "", err
	}
	s.logger.Info("request created", zap.String("jira_key", key), zap.String("snow_number", number))

	recordLink(ctx, s.links, s.logger, key, number)

	priority, _ := validation.Integer(body[domain.FieldPriority])
	summary, _ := body[domain.FieldSummary].(string)
	s.publisher.publish(ctx, events.EventRequestCreated, domain.SystemSnow, number, key,
		events.RequestCreatedPayload{Priority: domain.Severity(priority).Name(), Summary: summary})

	return key, nil
}

// Update posts one JSD comment per field that changed on the incident.
func (s *SnowInboundService) Update(ctx context.Context, issueKey string, body map[string]any) error {
	if strings.TrimSpace(issueKey) == "" {
		return errorutil.NewValidationError("`incidentId` is absent or empty")
	}
	if err := validation.SnowRules.Validate(body, validation.Present); err != nil {
		return err
	}

	var customerRefField string
	if _, ok := body[domain.FieldSnowIncidentNumber]; ok {
		field, err := s.fieldIDs.CustomerRefField(ctx)
		if err != nil {
			return err
		}
		customerRefField = field
	}

	update := mapping.RequestUpdateFromSnow(body, customerRefField)
	if err := s.notifier.Notify(ctx, issueKey, update, customerRefField); err != nil {
		return err
	}
	s.logger.Info("request updated", zap.String("jira_key", issueKey), zap.Int("fields", len(update)))
	return nil
}
