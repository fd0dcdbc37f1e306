package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/events"
	"github.com/spec-kit/snowsync/internal/jsd"
	"github.com/spec-kit/snowsync/internal/observability"
	"github.com/spec-kit/snowsync/internal/validation"
)

// DefaultCommentLabel prefixes every change comment.
const DefaultCommentLabel = "ServiceNow"

const previewLength = 80

// ChangeNotifier turns a mapped ServiceNow update into JSD comments, one per
// changed field.
type ChangeNotifier struct {
	requests  RequestClient
	label     string
	metrics   *observability.Metrics
	publisher publisher
	logger    *zap.Logger
}

// ChangeNotifierConfig bundles notifier dependencies.
type ChangeNotifierConfig struct {
	Requests RequestClient
	Label    string
	Metrics  *observability.Metrics
	Events   events.Dispatcher
	Logger   *zap.Logger
}

// NewChangeNotifier builds a notifier.
func NewChangeNotifier(cfg ChangeNotifierConfig) *ChangeNotifier {
	if strings.TrimSpace(cfg.Label) == "" {
		cfg.Label = DefaultCommentLabel
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ChangeNotifier{
		requests:  cfg.Requests,
		label:     cfg.Label,
		metrics:   cfg.Metrics,
		publisher: newPublisher(cfg.Events, nil, cfg.Logger),
		logger:    cfg.Logger,
	}
}

// Notify compares update against the live request and comments on every
// field that differs. A comment key always produces a comment. When
// customerRefField is set and present in update, the issue's customer
// reference is rewritten.
func (n *ChangeNotifier) Notify(ctx context.Context, issueKey string, update map[string]any, customerRefField string) error {
	current, err := n.requests.GetRequest(ctx, issueKey)
	if err != nil {
		return fmt.Errorf("load request %s: %w", issueKey, err)
	}
	if current == nil {
		current = &jsd.Request{IssueKey: issueKey}
	}

	reporter, _ := validation.Scalar(update[domain.FieldReportedBy])

	for _, change := range diff(current, update) {
		if err := n.comment(ctx, issueKey, change.field, change.text(n.label, reporter)); err != nil {
			return err
		}
	}

	if customerRefField != "" {
		if ref, ok := update[customerRefField]; ok {
			fields := map[string]any{customerRefField: ref}
			if err := n.requests.UpdateIssue(ctx, issueKey, fields); err != nil {
				return fmt.Errorf("set customer reference on %s: %w", issueKey, err)
			}
		}
	}
	return nil
}

func (n *ChangeNotifier) comment(ctx context.Context, issueKey, field, text string) error {
	if err := n.requests.CreateComment(ctx, issueKey, text); err != nil {
		return fmt.Errorf("comment %s change on %s: %w", field, issueKey, err)
	}
	n.logger.Debug("change comment posted", zap.String("issue_key", issueKey), zap.String("field", field))
	n.metrics.RecordComment(ctx, field)
	n.publisher.publish(ctx, events.EventRequestCommented, domain.SystemSnow, issueKey, "",
		events.RequestCommentedPayload{Field: field, BodyPreview: preview(text)})
	return nil
}

type fieldChange struct {
	field string
	value string
}

// text renders the comment body for one change.
func (c fieldChange) text(label, reporter string) string {
	suffix := ""
	if reporter != "" {
		suffix = fmt.Sprintf(" (%s)", reporter)
	}
	if c.field == domain.FieldComment {
		return fmt.Sprintf("%s Incident Update%s: New Comment Added\n%s", label, suffix, c.value)
	}
	return fmt.Sprintf("%s Incident Update%s: %s updated to \"%s\"", label, suffix, capitalize(c.field), c.value)
}

// diff returns changes in the fixed order summary, description, priority,
// status, comment.
func diff(current *jsd.Request, update map[string]any) []fieldChange {
	var changes []fieldChange

	for _, field := range []string{domain.FieldSummary, domain.FieldDescription} {
		value, ok := update[field]
		if !ok {
			continue
		}
		next := text(value)
		if old, had := current.Fields[field]; !had || text(old) != next {
			changes = append(changes, fieldChange{field: field, value: next})
		}
	}

	if value, ok := update[domain.FieldPriority]; ok {
		next := priorityName(value)
		if current.PriorityName() != next {
			changes = append(changes, fieldChange{field: domain.FieldPriority, value: next})
		}
	}

	if value, ok := update[domain.FieldStatus]; ok {
		next := text(value)
		if current.CurrentStatus != next {
			changes = append(changes, fieldChange{field: domain.FieldStatus, value: next})
		}
	}

	if value, ok := update[domain.FieldComment]; ok {
		changes = append(changes, fieldChange{field: domain.FieldComment, value: text(value)})
	}
	return changes
}

func priorityName(value any) string {
	if obj, ok := value.(map[string]any); ok {
		name, _ := obj["name"].(string)
		return name
	}
	return text(value)
}

func text(value any) string {
	if s, ok := validation.Scalar(value); ok {
		return s
	}
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength]) + "..."
}
