package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/events"
	"github.com/spec-kit/snowsync/internal/mapping"
	"github.com/spec-kit/snowsync/internal/paramstore"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

var testDefaults = mapping.SnowDefaults{
	CallingSystem:     "FINEOS-SERVICE-DESK",
	ReportedSource:    "FINEOS",
	ConfigurationItem: "11835",
	Caller:            "FINEOS SERVICE DESK",
	CallerNumber:      "1-899-898989",
}

type jiraFixture struct {
	service    *JiraInboundService
	incidents  *fakeIncidents
	requests   *fakeRequests
	links      *fakeLinks
	dispatched []events.Event
}

func newJiraFixture(t *testing.T, store paramstore.Store, links *fakeLinks) *jiraFixture {
	t.Helper()
	f := &jiraFixture{
		incidents: &fakeIncidents{number: "INC0010001"},
		requests:  &fakeRequests{},
		links:     links,
	}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{events.EventIncidentCreated, events.EventIncidentUpdated} {
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			f.dispatched = append(f.dispatched, e)
			return nil
		})
	}
	f.service = NewJiraInboundService(JiraInboundDependencies{
		Incidents: f.incidents,
		Requests:  f.requests,
		FieldIDs:  NewFieldIDResolver(store, testParams),
		Links:     links,
		Defaults:  testDefaults,
		Events:    dispatcher,
	})
	return f
}

func jiraBody(severity string) map[string]any {
	return map[string]any{
		"key": "SD-9",
		"fields": map[string]any{
			"priority":    map[string]any{"name": severity},
			"summary":     "S",
			"description": "D",
		},
	}
}

func TestJiraCreateMapsAndBackfillsCustomerRef(t *testing.T) {
	f := newJiraFixture(t, seededStore(), newFakeLinks())

	number, err := f.service.Create(context.Background(), jiraBody("Severity 5"))
	require.NoError(t, err)
	assert.Equal(t, "INC0010001", number)

	require.Len(t, f.incidents.created, 1)
	payload := f.incidents.created[0]
	assert.Equal(t, "4 - Low", payload["urgency"])
	assert.Equal(t, "3 - Medium", payload["impact"])
	assert.Equal(t, "S", payload["shortDescription"])
	assert.Equal(t, "SD-9", payload["vendorTicketNumber"])

	require.Len(t, f.requests.updates, 1)
	assert.Equal(t, "SD-9", f.requests.updates[0].Key)
	assert.Equal(t, map[string]any{"customfield_10100": "INC0010001"}, f.requests.updates[0].Fields)

	link, err := f.links.GetByJiraKey(context.Background(), "SD-9")
	require.NoError(t, err)
	assert.Equal(t, "INC0010001", link.SnowNumber)

	require.Len(t, f.dispatched, 1)
	assert.Equal(t, events.EventIncidentCreated, f.dispatched[0].Type)
	assert.Equal(t, domain.SystemJira, f.dispatched[0].Source)
	assert.NotEmpty(t, f.dispatched[0].ID)
}

func TestJiraCreateRejectsInvalidBodyBeforeAnyCall(t *testing.T) {
	f := newJiraFixture(t, seededStore(), newFakeLinks())

	_, err := f.service.Create(context.Background(), jiraBody("Severity 9"))
	require.Error(t, err)
	de := errorutil.ToDomainError(err)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	assert.Contains(t, de.Message, "`priority`")
	assert.Empty(t, f.incidents.created)
}

func TestJiraCreateConflictsOnLinkedKey(t *testing.T) {
	links := newFakeLinks(domain.Link{JiraKey: "SD-9", SnowNumber: "INC0000001"})
	f := newJiraFixture(t, seededStore(), links)

	_, err := f.service.Create(context.Background(), jiraBody("Severity 2"))
	require.Error(t, err)
	de := errorutil.ToDomainError(err)
	assert.Equal(t, errorutil.CodeConflict, de.Code)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Empty(t, f.incidents.created)
}

func TestJiraCreateRetryAfterFailedBackfillConflicts(t *testing.T) {
	f := newJiraFixture(t, seededStore(), newFakeLinks())
	f.requests.updateErr = errors.New("jsd down")

	_, err := f.service.Create(context.Background(), jiraBody("Severity 2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jsd down")

	f.requests.updateErr = nil
	_, err = f.service.Create(context.Background(), jiraBody("Severity 2"))
	require.Error(t, err)
	de := errorutil.ToDomainError(err)
	assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	assert.Equal(t, "`key` SD-9 is already linked", de.Message)
	assert.Len(t, f.incidents.created, 1)
}

func TestJiraCreateReportsMissingConfigurationBeforeCreating(t *testing.T) {
	f := newJiraFixture(t, paramstore.NewMemoryStore(nil), newFakeLinks())

	_, err := f.service.Create(context.Background(), jiraBody("Severity 2"))
	require.Error(t, err)
	de := errorutil.ToDomainError(err)
	assert.Equal(t, errorutil.CodeConfigurationMissing, de.Code)
	assert.Contains(t, de.Message, "/dev/JiraCustomerRefNoFieldId")
	assert.Empty(t, f.incidents.created)
}

func TestJiraCreatePropagatesUpstreamClientError(t *testing.T) {
	f := newJiraFixture(t, seededStore(), newFakeLinks())
	f.incidents.createErr = &errorutil.ClientError{System: "ServiceNow", Body: `{"error":"bad caller"}`}

	_, err := f.service.Create(context.Background(), jiraBody("Severity 1"))
	de := errorutil.ToDomainError(err)
	assert.Equal(t, errorutil.CodeUpstreamClient, de.Code)
	assert.Contains(t, de.Message, "bad caller")
	assert.Empty(t, f.requests.updates)
}

func TestJiraUpdateSendsOnlyPresentFields(t *testing.T) {
	f := newJiraFixture(t, seededStore(), newFakeLinks())

	body := map[string]any{
		"key":    "SD-9",
		"fields": map[string]any{"comment": "more info", "priority": map[string]any{"name": "Severity 4"}},
	}
	require.NoError(t, f.service.Update(context.Background(), "INC0010001", body))

	assert.Equal(t, map[string]any{
		"impact":    "3 - Medium",
		"urgency":   "4 - Low",
		"workNotes": "more info",
	}, f.incidents.updated["INC0010001"])

	require.Len(t, f.dispatched, 1)
	payload := f.dispatched[0].Payload.(events.IncidentUpdatedPayload)
	assert.Equal(t, []string{"impact", "urgency", "workNotes"}, payload.Fields)
}

func TestJiraUpdateValidation(t *testing.T) {
	f := newJiraFixture(t, seededStore(), newFakeLinks())

	err := f.service.Update(context.Background(), "", jiraBody("Severity 1"))
	assert.Equal(t, errorutil.CodeValidation, errorutil.ToDomainError(err).Code)

	err = f.service.Update(context.Background(), "INC1", map[string]any{"key": "SD-9", "fields": map[string]any{"comment": ""}})
	require.Error(t, err)
	assert.Equal(t, "`comment` is empty", errorutil.ToDomainError(err).Message)

	f.incidents.updateErr = errors.New("boom")
	err = f.service.Update(context.Background(), "INC1", map[string]any{"fields": map[string]any{"summary": "x"}})
	assert.EqualError(t, err, "boom")
}
