package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/snowsync/internal/api/gateway"
	"github.com/spec-kit/snowsync/internal/app"
	"github.com/spec-kit/snowsync/internal/service"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

func TestFromProxyRequest(t *testing.T) {
	req := FromProxyRequest(events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPut,
		Path:                  "/incidents/INC1",
		Headers:               map[string]string{"content-type": "application/json"},
		MultiValueHeaders:     map[string][]string{"X-Trace": {"a", "b"}},
		QueryStringParameters: map[string]string{"issue_key": "SD-1"},
		PathParameters:        map[string]string{"incidentId": "INC1"},
		Body:                  `{"a":1}`,
	})

	assert.Equal(t, http.MethodPut, req.Method)
	ct, ok := req.Header("Content-Type")
	assert.True(t, ok)
	assert.Equal(t, "application/json", ct)
	assert.Equal(t, "a", req.Headers["X-Trace"])
	assert.Equal(t, "SD-1", req.Query["issue_key"])
	assert.Equal(t, "INC1", req.PathParams[gateway.IncidentPathParam])
	assert.Equal(t, `{"a":1}`, req.Body)
}

func TestObjectRecords(t *testing.T) {
	var event events.S3Event
	require.NoError(t, json.Unmarshal([]byte(`{"Records":[
		{"s3":{"bucket":{"name":"relay"},"object":{"key":"SD-1/my+file.txt"}}},
		{"s3":{"bucket":{"name":"relay"},"object":{"key":"INC1/2/x.png"}}}
	]}`), &event))

	assert.Equal(t, []service.ObjectRecord{
		{Bucket: "relay", Key: "SD-1/my+file.txt"},
		{Bucket: "relay", Key: "INC1/2/x.png"},
	}, ObjectRecords(event))
}

func TestProxyHandlerReportsBootstrapFailure(t *testing.T) {
	calls := 0
	rt := NewRuntime(func(context.Context) (*app.App, error) {
		calls++
		return nil, errorutil.NewConfigurationMissing([]string{"/dev/JiraHost", "/dev/SnowHost"}, errors.New("missing"))
	}, nil)

	handler := NewProxyHandler(rt, func(a *app.App) gateway.Route { return gateway.Route{} })
	for i := 0; i < 2; i++ {
		resp, err := handler(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost})
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
		assert.Equal(t, false, body["ok"])
		assert.Equal(t, "configuration missing: /dev/JiraHost, /dev/SnowHost", body["error"])
	}
	assert.Equal(t, 2, calls)
}

func TestS3HandlerReturnsBootstrapError(t *testing.T) {
	rt := NewRuntime(func(context.Context) (*app.App, error) {
		return nil, errors.New("no credentials")
	}, nil)

	handler := NewS3Handler(rt, func(a *app.App) func(context.Context, []service.ObjectRecord) service.RelayReport {
		return a.Attachments.RelayToJSD
	})
	assert.EqualError(t, handler(context.Background(), events.S3Event{}), "no credentials")
}
