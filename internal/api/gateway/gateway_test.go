package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/snowsync/internal/storage"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

type fakeIncidentSync struct {
	created  map[string]any
	updateID string
	err      error
}

func (f *fakeIncidentSync) Create(_ context.Context, body map[string]any) (string, error) {
	f.created = body
	return "INC0010001", f.err
}

func (f *fakeIncidentSync) Update(_ context.Context, id string, _ map[string]any) error {
	f.updateID = id
	return f.err
}

type panickingSync struct{}

func (panickingSync) Create(context.Context, map[string]any) (string, error) {
	panic("boom")
}

func (panickingSync) Update(context.Context, string, map[string]any) error { return nil }

type fakeSigner struct{}

func (fakeSigner) Presign(_ context.Context, issueKey, fileName string) (*storage.PresignedPost, error) {
	if issueKey == "" || fileName == "" {
		return nil, errorutil.NewValidationError("`issue_key` and `file_name` must be defined in querystring")
	}
	return &storage.PresignedPost{URL: "https://bucket/", Fields: map[string]string{"key": issueKey + "/" + fileName}}, nil
}

func decode(t *testing.T, resp Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body
}

func jsonRequest(method, body string) Request {
	return Request{
		Method:  method,
		Headers: map[string]string{"content-type": "Application/JSON; charset=utf-8"},
		Body:    body,
	}
}

func TestServeCreatesAndShapesResponse(t *testing.T) {
	svc := &fakeIncidentSync{}
	resp := New(nil, nil).Serve(context.Background(), JiraProcessor(svc), jsonRequest(http.MethodPost, `{"key":"SD-1","fields":{"n":5}}`))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, resp.IsBase64Encoded)
	assert.Equal(t, map[string]string{"Content-Type": "application/json"}, resp.Headers)
	assert.Equal(t, map[string]any{"ok": true, "number": "INC0010001"}, decode(t, resp))

	fields := svc.created["fields"].(map[string]any)
	assert.Equal(t, json.Number("5"), fields["n"])
}

func TestServeRoutesPutWithPathParam(t *testing.T) {
	svc := &fakeIncidentSync{}
	req := jsonRequest(http.MethodPut, `{"fields":{"summary":"x"}}`)
	req.PathParams = map[string]string{IncidentPathParam: "INC42"}

	resp := New(nil, nil).Serve(context.Background(), JiraProcessor(svc), req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INC42", svc.updateID)
	assert.Equal(t, map[string]any{"ok": true}, decode(t, resp))
}

func TestServeContractFailures(t *testing.T) {
	gw := New(nil, nil)
	route := JiraProcessor(&fakeIncidentSync{})

	cases := []struct {
		name    string
		req     Request
		status  int
		message string
	}{
		{
			name:    "wrong media type",
			req:     Request{Method: http.MethodPost, Headers: map[string]string{"Content-Type": "text/plain"}, Body: "{}"},
			status:  http.StatusUnsupportedMediaType,
			message: "Unsupported Media Type: text/plain",
		},
		{
			name:    "missing media type",
			req:     Request{Method: http.MethodPost, Body: "{}"},
			status:  http.StatusUnsupportedMediaType,
			message: "Unsupported Media Type: ",
		},
		{
			name:    "method",
			req:     jsonRequest(http.MethodDelete, "{}"),
			status:  http.StatusMethodNotAllowed,
			message: "Method not allowed: DELETE",
		},
		{
			name:    "not json",
			req:     jsonRequest(http.MethodPost, "not json"),
			status:  http.StatusBadRequest,
			message: "`body` is not valid JSON: not json",
		},
		{
			name:    "trailing garbage",
			req:     jsonRequest(http.MethodPost, `{} {}`),
			status:  http.StatusBadRequest,
			message: "`body` is not valid JSON: {} {}",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := gw.Serve(context.Background(), route, tc.req)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, map[string]any{"ok": false, "error": tc.message}, decode(t, resp))
		})
	}
}

func TestServeConvertsServiceErrors(t *testing.T) {
	gw := New(nil, nil)

	svc := &fakeIncidentSync{err: &errorutil.ClientError{System: "ServiceNow", Body: `{"detail":"bad"}`}}
	resp := gw.Serve(context.Background(), JiraProcessor(svc), jsonRequest(http.MethodPost, `{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["error"], `{"detail":"bad"}`)

	svc = &fakeIncidentSync{err: &errorutil.HTTPError{System: "ServiceNow", StatusCode: 503, URL: "https://snow"}}
	resp = gw.Serve(context.Background(), JiraProcessor(svc), jsonRequest(http.MethodPost, `{}`))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	svc = &fakeIncidentSync{err: errors.New("socket closed")}
	resp = gw.Serve(context.Background(), JiraProcessor(svc), jsonRequest(http.MethodPost, `{}`))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, map[string]any{"ok": false, "error": "socket closed"}, decode(t, resp))
}

func TestServeRecoversPanics(t *testing.T) {
	resp := New(nil, nil).Serve(context.Background(), JiraProcessor(panickingSync{}), jsonRequest(http.MethodPost, `{}`))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, decode(t, resp)["ok"])
}

func TestPresignRoute(t *testing.T) {
	gw := New(nil, nil)

	resp := gw.Serve(context.Background(), S3Presign(fakeSigner{}), Request{
		Method: http.MethodGet,
		Query:  map[string]string{"issue_key": "SD-1", "file_name": "a.txt"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "SD-1", body["issue_key"])
	assert.Equal(t, map[string]any{"url": "https://bucket/", "fields": map[string]any{"key": "SD-1/a.txt"}}, body["upload_url"])

	resp = gw.Serve(context.Background(), S3Presign(fakeSigner{}), Request{Method: http.MethodGet})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "`issue_key` and `file_name` must be defined in querystring", decode(t, resp)["error"])

	resp = gw.Serve(context.Background(), S3Presign(fakeSigner{}), Request{Method: http.MethodPost})
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
