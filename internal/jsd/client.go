// Package jsd is a Jira Service Desk Cloud REST client covering customer
// requests, comments and attachments.
package jsd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/pkg/errorutil"
)

const (
	system          = "Jira Service Desk"
	serviceDeskPath = "/rest/servicedeskapi"
	issuePath       = "/rest/api/latest/issue"
	issueV3Path     = "/rest/api/3/issue"
)

// Client talks to one Jira Cloud site with basic auth.
type Client struct {
	baseURL    string
	username   string
	apiToken   string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientConfig bundles Client dependencies.
type ClientConfig struct {
	BaseURL    string
	Username   string
	APIToken   string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewClient builds a JSD client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if cfg.Timeout > 0 {
		withTimeout := *cfg.HTTPClient
		withTimeout.Timeout = cfg.Timeout
		httpClient = &withTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		apiToken:   cfg.APIToken,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// CreateRequest creates a customer request and returns its issue key.
func (c *Client) CreateRequest(ctx context.Context, payload map[string]any) (string, error) {
	var created createRequestResponse
	if _, err := c.doJSON(ctx, http.MethodPost, serviceDeskPath+"/request", payload, &created); err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if created.IssueKey == "" {
		return "", fmt.Errorf("create request: %s returned no issue key", system)
	}
	return created.IssueKey, nil
}

// GetRequest fetches the current state of a customer request. A 2xx answer
// with an empty body yields a nil request.
func (c *Client) GetRequest(ctx context.Context, key string) (*Request, error) {
	var resp requestResponse
	decoded, err := c.doJSON(ctx, http.MethodGet, serviceDeskPath+"/request/"+url.PathEscape(key), nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("get request %s: %w", key, err)
	}
	if !decoded {
		return nil, nil
	}
	return resp.toRequest(), nil
}

// UpdateIssue sets issue fields through the platform issue API.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	payload := map[string]any{"fields": fields}
	if _, err := c.doJSON(ctx, http.MethodPut, issuePath+"/"+url.PathEscape(key), payload, nil); err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}
	return nil
}

// CreateComment adds a public comment to a request.
func (c *Client) CreateComment(ctx context.Context, key, text string) error {
	payload := map[string]any{"body": text, "public": true}
	if _, err := c.doJSON(ctx, http.MethodPost, serviceDeskPath+"/request/"+url.PathEscape(key)+"/comment", payload, nil); err != nil {
		return fmt.Errorf("comment on %s: %w", key, err)
	}
	return nil
}

// ListIssueAttachments returns the attachments of an issue.
func (c *Client) ListIssueAttachments(ctx context.Context, key string) ([]IssueAttachment, error) {
	var resp issueAttachmentsResponse
	path := issueV3Path + "/" + url.PathEscape(key) + "?fields=attachment"
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list attachments of %s: %w", key, err)
	}
	return resp.Fields.Attachment, nil
}

// DownloadAttachment streams attachment content. The caller closes the body.
func (c *Client) DownloadAttachment(ctx context.Context, id, fileName string) (io.ReadCloser, error) {
	path := "/secure/attachment/" + url.PathEscape(id) + "/" + url.PathEscape(fileName)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download %s: %w", fileName, errorutil.CheckResponse(system, req.URL.String(), resp.StatusCode, body))
	}
	return resp.Body, nil
}

// AttachTemporaryFile uploads a file to the service desk's temporary area and
// returns the temporary attachment id.
func (c *Client) AttachTemporaryFile(ctx context.Context, serviceDeskID, fileName string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}

	path := serviceDeskPath + "/servicedesk/" + url.PathEscape(serviceDeskID) + "/attachTemporaryFile"
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("X-Atlassian-Token", "nocheck")
	req.Header.Set("X-ExperimentalApi", "opt-in")
	req.Header.Set("Origin", c.baseURL)

	var resp temporaryAttachmentsResponse
	if _, err := c.send(req, &resp); err != nil {
		return "", fmt.Errorf("attach temporary file %s: %w", fileName, err)
	}
	if len(resp.TemporaryAttachments) == 0 || resp.TemporaryAttachments[0].TemporaryAttachmentID == "" {
		return "", fmt.Errorf("attach temporary file %s: %s returned no temporary id", fileName, system)
	}
	return resp.TemporaryAttachments[0].TemporaryAttachmentID, nil
}

// AddAttachment turns temporary attachments into request attachments.
func (c *Client) AddAttachment(ctx context.Context, key string, temporaryIDs []string, public bool) error {
	payload := map[string]any{
		"temporaryAttachmentIds": temporaryIDs,
		"public":                 public,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, serviceDeskPath+"/request/"+url.PathEscape(key)+"/attachment", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", c.baseURL)
	if _, err := c.send(req, nil); err != nil {
		return fmt.Errorf("add attachment to %s: %w", key, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) (bool, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return false, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return false, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// newRequest builds an authenticated request.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%s URL not configured", system)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send performs req and decodes a non-empty 2xx body into out. The bool
// reports whether anything was decoded.
func (c *Client) send(req *http.Request, out any) (bool, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("jsd response",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode))

	if err := errorutil.CheckResponse(system, req.URL.String(), resp.StatusCode, respBody); err != nil {
		return false, err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}
