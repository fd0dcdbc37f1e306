package snow

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/pkg/errorutil"
)

const (
	system        = "ServiceNow"
	incidentsPath = "/itsm-incident/process/incidents"

	// AttachmentTimeout bounds the attachment upload call.
	AttachmentTimeout = 25 * time.Second
)

// Attachment is a file pushed onto an incident.
type Attachment struct {
	FileName string
	Content  []byte
}

// Client talks to the ServiceNow incident process API.
type Client struct {
	baseURL       string
	clientID      string
	callingSystem string
	tokens        *TokenCache
	httpClient    *http.Client
	timeout       time.Duration
	logger        *zap.Logger
}

// ClientConfig bundles Client dependencies.
type ClientConfig struct {
	BaseURL       string
	ClientID      string
	CallingSystem string
	Tokens        *TokenCache
	HTTPClient    *http.Client
	Timeout       time.Duration
	Logger        *zap.Logger
}

// NewClient builds a ServiceNow client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		clientID:      cfg.ClientID,
		callingSystem: cfg.CallingSystem,
		tokens:        cfg.Tokens,
		httpClient:    cfg.HTTPClient,
		timeout:       cfg.Timeout,
		logger:        cfg.Logger,
	}
}

// CreateIncident posts a new incident and returns its number.
func (c *Client) CreateIncident(ctx context.Context, payload map[string]any) (string, error) {
	var created map[string]any
	if err := c.do(ctx, http.MethodPost, incidentsPath, c.stamp(payload), &created, c.timeout); err != nil {
		return "", fmt.Errorf("create incident: %w", err)
	}
	raw, ok := created["number"]
	if !ok || raw == nil || fmt.Sprint(raw) == "" {
		return "", fmt.Errorf("create incident: %s returned no incident number", system)
	}
	return fmt.Sprint(raw), nil
}

// GetIncident fetches one incident. A nil map means the API answered with an
// empty body.
func (c *Client) GetIncident(ctx context.Context, id string) (map[string]any, error) {
	var incident map[string]any
	if err := c.do(ctx, http.MethodGet, incidentPath(id), nil, &incident, c.timeout); err != nil {
		return nil, fmt.Errorf("get incident %s: %w", id, err)
	}
	return incident, nil
}

// UpdateIncident applies a partial update.
func (c *Client) UpdateIncident(ctx context.Context, id string, payload map[string]any) (map[string]any, error) {
	var updated map[string]any
	if err := c.do(ctx, http.MethodPut, incidentPath(id), c.stamp(payload), &updated, c.timeout); err != nil {
		return nil, fmt.Errorf("update incident %s: %w", id, err)
	}
	return updated, nil
}

// AddAttachment uploads a file to an incident as base64 content.
func (c *Client) AddAttachment(ctx context.Context, id string, file Attachment) error {
	payload := map[string]any{
		"attachments": []map[string]any{{
			"attachment":  base64.StdEncoding.EncodeToString(file.Content),
			"contentType": "",
			"fileName":    file.FileName,
		}},
	}
	if err := c.do(ctx, http.MethodPut, incidentPath(id), c.stamp(payload), nil, AttachmentTimeout); err != nil {
		return fmt.Errorf("attach %s to incident %s: %w", file.FileName, id, err)
	}
	return nil
}

// stamp copies payload and sets the calling system.
func (c *Client) stamp(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	if c.callingSystem != "" {
		out["callingSystem"] = c.callingSystem
	}
	return out
}

func incidentPath(id string) string {
	return incidentsPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any, timeout time.Duration) error {
	if c.baseURL == "" {
		return fmt.Errorf("%s URL not configured", system)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	apiURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-IBM-Client-Id", c.clientID)
	req.Header.Set("Authorization", token.Authorization())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("servicenow response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if err := errorutil.CheckResponse(system, apiURL, resp.StatusCode, respBody); err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
