// Package snow is the ServiceNow incident API client and its OAuth token cache.
package snow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/clock"
	"github.com/spec-kit/snowsync/internal/observability"
	"github.com/spec-kit/snowsync/internal/paramstore"
)

// DefaultTokenType is used when the identity endpoint omits token_type.
const DefaultTokenType = "Bearer"

// Expiry is an epoch-seconds timestamp that decodes from a JSON number or a
// numeric string.
type Expiry int64

func (e *Expiry) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*e = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("expires: %w", err)
	}
	*e = Expiry(int64(f))
	return nil
}

// Time converts the expiry to a time.Time.
func (e Expiry) Time() time.Time {
	return time.Unix(int64(e), 0)
}

// AuthToken is the identity endpoint response, persisted verbatim.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Expires     Expiry `json:"expires"`
}

// Authorization renders the header value.
func (t *AuthToken) Authorization() string {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	return tokenType + " " + t.AccessToken
}

// IdentityProvider issues new tokens.
type IdentityProvider interface {
	RequestToken(ctx context.Context) (*AuthToken, error)
}

// TokenCache hands out a usable token, refreshing it through the identity
// provider when the stored one is missing, unreadable or about to expire.
// Refreshes inside one process are serialized; across processes the slot is
// last-writer-wins.
type TokenCache struct {
	mu       sync.Mutex
	store    paramstore.Store
	slot     string
	identity IdentityProvider
	clock    clock.Clock
	margin   time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// TokenCacheConfig bundles TokenCache dependencies.
type TokenCacheConfig struct {
	Store    paramstore.Store
	Slot     string
	Identity IdentityProvider
	Clock    clock.Clock
	Margin   time.Duration
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// NewTokenCache builds a cache over one provider slot.
func NewTokenCache(cfg TokenCacheConfig) *TokenCache {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Margin < 0 {
		cfg.Margin = 0
	}
	return &TokenCache{
		store:    cfg.Store,
		slot:     cfg.Slot,
		identity: cfg.Identity,
		clock:    cfg.Clock,
		margin:   cfg.Margin,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Token returns a token valid for at least the configured margin.
func (c *TokenCache) Token(ctx context.Context) (*AuthToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil && c.fresh(current) {
		return current, nil
	}
	return c.refresh(ctx, current != nil)
}

func (c *TokenCache) fresh(token *AuthToken) bool {
	return token.Expires.Time().After(c.clock.Now().Add(c.margin))
}

func (c *TokenCache) load(ctx context.Context) (*AuthToken, error) {
	raw, err := c.store.Get(ctx, c.slot)
	if errors.Is(err, paramstore.ErrNotFound) {
		c.logger.Info("token slot not found", zap.String("slot", c.slot))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var token AuthToken
	if err := json.Unmarshal([]byte(raw), &token); err != nil || token.AccessToken == "" {
		c.logger.Warn("stored token unreadable; requesting a new one", zap.String("slot", c.slot), zap.Error(err))
		return nil, nil
	}
	return &token, nil
}

func (c *TokenCache) refresh(ctx context.Context, expired bool) (*AuthToken, error) {
	token, err := c.identity.RequestToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("request token: %w", err)
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("encode token: %w", err)
	}
	if err := c.store.Put(ctx, c.slot, string(raw), true); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	reason := "missing"
	if expired {
		reason = "expiring"
	}
	c.metrics.RecordTokenRefresh(ctx, reason)
	c.logger.Info("servicenow token refreshed",
		zap.String("reason", reason),
		zap.Time("expires", token.Expires.Time()))
	return token, nil
}
