package snow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/snowsync/internal/clock"
	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/paramstore"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

const tokenSlot = "/test/SNOW_API_TOKEN_KEY_2"

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type countingIdentity struct {
	calls int
	clk   clock.Clock
	ttl   time.Duration
	err   error
}

func (f *countingIdentity) RequestToken(context.Context) (*AuthToken, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &AuthToken{
		AccessToken: fmt.Sprintf("token-%d", f.calls),
		TokenType:   "Bearer",
		Expires:     Expiry(f.clk.Now().Add(f.ttl).Unix()),
	}, nil
}

func storedToken(t *testing.T, access string, expires time.Time) string {
	t.Helper()
	raw, err := json.Marshal(AuthToken{AccessToken: access, TokenType: "Bearer", Expires: Expiry(expires.Unix())})
	require.NoError(t, err)
	return string(raw)
}

func newCache(store paramstore.Store, identity IdentityProvider, clk clock.Clock, margin time.Duration) *TokenCache {
	return NewTokenCache(TokenCacheConfig{
		Store:    store,
		Slot:     tokenSlot,
		Identity: identity,
		Clock:    clk,
		Margin:   margin,
	})
}

func TestTokenCacheRequestsWhenMissing(t *testing.T) {
	clk := clock.Fake(epoch)
	store := paramstore.NewMemoryStore(nil)
	identity := &countingIdentity{clk: clk, ttl: time.Hour}

	token, err := newCache(store, identity, clk, 30*time.Second).Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, identity.calls)
	assert.Equal(t, "token-1", token.AccessToken)
	assert.Equal(t, 1, store.Puts())
	assert.True(t, store.IsSecure(tokenSlot))

	raw, err := store.Get(context.Background(), tokenSlot)
	require.NoError(t, err)
	assert.Contains(t, raw, "token-1")
}

func TestTokenCacheReusesFreshToken(t *testing.T) {
	clk := clock.Fake(epoch)
	store := paramstore.NewMemoryStore(map[string]string{tokenSlot: storedToken(t, "cached", epoch.Add(time.Hour))})
	identity := &countingIdentity{clk: clk, ttl: time.Hour}
	cache := newCache(store, identity, clk, 30*time.Second)

	for i := 0; i < 3; i++ {
		token, err := cache.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "cached", token.AccessToken)
	}
	assert.Equal(t, 0, identity.calls)
	assert.Equal(t, 0, store.Puts())
}

func TestTokenCacheRefreshesInsideMargin(t *testing.T) {
	clk := clock.Fake(epoch)
	store := paramstore.NewMemoryStore(map[string]string{tokenSlot: storedToken(t, "old", epoch.Add(20*time.Second))})
	identity := &countingIdentity{clk: clk, ttl: time.Hour}
	cache := newCache(store, identity, clk, 30*time.Second)

	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token.AccessToken)
	assert.Equal(t, 1, identity.calls)

	token, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token.AccessToken)
	assert.Equal(t, 1, identity.calls)
}

func TestTokenCacheStrictExpiryWithZeroMargin(t *testing.T) {
	clk := clock.Fake(epoch)
	store := paramstore.NewMemoryStore(map[string]string{tokenSlot: storedToken(t, "old", epoch.Add(time.Second))})
	identity := &countingIdentity{clk: clk, ttl: time.Hour}
	cache := newCache(store, identity, clk, 0)

	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old", token.AccessToken)

	clk.Advance(time.Second)
	token, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token.AccessToken)
	assert.Equal(t, 1, identity.calls)
}

func TestTokenCacheReplacesUnreadableValue(t *testing.T) {
	clk := clock.Fake(epoch)
	store := paramstore.NewMemoryStore(map[string]string{tokenSlot: "not json"})
	identity := &countingIdentity{clk: clk, ttl: time.Hour}

	token, err := newCache(store, identity, clk, 30*time.Second).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token.AccessToken)
}

func TestTokenCacheAcceptsStringExpiry(t *testing.T) {
	clk := clock.Fake(epoch)
	raw := fmt.Sprintf(`{"access_token":"cached","token_type":"Bearer","expires":"%d"}`, epoch.Add(time.Hour).Unix())
	store := paramstore.NewMemoryStore(map[string]string{tokenSlot: raw})
	identity := &countingIdentity{clk: clk, ttl: time.Hour}

	token, err := newCache(store, identity, clk, 30*time.Second).Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", token.AccessToken)
	assert.Equal(t, 0, identity.calls)
}

func TestTokenCacheIdentityFailureIsNotRetried(t *testing.T) {
	clk := clock.Fake(epoch)
	store := paramstore.NewMemoryStore(nil)
	identity := &countingIdentity{clk: clk, err: errors.New("identity down")}

	_, err := newCache(store, identity, clk, 30*time.Second).Token(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, identity.calls)
	assert.Equal(t, 0, store.Puts())
}

func TestIdentityClientRequestsToken(t *testing.T) {
	var gotUser, gotPass, gotClientID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/authorization/token", r.URL.Path)
		gotUser, gotPass, _ = r.BasicAuth()
		gotClientID = r.Header.Get("X-IBM-Client-Id")
		_, _ = w.Write([]byte(`{"access_token":"abc","expires":1900000000}`))
	}))
	defer srv.Close()

	params := config.NewParameters("test")
	store := paramstore.NewMemoryStore(map[string]string{
		params.SnowHost():         srv.URL,
		params.SnowClientID():     "client-1",
		params.SnowAuthUserName(): "user",
		params.SnowAuthPassword(): "pass",
	})
	identity := NewIdentityClient(StoreCredentials(store, params), srv.Client(), time.Second)

	token, err := identity.RequestToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc", token.AccessToken)
	assert.Equal(t, "Bearer abc", token.Authorization())
	assert.Equal(t, Expiry(1900000000), token.Expires)
	assert.Equal(t, "user", gotUser)
	assert.Equal(t, "pass", gotPass)
	assert.Equal(t, "client-1", gotClientID)
}

func TestIdentityClientSurfacesRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := func(context.Context) (Credentials, error) {
		return Credentials{AuthURL: srv.URL + "/auth"}, nil
	}
	_, err := NewIdentityClient(creds, srv.Client(), time.Second).RequestToken(context.Background())

	var httpErr *errorutil.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
}

func TestStoreCredentialsReportsMissingParameters(t *testing.T) {
	params := config.NewParameters("test")
	_, err := StoreCredentials(paramstore.NewMemoryStore(nil), params)(context.Background())

	var missing *paramstore.MissingConfigError
	require.ErrorAs(t, err, &missing)
	assert.Len(t, missing.Names, 4)
}
