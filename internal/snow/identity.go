package snow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/paramstore"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

const identitySystem = "ServiceNow identity"

// Credentials authenticate against the identity endpoint.
type Credentials struct {
	AuthURL  string
	UserName string
	Password string
	ClientID string
}

// CredentialSource yields credentials at refresh time so rotated secrets are
// picked up without a restart.
type CredentialSource func(ctx context.Context) (Credentials, error)

// StoreCredentials reads credentials from the provider. When no explicit auth
// URL is configured the token endpoint under the ServiceNow host is used.
func StoreCredentials(store paramstore.Store, params config.Parameters) CredentialSource {
	return func(ctx context.Context) (Credentials, error) {
		values, err := paramstore.Resolve(ctx, store, params.SnowConnection()...)
		if err != nil {
			return Credentials{}, err
		}
		host := strings.TrimRight(values.Get(params.SnowHost()), "/")
		authURL, err := paramstore.Optional(ctx, store, params.SnowAuthURL(), host+"/authorization/token")
		if err != nil {
			return Credentials{}, err
		}
		return Credentials{
			AuthURL:  authURL,
			UserName: values.Get(params.SnowAuthUserName()),
			Password: values.Get(params.SnowAuthPassword()),
			ClientID: values.Get(params.SnowClientID()),
		}, nil
	}
}

// IdentityClient fetches tokens with HTTP basic auth.
type IdentityClient struct {
	credentials CredentialSource
	httpClient  *http.Client
	timeout     time.Duration
}

// NewIdentityClient builds an identity provider.
func NewIdentityClient(credentials CredentialSource, httpClient *http.Client, timeout time.Duration) *IdentityClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &IdentityClient{credentials: credentials, httpClient: httpClient, timeout: timeout}
}

func (c *IdentityClient) RequestToken(ctx context.Context) (*AuthToken, error) {
	creds, err := c.credentials(ctx)
	if err != nil {
		return nil, err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, creds.AuthURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(creds.UserName, creds.Password)
	req.Header.Set("X-IBM-Client-Id", creds.ClientID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if err := errorutil.CheckResponse(identitySystem, creds.AuthURL, resp.StatusCode, body); err != nil {
		return nil, err
	}

	var token AuthToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%s returned no access token", identitySystem)
	}
	if token.TokenType == "" {
		token.TokenType = DefaultTokenType
	}
	return &token, nil
}
