package ti

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	perrors "github.com/matzehuels/partscout/pkg/errors"
	"github.com/matzehuels/partscout/pkg/integrations"
)

// refreshBuffer is how long before expiry a token is replaced.
const refreshBuffer = 60 * time.Second

// tokenSource caches an OAuth2 client-credentials bearer token.
type tokenSource struct {
	client   *integrations.Client
	endpoint string
	key      string
	secret   string
	now      func() time.Time

	mu         sync.Mutex
	token      string
	validUntil time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns a token valid for at least refreshBuffer, fetching a new
// one when needed.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.now()
	if ts.token != "" && now.Before(ts.validUntil.Add(-refreshBuffer)) {
		return ts.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {ts.key},
		"client_secret": {ts.secret},
	}
	var resp tokenResponse
	if err := ts.client.PostForm(ctx, ts.endpoint, form, nil, &resp); err != nil {
		return "", classify(err, "access token")
	}
	if !strings.EqualFold(resp.TokenType, "bearer") {
		return "", perrors.New(perrors.ErrCodeUnauthorized, "unknown token type %q; expected 'bearer'", resp.TokenType)
	}
	if resp.AccessToken == "" {
		return "", perrors.New(perrors.ErrCodeUnauthorized, "empty access token")
	}

	ts.token = resp.AccessToken
	ts.validUntil = now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	return ts.token, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (ts *tokenSource) Invalidate() {
	ts.mu.Lock()
	ts.token = ""
	ts.validUntil = time.Time{}
	ts.mu.Unlock()
}
