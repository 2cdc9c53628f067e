package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/spotify"
)

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// Exchanger performs OAuth grant exchanges against the Spotify accounts
// service token endpoint.
type Exchanger interface {
	Refresh(ctx context.Context, cred domain.ClientCredential, refreshToken string) (*domain.TokenResponse, error)
	ExchangeCode(ctx context.Context, cred domain.ClientCredential, code, redirectURI string) (*domain.TokenResponse, error)
}

// HTTPExchanger is the default HTTP implementation. Concurrent refreshes for
// the same refresh token are coalesced into a single upstream call.
type HTTPExchanger struct {
	httpClient *http.Client
	tokenURL   string
	group      singleflight.Group
}

var _ Exchanger = (*HTTPExchanger)(nil)

// NewHTTPExchanger constructs the default Exchanger.
func NewHTTPExchanger(client *http.Client) *HTTPExchanger {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPExchanger{httpClient: client, tokenURL: defaultTokenURL}
}

// NewHTTPExchangerWithURL overrides the token endpoint, for tests.
func NewHTTPExchangerWithURL(client *http.Client, tokenURL string) *HTTPExchanger {
	e := NewHTTPExchanger(client)
	if strings.TrimSpace(tokenURL) != "" {
		e.tokenURL = tokenURL
	}
	return e
}

// Refresh exchanges a refresh token for a new access token. The response's
// refresh_token field may be empty; callers must keep the previous refresh
// token in that case.
func (e *HTTPExchanger) Refresh(ctx context.Context, cred domain.ClientCredential, refreshToken string) (*domain.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, domain.ErrNoCredential
	}

	result, err, _ := e.group.Do(refreshToken, func() (any, error) {
		data := url.Values{}
		data.Set("grant_type", "refresh_token")
		data.Set("refresh_token", refreshToken)
		return e.post(ctx, cred, data)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.TokenResponse), nil
}

// ExchangeCode exchanges an authorization code for tokens. redirectURI must
// exactly match the registered redirect URI and the one used in the
// authorize redirect, or the accounts service rejects the grant.
func (e *HTTPExchanger) ExchangeCode(ctx context.Context, cred domain.ClientCredential, code, redirectURI string) (*domain.TokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectURI)
	return e.post(ctx, cred, data)
}

func (e *HTTPExchanger) post(ctx context.Context, cred domain.ClientCredential, data url.Values) (*domain.TokenResponse, error) {
	if !cred.Configured() {
		return nil, domain.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Basic "+basicAuth(cred))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &domain.ExchangeError{StatusCode: resp.StatusCode, Body: body}
	}

	var token domain.TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &token, nil
}

func basicAuth(cred domain.ClientCredential) string {
	return base64.StdEncoding.EncodeToString([]byte(cred.ClientID + ":" + cred.ClientSecret))
}
