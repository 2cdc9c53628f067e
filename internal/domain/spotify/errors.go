package spotify

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential signals that no access token, cookie, or refresh
	// token was available to authorize a resource call.
	ErrNoCredential = errors.New("spotify: no access token available")
	// ErrNotConfigured signals missing client id/secret configuration.
	ErrNotConfigured = errors.New("spotify: client credentials not configured")
	// ErrUnauthorized signals the resource server rejected the bearer token.
	ErrUnauthorized = errors.New("spotify: access token rejected")
)

// ExchangeError carries a token endpoint rejection verbatim so callers can
// surface the upstream status code and body without masking either.
type ExchangeError struct {
	StatusCode int
	Body       []byte
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("spotify: token exchange failed: status=%d body=%s", e.StatusCode, e.Body)
}

// UpstreamError carries a resource server rejection with its original
// status code and body.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("spotify: api call failed: status=%d body=%s", e.StatusCode, e.Body)
}
