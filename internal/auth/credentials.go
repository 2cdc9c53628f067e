// Package auth resolves Spotify bearer credentials for incoming requests
// and persists refreshed tokens back onto responses as cookies.
package auth

import (
	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/spotify"
)

// Static holds the environment-configured credentials used by single-owner
// deployments that never go through the interactive login.
type Static struct {
	AccessToken  string
	RefreshToken string
	// OwnerMode pins resolution to the static refresh token and ignores
	// visitor cookies entirely.
	OwnerMode bool
}

// Request carries the per-request credential material read from the caller.
type Request struct {
	// Explicit is a token handed in by the caller, e.g. a profile-fetch
	// flow that already performed its own exchange.
	Explicit     string
	AccessToken  string
	RefreshToken string
}

// Resolution is the outcome of credential resolution. When RefreshNeeded is
// set, no usable access token exists yet and RefreshToken must be exchanged
// first. Otherwise AccessToken is ready to use and RefreshToken (if any) is
// the fallback credential for a retry after a 401.
type Resolution struct {
	AccessToken   string
	RefreshToken  string
	RefreshNeeded bool
}

// Resolver picks a usable bearer credential following a fixed priority:
// explicit token, access-token cookie, static access token, then a refresh
// token from cookie or configuration.
type Resolver struct {
	static Static
}

// NewResolver constructs a Resolver around the static configuration.
func NewResolver(static Static) *Resolver {
	return &Resolver{static: static}
}

// Resolve returns the credential to use for req, or ErrNoCredential when
// nothing is available.
func (r *Resolver) Resolve(req Request) (Resolution, error) {
	if r.static.OwnerMode {
		req.AccessToken = ""
		req.RefreshToken = ""
	}

	refreshToken := req.RefreshToken
	if refreshToken == "" {
		refreshToken = r.static.RefreshToken
	}

	if req.Explicit != "" {
		return Resolution{AccessToken: req.Explicit, RefreshToken: refreshToken}, nil
	}
	if req.AccessToken != "" {
		return Resolution{AccessToken: req.AccessToken, RefreshToken: refreshToken}, nil
	}
	if !r.static.OwnerMode && r.static.AccessToken != "" {
		return Resolution{AccessToken: r.static.AccessToken, RefreshToken: refreshToken}, nil
	}
	if refreshToken != "" {
		return Resolution{RefreshToken: refreshToken, RefreshNeeded: true}, nil
	}
	return Resolution{}, domain.ErrNoCredential
}
