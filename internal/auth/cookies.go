package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/spotify"
)

// Cookie names shared between the login, callback, and now-playing routes.
const (
	AccessTokenCookie  = "spotify_access_token"
	RefreshTokenCookie = "spotify_refresh_token"
	StateCookie        = "spotify_auth_state"
)

const (
	defaultAccessTokenMaxAge = 3600
	refreshTokenMaxAge       = 30 * 24 * 3600
	stateMaxAge              = 3600
)

// WriteTokens persists (re)issued tokens as httpOnly cookies on the same
// response that carries the request's payload. The access cookie lives for
// the token's expires_in; the refresh cookie for 30 days. A missing
// refresh_token in the response leaves the previously stored cookie alone.
func WriteTokens(c *gin.Context, token *domain.TokenResponse) {
	if token == nil {
		return
	}
	if token.AccessToken != "" {
		maxAge := int(token.ExpiresIn)
		if maxAge <= 0 {
			maxAge = defaultAccessTokenMaxAge
		}
		c.SetCookie(AccessTokenCookie, token.AccessToken, maxAge, "/", "", false, true)
	}
	if token.RefreshToken != "" {
		c.SetCookie(RefreshTokenCookie, token.RefreshToken, refreshTokenMaxAge, "/", "", false, true)
	}
}

// WriteState stores the anti-CSRF nonce for the authorization-code flow.
func WriteState(c *gin.Context, state string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(StateCookie, state, stateMaxAge, "/", "", secure, true)
}

// ClearState deletes the state cookie. Called on every callback, whether or
// not the state comparison succeeded, so a state value can never be replayed.
func ClearState(c *gin.Context) {
	c.SetCookie(StateCookie, "", -1, "/", "", false, true)
}

// ReadRequest builds the credential Request from the caller's cookies.
func ReadRequest(c *gin.Context) Request {
	access, _ := c.Cookie(AccessTokenCookie)
	refresh, _ := c.Cookie(RefreshTokenCookie)
	return Request{AccessToken: access, RefreshToken: refresh}
}
