package handler

import (
	"crypto/rand"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	spotifyadapter "github.com/EgiDanuajisantosoo/my-portfolio/internal/adapter/spotify"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/auth"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/config"
	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/spotify"
	svcspotify "github.com/EgiDanuajisantosoo/my-portfolio/internal/service/spotify"
)

const authorizeURL = "https://accounts.spotify.com/authorize"

const stateLength = 16

// Scopes requested during the interactive login. The set mirrors every
// feature the site's widgets touch.
var loginScopes = strings.Join([]string{
	"user-read-recently-played",
	"user-top-read",
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
	"user-library-read",
	"user-library-modify",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"streaming",
	"app-remote-control",
	"user-follow-read",
	"user-follow-modify",
	"ugc-image-upload",
}, " ")

// SpotifyHandler serves the Spotify-backed routes: OAuth login/callback,
// now-playing, raw token helpers, top tracks, and the listening analysis.
type SpotifyHandler struct {
	cfg        config.Config
	nowPlaying *svcspotify.NowPlayingService
	analysis   *svcspotify.AnalysisService
	exchanger  spotifyadapter.Exchanger
	player     svcspotify.PlayerAPI
	logger     *zap.Logger
}

// NewSpotifyHandler creates the handler set.
func NewSpotifyHandler(
	cfg config.Config,
	nowPlaying *svcspotify.NowPlayingService,
	analysis *svcspotify.AnalysisService,
	exchanger spotifyadapter.Exchanger,
	player svcspotify.PlayerAPI,
	logger *zap.Logger,
) *SpotifyHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &SpotifyHandler{
		cfg:        cfg,
		nowPlaying: nowPlaying,
		analysis:   analysis,
		exchanger:  exchanger,
		player:     player,
		logger:     logger,
	}
}

func (h *SpotifyHandler) credential() domain.ClientCredential {
	return domain.ClientCredential{
		ClientID:     h.cfg.SpotifyClientID,
		ClientSecret: h.cfg.SpotifyClientSecret,
	}
}

// Login redirects to the accounts service authorize page with a fresh
// anti-CSRF state.
func (h *SpotifyHandler) Login(c *gin.Context) {
	if h.cfg.SpotifyClientID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing SPOTIFY_CLIENT_ID"})
		return
	}

	state, err := randomState(stateLength)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate state"})
		return
	}

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", h.cfg.SpotifyClientID)
	params.Set("scope", loginScopes)
	params.Set("redirect_uri", h.cfg.SpotifyRedirectURI)
	params.Set("state", state)

	auth.WriteState(c, state, h.cfg.IsProduction())
	c.Redirect(http.StatusFound, authorizeURL+"?"+params.Encode())
}

// Callback validates the state, exchanges the code, and stores the issued
// tokens as cookies. The state cookie is deleted whether or not the
// comparison succeeds.
func (h *SpotifyHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	stored, err := c.Cookie(auth.StateCookie)

	auth.ClearState(c)

	if err != nil || state == "" || state != stored {
		c.Redirect(http.StatusFound, "/?error=state_mismatch")
		return
	}

	cred := h.credential()
	if !cred.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing client id/secret"})
		return
	}

	token, err := h.exchanger.ExchangeCode(c.Request.Context(), cred, c.Query("code"), h.cfg.SpotifyRedirectURI)
	if err != nil {
		h.writeExchangeError(c, err)
		return
	}

	auth.WriteTokens(c, token)
	c.Redirect(http.StatusFound, "/")
}

// NowPlaying returns the caller's playback snapshot as JSON. Tokens minted
// while serving the request ride along as cookies on the same response.
func (h *SpotifyHandler) NowPlaying(c *gin.Context) {
	result, err := h.nowPlaying.NowPlaying(c.Request.Context(), auth.ReadRequest(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Environment variables not configured"})
		case errors.Is(err, domain.ErrNoCredential):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No access token available"})
		case errors.Is(err, domain.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token rejected"})
		default:
			h.writeExchangeError(c, err)
		}
		return
	}

	auth.WriteTokens(c, result.Issued)
	c.JSON(http.StatusOK, result.Snapshot)
}

// AccessToken hands out a raw access token for a refresh token supplied as
// a query parameter or configured in the environment.
func (h *SpotifyHandler) AccessToken(c *gin.Context) {
	if !h.credential().Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Environment variables not configured"})
		return
	}

	refreshToken := c.Query("refresh_token")
	if refreshToken == "" {
		refreshToken = h.cfg.SpotifyRefreshToken
	}
	if refreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	accessToken, err := h.nowPlaying.OwnerAccessToken(c.Request.Context(), refreshToken)
	if err != nil {
		h.writeExchangeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

// ExchangeToken exchanges an authorization code posted by the callback page
// for the full token-endpoint response.
func (h *SpotifyHandler) ExchangeToken(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code not provided"})
		return
	}

	cred := h.credential()
	if !cred.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Environment variables not configured"})
		return
	}

	token, err := h.exchanger.ExchangeCode(c.Request.Context(), cred, req.Code, h.cfg.SpotifyRedirectURI)
	if err != nil {
		h.writeExchangeError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

// TopTracks proxies the owner's top tracks or artists, refreshing the
// owner token first.
func (h *SpotifyHandler) TopTracks(c *gin.Context) {
	cred := h.credential()
	if !cred.Configured() || h.cfg.SpotifyRefreshToken == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Spotify environment variables not configured"})
		return
	}

	accessToken, err := h.nowPlaying.OwnerAccessToken(c.Request.Context(), h.cfg.SpotifyRefreshToken)
	if err != nil {
		h.writeExchangeError(c, err)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		limit = 10
	}

	raw, err := h.player.Top(
		c.Request.Context(),
		accessToken,
		c.DefaultQuery("type", "tracks"),
		c.DefaultQuery("time_range", "medium_term"),
		limit,
	)
	if err != nil {
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			c.Data(upstream.StatusCode, "application/json; charset=utf-8", upstream.Body)
			return
		}
		h.logger.Error("top tracks fetch failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data from Spotify"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// Analysis serves the owner's listening analysis.
func (h *SpotifyHandler) Analysis(c *gin.Context) {
	report, err := h.analysis.Analyze(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Spotify environment variables not configured"})
			return
		}
		h.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// writeExchangeError surfaces token endpoint rejections with the upstream
// status code and body unmodified, so clients that inspect the status keep
// working. Anything else is a generic upstream failure.
func (h *SpotifyHandler) writeExchangeError(c *gin.Context, err error) {
	var exchange *domain.ExchangeError
	if errors.As(err, &exchange) {
		c.Data(exchange.StatusCode, "application/json; charset=utf-8", exchange.Body)
		return
	}
	h.logger.Error("spotify upstream call failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data from Spotify"})
}

const stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func randomState(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = stateAlphabet[int(b)%len(stateAlphabet)]
	}
	return string(buf), nil
}
