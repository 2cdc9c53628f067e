package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EgiDanuajisantosoo/my-portfolio/internal/auth"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/config"
	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/spotify"
	svcspotify "github.com/EgiDanuajisantosoo/my-portfolio/internal/service/spotify"
)

type stubExchanger struct {
	token        *domain.TokenResponse
	err          error
	refreshCalls int
	codeCalls    int
	lastCode     string
	lastRedirect string
}

func (s *stubExchanger) Refresh(context.Context, domain.ClientCredential, string) (*domain.TokenResponse, error) {
	s.refreshCalls++
	return s.token, s.err
}

func (s *stubExchanger) ExchangeCode(_ context.Context, _ domain.ClientCredential, code, redirectURI string) (*domain.TokenResponse, error) {
	s.codeCalls++
	s.lastCode = code
	s.lastRedirect = redirectURI
	return s.token, s.err
}

type stubPlayer struct {
	snap    *domain.PlaybackSnapshot
	snapErr error
	topRaw  json.RawMessage
	topErr  error
}

func (s *stubPlayer) Resolve(context.Context, string) (*domain.PlaybackSnapshot, error) {
	return s.snap, s.snapErr
}

func (s *stubPlayer) Top(context.Context, string, string, string, int) (json.RawMessage, error) {
	return s.topRaw, s.topErr
}

func (s *stubPlayer) TopArtists(context.Context, string, string, int) ([]domain.TopArtist, error) {
	return nil, nil
}

func (s *stubPlayer) AudioFeatures(context.Context, string, []string) ([]domain.AudioFeatures, error) {
	return nil, nil
}

func spotifyTestConfig() config.Config {
	return config.Config{
		SpotifyClientID:     "client-id",
		SpotifyClientSecret: "client-secret",
		SpotifyRedirectURI:  "http://127.0.0.1:3000/api/callback",
	}
}

func newSpotifyTestHandler(cfg config.Config, exchanger *stubExchanger, player *stubPlayer) *SpotifyHandler {
	cred := domain.ClientCredential{ClientID: cfg.SpotifyClientID, ClientSecret: cfg.SpotifyClientSecret}
	nowPlaying := svcspotify.NewNowPlayingService(
		auth.NewResolver(auth.Static{
			AccessToken:  cfg.SpotifyAccessToken,
			RefreshToken: cfg.SpotifyRefreshToken,
			OwnerMode:    cfg.SpotifyOwnerMode,
		}),
		exchanger,
		player,
		cred,
		zap.NewNop(),
	)
	analysis := svcspotify.NewAnalysisService(player, exchanger, cred, cfg.SpotifyRefreshToken, nil, 0, zap.NewNop())
	return NewSpotifyHandler(cfg, nowPlaying, analysis, exchanger, player, zap.NewNop())
}

func newSpotifyTestRouter(h *SpotifyHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/login", h.Login)
	r.GET("/api/callback", h.Callback)
	r.GET("/api/now-playing", h.NowPlaying)
	r.GET("/api/access-token", h.AccessToken)
	r.POST("/api/spotify-token", h.ExchangeToken)
	r.GET("/api/top-tracks", h.TopTracks)
	return r
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin_RedirectsWithStateCookie(t *testing.T) {
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), &stubExchanger{}, &stubPlayer{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/login", nil))

	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "accounts.spotify.com", location.Host)
	require.Equal(t, "/authorize", location.Path)
	require.Equal(t, "code", location.Query().Get("response_type"))
	require.Equal(t, "client-id", location.Query().Get("client_id"))
	require.Contains(t, location.Query().Get("scope"), "user-read-currently-playing")

	state := cookieByName(w.Result(), auth.StateCookie)
	require.NotNil(t, state)
	require.Len(t, state.Value, stateLength)
	require.Equal(t, state.Value, location.Query().Get("state"))
	require.True(t, state.HttpOnly)
	require.False(t, state.Secure)
}

func TestLogin_MissingClientID(t *testing.T) {
	cfg := spotifyTestConfig()
	cfg.SpotifyClientID = ""
	r := newSpotifyTestRouter(newSpotifyTestHandler(cfg, &stubExchanger{}, &stubPlayer{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/login", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Missing SPOTIFY_CLIENT_ID"}`, w.Body.String())
}

func TestCallback_StateMismatch(t *testing.T) {
	exchanger := &stubExchanger{token: &domain.TokenResponse{AccessToken: "access"}}
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), exchanger, &stubPlayer{}))

	req := httptest.NewRequest(http.MethodGet, "/api/callback?code=abc&state=forged", nil)
	req.AddCookie(&http.Cookie{Name: auth.StateCookie, Value: "genuine"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/?error=state_mismatch", w.Header().Get("Location"))
	require.Zero(t, exchanger.codeCalls)

	// The state cookie is gone even when the comparison fails.
	state := cookieByName(w.Result(), auth.StateCookie)
	require.NotNil(t, state)
	require.Less(t, state.MaxAge, 0)
}

func TestCallback_MissingStateCookie(t *testing.T) {
	exchanger := &stubExchanger{}
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), exchanger, &stubPlayer{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/callback?code=abc&state=anything", nil))

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/?error=state_mismatch", w.Header().Get("Location"))
	require.Zero(t, exchanger.codeCalls)
}

func TestCallback_ExchangesCodeAndSetsCookies(t *testing.T) {
	exchanger := &stubExchanger{token: &domain.TokenResponse{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresIn:    3600,
	}}
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), exchanger, &stubPlayer{}))

	req := httptest.NewRequest(http.MethodGet, "/api/callback?code=auth-code&state=genuine", nil)
	req.AddCookie(&http.Cookie{Name: auth.StateCookie, Value: "genuine"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
	require.Equal(t, "auth-code", exchanger.lastCode)
	require.Equal(t, "http://127.0.0.1:3000/api/callback", exchanger.lastRedirect)

	res := w.Result()
	access := cookieByName(res, auth.AccessTokenCookie)
	require.NotNil(t, access)
	require.Equal(t, "new-access", access.Value)
	refresh := cookieByName(res, auth.RefreshTokenCookie)
	require.NotNil(t, refresh)
	require.Equal(t, "new-refresh", refresh.Value)
}

func TestCallback_ExchangeFailurePassedThrough(t *testing.T) {
	exchanger := &stubExchanger{err: &domain.ExchangeError{
		StatusCode: http.StatusBadRequest,
		Body:       []byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`),
	}}
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), exchanger, &stubPlayer{}))

	req := httptest.NewRequest(http.MethodGet, "/api/callback?code=expired&state=genuine", nil)
	req.AddCookie(&http.Cookie{Name: auth.StateCookie, Value: "genuine"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`, w.Body.String())
	require.Nil(t, cookieByName(w.Result(), auth.AccessTokenCookie))
	require.Nil(t, cookieByName(w.Result(), auth.RefreshTokenCookie))
}

func TestNowPlaying_NoCredential(t *testing.T) {
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), &stubExchanger{}, &stubPlayer{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/now-playing", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"error":"No access token available"}`, w.Body.String())
}

func TestNowPlaying_NotConfigured(t *testing.T) {
	cfg := spotifyTestConfig()
	cfg.SpotifyClientID = ""
	cfg.SpotifyClientSecret = ""
	r := newSpotifyTestRouter(newSpotifyTestHandler(cfg, &stubExchanger{}, &stubPlayer{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/now-playing", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Environment variables not configured"}`, w.Body.String())
}

func TestNowPlaying_CookieTokenServesSnapshot(t *testing.T) {
	player := &stubPlayer{snap: &domain.PlaybackSnapshot{
		IsPlaying: true,
		Name:      "Song",
		Artists:   []string{"Artist"},
		SongURL:   "https://open.spotify.com/track/x",
	}}
	exchanger := &stubExchanger{}
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), exchanger, player))

	req := httptest.NewRequest(http.MethodGet, "/api/now-playing", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "cookie-access"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, exchanger.refreshCalls)

	var snap domain.PlaybackSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.True(t, snap.IsPlaying)
	require.Equal(t, "Song", snap.Name)

	// No refresh happened, so no new cookies ride along.
	require.Nil(t, cookieByName(w.Result(), auth.AccessTokenCookie))
}

func TestNowPlaying_RefreshedTokenRidesAlong(t *testing.T) {
	player := &stubPlayer{snap: &domain.PlaybackSnapshot{IsPlaying: false}}
	exchanger := &stubExchanger{token: &domain.TokenResponse{AccessToken: "minted", ExpiresIn: 3600}}
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), exchanger, player))

	req := httptest.NewRequest(http.MethodGet, "/api/now-playing", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: "cookie-refresh"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	access := cookieByName(w.Result(), auth.AccessTokenCookie)
	require.NotNil(t, access)
	require.Equal(t, "minted", access.Value)
}

func TestAccessToken_RequiresRefreshToken(t *testing.T) {
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), &stubExchanger{}, &stubPlayer{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/access-token", nil))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"refresh_token is required"}`, w.Body.String())
}

func TestAccessToken_FromQuery(t *testing.T) {
	exchanger := &stubExchanger{token: &domain.TokenResponse{AccessToken: "minted"}}
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), exchanger, &stubPlayer{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/access-token?refresh_token=rt", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"access_token":"minted"}`, w.Body.String())
}

func TestExchangeToken_MissingCode(t *testing.T) {
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), &stubExchanger{}, &stubPlayer{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/spotify-token", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"error":"Code not provided"}`, w.Body.String())
}

func TestExchangeToken_ReturnsTokenResponse(t *testing.T) {
	exchanger := &stubExchanger{token: &domain.TokenResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}}
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), exchanger, &stubPlayer{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/spotify-token", strings.NewReader(`{"code":"auth-code"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "auth-code", exchanger.lastCode)

	var token domain.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	require.Equal(t, "access", token.AccessToken)
	require.Equal(t, "refresh", token.RefreshToken)
}

func TestTopTracks_PassesUpstreamErrorThrough(t *testing.T) {
	cfg := spotifyTestConfig()
	cfg.SpotifyRefreshToken = "owner-refresh"
	exchanger := &stubExchanger{token: &domain.TokenResponse{AccessToken: "owner-access"}}
	player := &stubPlayer{topErr: &domain.UpstreamError{
		StatusCode: http.StatusForbidden,
		Body:       []byte(`{"error":{"status":403,"message":"Insufficient client scope"}}`),
	}}
	r := newSpotifyTestRouter(newSpotifyTestHandler(cfg, exchanger, player))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/top-tracks", nil))

	require.Equal(t, http.StatusForbidden, w.Code)
	require.JSONEq(t, `{"error":{"status":403,"message":"Insufficient client scope"}}`, w.Body.String())
}

func TestTopTracks_ServesRawPayload(t *testing.T) {
	cfg := spotifyTestConfig()
	cfg.SpotifyRefreshToken = "owner-refresh"
	exchanger := &stubExchanger{token: &domain.TokenResponse{AccessToken: "owner-access"}}
	player := &stubPlayer{topRaw: json.RawMessage(`{"items":[{"id":"t1"}]}`)}
	r := newSpotifyTestRouter(newSpotifyTestHandler(cfg, exchanger, player))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/top-tracks?limit=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"items":[{"id":"t1"}]}`, w.Body.String())
}

func TestTopTracks_MissingConfiguration(t *testing.T) {
	r := newSpotifyTestRouter(newSpotifyTestHandler(spotifyTestConfig(), &stubExchanger{}, &stubPlayer{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/top-tracks", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Spotify environment variables not configured"}`, w.Body.String())
}
