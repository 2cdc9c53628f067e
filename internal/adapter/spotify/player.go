package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/spotify"
)

const defaultAPIBaseURL = "https://api.spotify.com"

// Player resolves the "what is the user listening to" question against the
// Spotify Web API. Resolution walks three endpoints in order and normalizes
// whichever answers first: currently-playing, then the general player state,
// then the most recent item of the play history.
type Player struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewPlayer constructs a Player. A nil client gets a 10s timeout; a nil
// logger falls back to the global one.
func NewPlayer(client *http.Client, logger *zap.Logger) *Player {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Player{httpClient: client, baseURL: defaultAPIBaseURL, logger: logger}
}

// NewPlayerWithBaseURL overrides the API base URL, for tests.
func NewPlayerWithBaseURL(client *http.Client, logger *zap.Logger, baseURL string) *Player {
	p := NewPlayer(client, logger)
	if strings.TrimSpace(baseURL) != "" {
		p.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	return p
}

type trackArtist struct {
	Name string `json:"name"`
}

type trackObject struct {
	Name         string            `json:"name"`
	DurationMS   int64             `json:"duration_ms"`
	Artists      []trackArtist     `json:"artists"`
	Album        domain.Album      `json:"album"`
	ExternalURLs map[string]string `json:"external_urls"`
}

type playerStatePayload struct {
	Timestamp  int64        `json:"timestamp"`
	ProgressMS *int64       `json:"progress_ms"`
	IsPlaying  bool         `json:"is_playing"`
	Item       *trackObject `json:"item"`
}

type recentlyPlayedPayload struct {
	Items []struct {
		Track      *trackObject `json:"track"`
		PlayedAt   string       `json:"played_at"`
		ProgressMS *int64       `json:"progress_ms"`
	} `json:"items"`
}

// Resolve produces a PlaybackSnapshot for the bearer token. Upstream
// failures degrade to the next fallback state and never surface as errors;
// the only error returned is ErrUnauthorized, so the caller can refresh the
// token and retry the whole chain once.
func (p *Player) Resolve(ctx context.Context, accessToken string) (*domain.PlaybackSnapshot, error) {
	snap, err := p.currentlyPlaying(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}

	snap, err = p.playerState(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}

	snap, err = p.recentlyPlayed(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}

	return &domain.PlaybackSnapshot{IsPlaying: false}, nil
}

func (p *Player) currentlyPlaying(ctx context.Context, accessToken string) (*domain.PlaybackSnapshot, error) {
	status, body, err := p.get(ctx, accessToken, "/v1/me/player/currently-playing")
	if err != nil {
		// Expected when there is no active session; not worth alerting on.
		p.logger.Debug("currently-playing fetch failed", zap.Error(err))
		return nil, nil
	}
	if status == http.StatusUnauthorized {
		return nil, domain.ErrUnauthorized
	}
	if status != http.StatusOK {
		return nil, nil
	}

	var payload playerStatePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		p.logger.Debug("currently-playing decode failed", zap.Error(err))
		return nil, nil
	}
	if payload.Item == nil {
		return nil, nil
	}

	snap := snapshotFromTrack(payload.Item)
	snap.IsPlaying = true
	snap.ProgressMS = clampProgress(payload.ProgressMS, payload.Item.DurationMS)
	snap.PlayedAt = payload.Timestamp
	return snap, nil
}

func (p *Player) playerState(ctx context.Context, accessToken string) (*domain.PlaybackSnapshot, error) {
	status, body, err := p.get(ctx, accessToken, "/v1/me/player")
	if err != nil {
		p.logger.Warn("player state fetch failed", zap.Error(err))
		return nil, nil
	}
	if status == http.StatusUnauthorized {
		return nil, domain.ErrUnauthorized
	}
	if status != http.StatusOK {
		return nil, nil
	}

	var payload playerStatePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		p.logger.Warn("player state decode failed", zap.Error(err))
		return nil, nil
	}
	if payload.Item == nil {
		return nil, nil
	}

	snap := snapshotFromTrack(payload.Item)
	snap.IsPlaying = payload.IsPlaying
	snap.ProgressMS = clampProgress(payload.ProgressMS, payload.Item.DurationMS)
	snap.PlayedAt = payload.Timestamp
	return snap, nil
}

func (p *Player) recentlyPlayed(ctx context.Context, accessToken string) (*domain.PlaybackSnapshot, error) {
	status, body, err := p.get(ctx, accessToken, "/v1/me/player/recently-played?limit=1")
	if err != nil {
		p.logger.Warn("recently-played fetch failed", zap.Error(err))
		return nil, nil
	}
	if status == http.StatusUnauthorized {
		return nil, domain.ErrUnauthorized
	}
	if status != http.StatusOK {
		return nil, nil
	}

	var payload recentlyPlayedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		p.logger.Warn("recently-played decode failed", zap.Error(err))
		return nil, nil
	}
	if len(payload.Items) == 0 || payload.Items[0].Track == nil {
		return nil, nil
	}

	item := payload.Items[0]
	snap := snapshotFromTrack(item.Track)
	snap.IsPlaying = false
	snap.ProgressMS = clampProgress(item.ProgressMS, item.Track.DurationMS)
	if item.PlayedAt != "" {
		snap.PlayedAt = item.PlayedAt
	}
	return snap, nil
}

func (p *Player) get(ctx context.Context, accessToken, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Top fetches the owner's top tracks or artists and returns the upstream
// body verbatim. typ is "tracks" or "artists"; limit is clamped to 1..50.
func (p *Player) Top(ctx context.Context, accessToken, typ, timeRange string, limit int) (json.RawMessage, error) {
	if typ != "tracks" && typ != "artists" {
		typ = "tracks"
	}
	if timeRange == "" {
		timeRange = "medium_term"
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	q := url.Values{}
	q.Set("time_range", timeRange)
	q.Set("limit", fmt.Sprintf("%d", limit))

	status, body, err := p.get(ctx, accessToken, "/v1/me/top/"+typ+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &domain.UpstreamError{StatusCode: status, Body: body}
	}
	return json.RawMessage(body), nil
}

// TopTracks fetches the owner's top tracks decoded into items.
func (p *Player) TopTracks(ctx context.Context, accessToken, timeRange string, limit int) ([]domain.TopTrack, error) {
	raw, err := p.Top(ctx, accessToken, "tracks", timeRange, limit)
	if err != nil {
		return nil, err
	}
	var page struct {
		Items []domain.TopTrack `json:"items"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode top tracks: %w", err)
	}
	return page.Items, nil
}

// TopArtists fetches the owner's top artists decoded into items.
func (p *Player) TopArtists(ctx context.Context, accessToken, timeRange string, limit int) ([]domain.TopArtist, error) {
	raw, err := p.Top(ctx, accessToken, "artists", timeRange, limit)
	if err != nil {
		return nil, err
	}
	var page struct {
		Items []domain.TopArtist `json:"items"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode top artists: %w", err)
	}
	return page.Items, nil
}

// AudioFeatures fetches the feature vectors for up to 100 track IDs. Null
// entries (unanalyzed tracks) are dropped.
func (p *Player) AudioFeatures(ctx context.Context, accessToken string, trackIDs []string) ([]domain.AudioFeatures, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}

	status, body, err := p.get(ctx, accessToken, "/v1/audio-features?ids="+url.QueryEscape(strings.Join(trackIDs, ",")))
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &domain.UpstreamError{StatusCode: status, Body: body}
	}

	var payload struct {
		AudioFeatures []*domain.AudioFeatures `json:"audio_features"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode audio features: %w", err)
	}

	features := make([]domain.AudioFeatures, 0, len(payload.AudioFeatures))
	for _, f := range payload.AudioFeatures {
		if f != nil {
			features = append(features, *f)
		}
	}
	return features, nil
}

func snapshotFromTrack(track *trackObject) *domain.PlaybackSnapshot {
	artists := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, a.Name)
	}

	duration := track.DurationMS
	snap := &domain.PlaybackSnapshot{
		Name:       track.Name,
		Artists:    artists,
		Album:      &domain.Album{Images: track.Album.Images},
		DurationMS: &duration,
		SongURL:    track.ExternalURLs["spotify"],
	}
	return snap
}

func clampProgress(progress *int64, duration int64) *int64 {
	if progress == nil {
		return nil
	}
	v := *progress
	if duration > 0 && v > duration {
		v = duration
	}
	return &v
}
