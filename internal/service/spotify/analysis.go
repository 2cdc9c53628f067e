package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	spotifyadapter "github.com/EgiDanuajisantosoo/my-portfolio/internal/adapter/spotify"
	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/spotify"
)

const (
	analysisTimeRange = "long_term"
	analysisLimit     = 50
	featureBatchSize  = 50
	topGenreCount     = 5

	analysisCacheKey = "spotify:analysis:owner"
)

// PlayerAPI is the slice of the Spotify Web API the analysis needs.
type PlayerAPI interface {
	Top(ctx context.Context, accessToken, typ, timeRange string, limit int) (json.RawMessage, error)
	TopArtists(ctx context.Context, accessToken, timeRange string, limit int) ([]domain.TopArtist, error)
	AudioFeatures(ctx context.Context, accessToken string, trackIDs []string) ([]domain.AudioFeatures, error)
}

// ReportCache stores rendered analysis reports with a TTL. A nil cache
// disables caching.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AnalysisReport is the listening-analysis payload served to the dashboard.
// TopTracks items are passed through from the Web API unmodified.
type AnalysisReport struct {
	TopTracks            []json.RawMessage           `json:"topTracks"`
	FavoriteGenres       []string                    `json:"favoriteGenres"`
	AverageAudioFeatures domain.AverageAudioFeatures `json:"averageAudioFeatures"`
}

// AnalysisService builds the owner's listening analysis from top tracks,
// top artists, and batched audio features.
type AnalysisService struct {
	player       PlayerAPI
	exchanger    spotifyadapter.Exchanger
	cred         domain.ClientCredential
	refreshToken string
	cache        ReportCache
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewAnalysisService wires the analysis pipeline. refreshToken is the
// owner's static refresh token; cache may be nil.
func NewAnalysisService(
	player PlayerAPI,
	exchanger spotifyadapter.Exchanger,
	cred domain.ClientCredential,
	refreshToken string,
	cache ReportCache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *AnalysisService {
	if logger == nil {
		logger = zap.L()
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &AnalysisService{
		player:       player,
		exchanger:    exchanger,
		cred:         cred,
		refreshToken: refreshToken,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// Analyze returns the owner's listening analysis, served from cache when a
// fresh report exists.
func (s *AnalysisService) Analyze(ctx context.Context) (*AnalysisReport, error) {
	if !s.cred.Configured() || s.refreshToken == "" {
		return nil, domain.ErrNotConfigured
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, analysisCacheKey); err != nil {
			s.logger.Warn("analysis cache read failed", zap.Error(err))
		} else if cached != nil {
			var report AnalysisReport
			if err := json.Unmarshal(cached, &report); err == nil {
				return &report, nil
			}
			s.logger.Warn("analysis cache entry corrupt, recomputing")
		}
	}

	token, err := s.exchanger.Refresh(ctx, s.cred, s.refreshToken)
	if err != nil {
		return nil, err
	}

	report, err := s.compute(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, analysisCacheKey, encoded, s.cacheTTL); err != nil {
				s.logger.Warn("analysis cache write failed", zap.Error(err))
			}
		}
	}
	return report, nil
}

func (s *AnalysisService) compute(ctx context.Context, accessToken string) (*AnalysisReport, error) {
	rawTracks, err := s.player.Top(ctx, accessToken, "tracks", analysisTimeRange, analysisLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch top tracks: %w", err)
	}
	var trackPage struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rawTracks, &trackPage); err != nil {
		return nil, fmt.Errorf("decode top tracks: %w", err)
	}

	artists, err := s.player.TopArtists(ctx, accessToken, analysisTimeRange, analysisLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch top artists: %w", err)
	}

	trackIDs := playableTrackIDs(trackPage.Items)

	var features []domain.AudioFeatures
	for start := 0; start < len(trackIDs); start += featureBatchSize {
		end := start + featureBatchSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}
		batch, err := s.player.AudioFeatures(ctx, accessToken, trackIDs[start:end])
		if err != nil {
			// A failed batch only degrades the average, it should not sink
			// the whole report.
			s.logger.Warn("audio features batch failed", zap.Int("offset", start), zap.Error(err))
			continue
		}
		features = append(features, batch...)
	}

	return &AnalysisReport{
		TopTracks:            trackPage.Items,
		FavoriteGenres:       TopGenres(artists, topGenreCount),
		AverageAudioFeatures: AverageFeatures(features),
	}, nil
}

func playableTrackIDs(items []json.RawMessage) []string {
	ids := make([]string, 0, len(items))
	for _, raw := range items {
		var track domain.TopTrack
		if err := json.Unmarshal(raw, &track); err != nil {
			continue
		}
		if track.ID == "" || track.Type != "track" {
			continue
		}
		if track.IsPlayable != nil && !*track.IsPlayable {
			continue
		}
		ids = append(ids, track.ID)
	}
	return ids
}

// TopGenres counts genre occurrences across the artist list and returns the
// n most frequent, most common first. Ties break alphabetically so the
// output is stable.
func TopGenres(artists []domain.TopArtist, n int) []string {
	counts := make(map[string]int)
	for _, artist := range artists {
		for _, genre := range artist.Genres {
			counts[genre]++
		}
	}

	genres := make([]string, 0, len(counts))
	for genre := range counts {
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})

	if len(genres) > n {
		genres = genres[:n]
	}
	return genres
}

// AverageFeatures averages the charted audio-feature fields. An empty input
// yields the zero value.
func AverageFeatures(features []domain.AudioFeatures) domain.AverageAudioFeatures {
	var avg domain.AverageAudioFeatures
	if len(features) == 0 {
		return avg
	}
	for _, f := range features {
		avg.Energy += f.Energy
		avg.Danceability += f.Danceability
		avg.Valence += f.Valence
		avg.Acousticness += f.Acousticness
	}
	count := float64(len(features))
	avg.Energy /= count
	avg.Danceability /= count
	avg.Valence /= count
	avg.Acousticness /= count
	return avg
}
