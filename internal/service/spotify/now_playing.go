// Package spotify orchestrates credential resolution, token exchange, and
// playback resolution for the Spotify-backed routes.
package spotify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	spotifyadapter "github.com/EgiDanuajisantosoo/my-portfolio/internal/adapter/spotify"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/auth"
	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/spotify"
)

// PlaybackResolver answers "what is playing" for a bearer token.
type PlaybackResolver interface {
	Resolve(ctx context.Context, accessToken string) (*domain.PlaybackSnapshot, error)
}

// NowPlayingResult bundles the snapshot with any token minted while serving
// the request, so the handler can attach it to the same response.
type NowPlayingResult struct {
	Snapshot *domain.PlaybackSnapshot
	Issued   *domain.TokenResponse
}

// NowPlayingService resolves a credential, refreshing it at most once, and
// runs the playback fallback chain with the result.
type NowPlayingService struct {
	resolver  *auth.Resolver
	exchanger spotifyadapter.Exchanger
	player    PlaybackResolver
	cred      domain.ClientCredential
	logger    *zap.Logger
}

// NewNowPlayingService wires the now-playing orchestration.
func NewNowPlayingService(
	resolver *auth.Resolver,
	exchanger spotifyadapter.Exchanger,
	player PlaybackResolver,
	cred domain.ClientCredential,
	logger *zap.Logger,
) *NowPlayingService {
	if logger == nil {
		logger = zap.L()
	}
	return &NowPlayingService{
		resolver:  resolver,
		exchanger: exchanger,
		player:    player,
		cred:      cred,
		logger:    logger,
	}
}

// NowPlaying resolves the caller's playback snapshot. A token rejected by
// the resource server triggers exactly one refresh-and-retry cycle; a second
// rejection surfaces as ErrUnauthorized.
func (s *NowPlayingService) NowPlaying(ctx context.Context, req auth.Request) (*NowPlayingResult, error) {
	if !s.cred.Configured() {
		return nil, domain.ErrNotConfigured
	}

	res, err := s.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	var issued *domain.TokenResponse
	accessToken := res.AccessToken
	if res.RefreshNeeded {
		issued, err = s.exchanger.Refresh(ctx, s.cred, res.RefreshToken)
		if err != nil {
			return nil, err
		}
		accessToken = issued.AccessToken
	}

	snap, err := s.player.Resolve(ctx, accessToken)
	if errors.Is(err, domain.ErrUnauthorized) && issued == nil && res.RefreshToken != "" {
		s.logger.Info("access token rejected, refreshing once")
		issued, err = s.exchanger.Refresh(ctx, s.cred, res.RefreshToken)
		if err != nil {
			return nil, err
		}
		snap, err = s.player.Resolve(ctx, issued.AccessToken)
	}
	if err != nil {
		return nil, err
	}

	return &NowPlayingResult{Snapshot: snap, Issued: issued}, nil
}

// OwnerAccessToken exchanges a refresh token for a bare access token, as the
// access-token route hands out to the owner's own widgets.
func (s *NowPlayingService) OwnerAccessToken(ctx context.Context, refreshToken string) (string, error) {
	token, err := s.exchanger.Refresh(ctx, s.cred, refreshToken)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}
