package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/EgiDanuajisantosoo/my-portfolio/internal/adapter/cache"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/adapter/openrouter"
	spotifyadapter "github.com/EgiDanuajisantosoo/my-portfolio/internal/adapter/spotify"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/auth"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/config"
	domainspotify "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/spotify"
	httptransport "github.com/EgiDanuajisantosoo/my-portfolio/internal/http"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/http/handler"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/middleware"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/repository"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/server"
	hobbysvc "github.com/EgiDanuajisantosoo/my-portfolio/internal/service/hobby"
	svcspotify "github.com/EgiDanuajisantosoo/my-portfolio/internal/service/spotify"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newHobbyRepository,
			newHobbyService,
			newRedisClient,
			newReportCache,
			newClientCredential,
			newCredentialResolver,
			newExchanger,
			newPlayer,
			newPlaybackResolver,
			newPlayerAPI,
			newNowPlayingService,
			newAnalysisService,
			newOpenRouterClient,
			handler.NewSpotifyHandler,
			handler.NewChatHandler,
			handler.NewHobbyHandler,
			newRateLimiter,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

// newPGXPool connects to the hobby-list database. Without DATABASE_URL the
// hobby routes are simply disabled.
func newPGXPool(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, hobby routes disabled")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newHobbyRepository(pool *pgxpool.Pool) repository.HobbyRepository {
	if pool == nil {
		return nil
	}
	return repository.NewPostgresHobbyRepo(pool)
}

func newHobbyService(repo repository.HobbyRepository, node *snowflake.Node, logger *zap.Logger) *hobbysvc.Service {
	if repo == nil {
		return nil
	}
	return hobbysvc.NewService(repo, node, logger)
}

// newRedisClient connects the optional analysis cache backend.
func newRedisClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (redis.UniversalClient, error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, analysis cache disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newReportCache(client redis.UniversalClient) svcspotify.ReportCache {
	if client == nil {
		return nil
	}
	return cacheadapter.NewRedisReportCache(client)
}

func newClientCredential(cfg config.Config) domainspotify.ClientCredential {
	return domainspotify.ClientCredential{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
	}
}

func newCredentialResolver(cfg config.Config) *auth.Resolver {
	return auth.NewResolver(auth.Static{
		AccessToken:  cfg.SpotifyAccessToken,
		RefreshToken: cfg.SpotifyRefreshToken,
		OwnerMode:    cfg.SpotifyOwnerMode,
	})
}

func newExchanger(cfg config.Config) spotifyadapter.Exchanger {
	return spotifyadapter.NewHTTPExchanger(&http.Client{Timeout: cfg.UpstreamTimeout})
}

func newPlayer(cfg config.Config, logger *zap.Logger) *spotifyadapter.Player {
	return spotifyadapter.NewPlayer(&http.Client{Timeout: cfg.UpstreamTimeout}, logger)
}

func newPlaybackResolver(player *spotifyadapter.Player) svcspotify.PlaybackResolver {
	return player
}

func newPlayerAPI(player *spotifyadapter.Player) svcspotify.PlayerAPI {
	return player
}

func newNowPlayingService(
	resolver *auth.Resolver,
	exchanger spotifyadapter.Exchanger,
	player svcspotify.PlaybackResolver,
	cred domainspotify.ClientCredential,
	logger *zap.Logger,
) *svcspotify.NowPlayingService {
	return svcspotify.NewNowPlayingService(resolver, exchanger, player, cred, logger)
}

func newAnalysisService(
	player svcspotify.PlayerAPI,
	exchanger spotifyadapter.Exchanger,
	cred domainspotify.ClientCredential,
	cfg config.Config,
	cache svcspotify.ReportCache,
	logger *zap.Logger,
) *svcspotify.AnalysisService {
	return svcspotify.NewAnalysisService(player, exchanger, cred, cfg.SpotifyRefreshToken, cache, cfg.AnalysisCacheTTL, logger)
}

func newOpenRouterClient(cfg config.Config) *openrouter.Client {
	if cfg.OpenRouterAPIKey == "" {
		return nil
	}
	return openrouter.NewClient(nil, openrouter.Config{
		APIKey:   cfg.OpenRouterAPIKey,
		Model:    cfg.OpenRouterModel,
		SiteURL:  cfg.SiteURL,
		SiteName: cfg.SiteName,
	})
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
