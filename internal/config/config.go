package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration values.
type Config struct {
	Environment string
	HTTPPort    string
	ServiceName string

	SpotifyClientID     string
	SpotifyClientSecret string
	SpotifyRedirectURI  string
	SpotifyRefreshToken string
	SpotifyAccessToken  string
	// SpotifyOwnerMode pins the now-playing routes to the static refresh
	// token (single-owner showcase deployment) instead of visitor cookies.
	SpotifyOwnerMode bool

	DatabaseURL string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	AnalysisCacheTTL time.Duration

	OpenRouterAPIKey string
	OpenRouterModel  string
	SiteURL          string
	SiteName         string

	UpstreamTimeout time.Duration
	RateLimitRPM    int

	TelemetryEndpoint string
	TelemetryInsecure bool

	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
// Spotify and OpenRouter credentials are optional at startup: the routes
// that need them report configuration errors per request instead.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: getEnv("APP_ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "my-portfolio"),

		SpotifyClientID:     strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_ID")),
		SpotifyClientSecret: strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_SECRET")),
		SpotifyRedirectURI:  getEnv("SPOTIFY_REDIRECT_URI", "http://127.0.0.1:3000/api/callback"),
		SpotifyRefreshToken: strings.TrimSpace(os.Getenv("SPOTIFY_REFRESH_TOKEN")),
		SpotifyAccessToken:  strings.TrimSpace(os.Getenv("SPOTIFY_ACCESS_TOKEN")),
		SpotifyOwnerMode:    getBool("SPOTIFY_OWNER_MODE", false),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),
		AnalysisCacheTTL: getDuration("ANALYSIS_CACHE_TTL", 10*time.Minute),

		OpenRouterAPIKey: strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "deepseek/deepseek-chat"),
		SiteURL:          getEnv("SITE_URL", "http://localhost:3000"),
		SiteName:         getEnv("SITE_NAME", "My Portfolio"),

		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		RateLimitRPM:    getInt("RATE_LIMIT_RPM", 600),

		TelemetryEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure: getBool("OTEL_EXPORTER_OTLP_INSECURE", true),

		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
