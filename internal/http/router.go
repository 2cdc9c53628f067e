package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/EgiDanuajisantosoo/my-portfolio/internal/config"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/http/handler"
	httpmiddleware "github.com/EgiDanuajisantosoo/my-portfolio/internal/http/middleware"
	"github.com/EgiDanuajisantosoo/my-portfolio/internal/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(
	cfg config.Config,
	spotifyHandler *handler.SpotifyHandler,
	chatHandler *handler.ChatHandler,
	hobbyHandler *handler.HobbyHandler,
	rateLimiter *middleware.RateLimiter,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	api := r.Group("/api")
	{
		api.GET("/login", spotifyHandler.Login)
		api.GET("/callback", spotifyHandler.Callback)
		api.GET("/now-playing", spotifyHandler.NowPlaying)
		api.GET("/access-token", spotifyHandler.AccessToken)
		api.POST("/spotify-token", spotifyHandler.ExchangeToken)
		api.GET("/top-tracks", spotifyHandler.TopTracks)
		api.GET("/analysis", spotifyHandler.Analysis)

		api.POST("/chat", chatHandler.Complete)

		if hobbyHandler.Enabled() {
			anime := api.Group("/hobbies/anime")
			{
				anime.GET("", hobbyHandler.ListAnime)
				anime.POST("", hobbyHandler.AddAnime)
				anime.POST("/requests", hobbyHandler.AddAnimeRequest)
				anime.PATCH("/:id/status", hobbyHandler.UpdateWatchingStatus)
			}
		}
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The portfolio frontend is served only as static files; all dynamic
	// behaviour stays on the API routes.
	attachUIRoutes(r, filepath.Join("ui", "dist"))

	return r
}

func attachUIRoutes(r *gin.Engine, distDir string) {
	indexPath := filepath.Join(distDir, "index.html")

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if isAPIPath(path) {
			c.Status(http.StatusNotFound)
			return
		}

		if filePath, ok := safeJoin(distDir, path); ok {
			if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
				c.File(filePath)
				return
			}
		}

		c.File(indexPath)
	})
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/healthz")
}

func safeJoin(baseDir, requestPath string) (string, bool) {
	trimmed := strings.TrimPrefix(requestPath, "/")
	cleaned := filepath.Clean(trimmed)
	if cleaned == "." {
		return filepath.Join(baseDir, cleaned), true
	}
	if strings.HasPrefix(cleaned, "..") {
		return "", false
	}
	return filepath.Join(baseDir, cleaned), true
}
