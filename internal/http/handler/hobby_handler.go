package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/hobby"
	hobbysvc "github.com/EgiDanuajisantosoo/my-portfolio/internal/service/hobby"
)

// HobbyHandler serves the anime tracker routes.
type HobbyHandler struct {
	svc    *hobbysvc.Service
	logger *zap.Logger
}

// NewHobbyHandler creates the handler. A nil service means no database is
// configured and the routes are not registered.
func NewHobbyHandler(svc *hobbysvc.Service, logger *zap.Logger) *HobbyHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &HobbyHandler{svc: svc, logger: logger}
}

// Enabled reports whether the hobby routes have a backing store.
func (h *HobbyHandler) Enabled() bool {
	return h != nil && h.svc != nil
}

type hobbyEntryRequest struct {
	MALID     int64    `json:"mal_id" binding:"required"`
	Title     string   `json:"title" binding:"required"`
	Image     string   `json:"image"`
	Score     *float64 `json:"score"`
	Year      *int     `json:"year"`
	URL       string   `json:"url"`
	Genre     string   `json:"genre"`
	Anonymous *string  `json:"anonymous"`
}

func (r hobbyEntryRequest) toEntry() domain.Entry {
	return domain.Entry{
		MALID:     r.MALID,
		Title:     r.Title,
		Image:     r.Image,
		Score:     r.Score,
		Year:      r.Year,
		URL:       r.URL,
		Genre:     r.Genre,
		Anonymous: r.Anonymous,
	}
}

// ListAnime returns the anime list, optionally filtered.
func (h *HobbyHandler) ListAnime(c *gin.Context) {
	entries, err := h.svc.ListAnime(c.Request.Context(), c.Query("type"), c.Query("watching_status"))
	if err != nil {
		h.logger.Error("list anime failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load hobby list"})
		return
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// AddAnime adds an owner favorite.
func (h *HobbyHandler) AddAnime(c *gin.Context) {
	h.addAnime(c, h.svc.AddFavorite)
}

// AddAnimeRequest records a visitor recommendation.
func (h *HobbyHandler) AddAnimeRequest(c *gin.Context) {
	h.addAnime(c, h.svc.AddRequest)
}

func (h *HobbyHandler) addAnime(c *gin.Context, add func(context.Context, domain.Entry) (domain.Entry, error)) {
	var req hobbyEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mal_id and title are required"})
		return
	}

	created, err := add(c.Request.Context(), req.toEntry())
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Entry already exists", "duplicate": true})
	case errors.Is(err, domain.ErrInvalidEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry"})
	case err != nil:
		h.logger.Error("add anime failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save entry"})
	default:
		c.JSON(http.StatusCreated, created)
	}
}

// UpdateWatchingStatus moves an entry to a new watching status.
func (h *HobbyHandler) UpdateWatchingStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry id"})
		return
	}

	var req struct {
		WatchingStatus string `json:"watching_status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "watching_status is required"})
		return
	}

	err = h.svc.UpdateWatchingStatus(c.Request.Context(), id, req.WatchingStatus)
	switch {
	case errors.Is(err, domain.ErrInvalidEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown watching status"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
	case err != nil:
		h.logger.Error("update watching status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update entry"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
