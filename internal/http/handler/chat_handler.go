package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EgiDanuajisantosoo/my-portfolio/internal/adapter/openrouter"
)

// ChatHandler proxies the site's chat widget to the completion gateway.
type ChatHandler struct {
	client *openrouter.Client
	logger *zap.Logger
}

// NewChatHandler creates the handler. A nil client means the gateway key is
// not configured and the route reports a configuration error.
func NewChatHandler(client *openrouter.Client, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &ChatHandler{client: client, logger: logger}
}

// Complete forwards a single user message and returns the gateway response.
func (h *ChatHandler) Complete(c *gin.Context) {
	if h.client == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "OpenRouter API key not configured"})
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message must not be empty"})
		return
	}

	completion, err := h.client.Complete(c.Request.Context(), req.Message)
	if err != nil {
		var upstream *openrouter.UpstreamError
		if errors.As(err, &upstream) {
			c.JSON(upstream.StatusCode, gin.H{"error": upstream.Message})
			return
		}
		h.logger.Error("chat completion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reach completion gateway"})
		return
	}
	c.JSON(http.StatusOK, completion)
}
