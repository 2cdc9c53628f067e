// Package openrouter proxies chat-completion requests to the OpenRouter
// gateway.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultCompletionsURL = "https://openrouter.ai/api/v1/chat/completions"

const defaultModel = "deepseek/deepseek-chat"

// Config carries the gateway credentials and the attribution headers
// OpenRouter recommends.
type Config struct {
	APIKey   string
	Model    string
	SiteURL  string
	SiteName string
}

// CompletionResponse is the subset of the gateway response the chat widget
// consumes. Choices mirror the OpenAI wire shape.
type CompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// UpstreamError carries a gateway rejection with its status and message.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("openrouter: completion failed: status=%d message=%s", e.StatusCode, e.Message)
}

// Client is the HTTP OpenRouter client.
type Client struct {
	httpClient     *http.Client
	completionsURL string
	cfg            Config
}

// NewClient constructs a Client. A nil http.Client gets a 30s timeout since
// completions are slow.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Client{httpClient: httpClient, completionsURL: defaultCompletionsURL, cfg: cfg}
}

// NewClientWithURL overrides the completions endpoint, for tests.
func NewClientWithURL(httpClient *http.Client, cfg Config, completionsURL string) *Client {
	c := NewClient(httpClient, cfg)
	if strings.TrimSpace(completionsURL) != "" {
		c.completionsURL = completionsURL
	}
	return c
}

// Complete sends a single-turn user message and returns the gateway
// response.
func (c *Client) Complete(ctx context.Context, message string) (*CompletionResponse, error) {
	payload := map[string]any{
		"model": c.cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": message},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.SiteURL != "" {
		req.Header.Set("HTTP-Referer", c.cfg.SiteURL)
	}
	if c.cfg.SiteName != "" {
		req.Header.Set("X-Title", c.cfg.SiteName)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var failure struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		message := resp.Status
		if err := json.Unmarshal(body, &failure); err == nil && failure.Error.Message != "" {
			message = failure.Error.Message
		}
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: message}
	}

	var completion CompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	return &completion, nil
}
