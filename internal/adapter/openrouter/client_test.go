package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplete_SendsAttributionHeaders(t *testing.T) {
	var captured struct {
		auth    string
		referer string
		title   string
		payload map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")
		captured.referer = r.Header.Get("HTTP-Referer")
		captured.title = r.Header.Get("X-Title")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.payload))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClientWithURL(srv.Client(), Config{
		APIKey:   "secret",
		SiteURL:  "https://example.dev",
		SiteName: "Example",
	}, srv.URL)

	completion, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, completion.Choices, 1)
	require.Equal(t, "hi", completion.Choices[0].Message.Content)

	require.Equal(t, "Bearer secret", captured.auth)
	require.Equal(t, "https://example.dev", captured.referer)
	require.Equal(t, "Example", captured.title)
	require.Equal(t, "deepseek/deepseek-chat", captured.payload["model"])

	messages, ok := captured.payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
}

func TestComplete_GatewayRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Insufficient credits"}}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClientWithURL(srv.Client(), Config{APIKey: "secret"}, srv.URL)

	_, err := client.Complete(context.Background(), "hello")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, http.StatusPaymentRequired, upstream.StatusCode)
	require.Equal(t, "Insufficient credits", upstream.Message)
}

func TestComplete_ModelOverride(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		model, _ = payload["model"].(string)
		w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	client := NewClientWithURL(srv.Client(), Config{APIKey: "secret", Model: "another/model"}, srv.URL)

	_, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "another/model", model)
}
