package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-test:generateContent")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": " Diversification spreads risk across assets. "}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer ts.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "test-key", Model: "gemini-test", BaseURL: ts.URL})
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), "What is diversification?", "Answer in one sentence.")
	require.NoError(t, err)
	assert.Equal(t, "Diversification spreads risk across assets.", text)
}

func TestGenerate_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"code": 503, "message": "unavailable", "status": "UNAVAILABLE"}}`)) //nolint:errcheck
	}))
	defer ts.Close()

	c, err := NewClient(context.Background(), Config{APIKey: "test-key", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini: generate content")
}
