package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whatthepatch/wtp/internal/engine"
)

func newTestEngine(t *testing.T, handler http.Handler) *Engine {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	v := viper.New()
	v.Set("api_key", "sk-test")
	v.Set("model", "gpt-4o-mini")

	e, err := NewEngine(v)
	require.NoError(t, err)
	return e.(*Engine).WithBaseURL(server.URL)
}

func TestGenerateReview(t *testing.T) {
	e := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "Review text."}},
			},
		})
	}))

	out, err := e.GenerateReview(context.Background(), engine.ReviewRequest{Template: "{diff}"})
	require.NoError(t, err)
	assert.Equal(t, "Review text.", out)
}

func TestGenerateReview_MissingAPIKey(t *testing.T) {
	e, err := NewEngine(viper.New())
	require.NoError(t, err)

	_, err = e.GenerateReview(context.Background(), engine.ReviewRequest{})
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}

func TestGenerateReview_QuotaError(t *testing.T) {
	e := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "You exceeded your current quota", "type": "insufficient_quota"},
		})
	}))

	_, err := e.GenerateReview(context.Background(), engine.ReviewRequest{Template: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrRateLimit)
	assert.Contains(t, err.Error(), "quota")
}

func TestTestConnection(t *testing.T) {
	e := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))
	assert.NoError(t, e.TestConnection(context.Background()))
}

func TestTestConnection_BadKey(t *testing.T) {
	e := newTestEngine(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	assert.ErrorIs(t, e.TestConnection(context.Background()), engine.ErrAuthentication)
}
