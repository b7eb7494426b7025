package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/models"
)

func TestOllamaBackend_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "qwen2.5:7b", body["model"])
		assert.Equal(t, false, body["stream"])
		opts := body["options"].(map[string]interface{})
		assert.InDelta(t, 0.1, opts["temperature"], 1e-9)
		assert.EqualValues(t, 20, opts["num_predict"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "DATA"},
		})
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.URL+"/", "qwen2.5:7b", "nomic-embed-text", nil)
	text, err := backend.Chat(context.Background(), Request{
		Messages:    []models.Message{models.UserMessage("인기 동영상")},
		Temperature: 0.1,
		MaxTokens:   20,
	})

	require.NoError(t, err)
	assert.Equal(t, "DATA", text)
}

func TestOllamaBackend_StatusIsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.URL, "m", "e", nil)
	_, err := backend.Chat(context.Background(), Request{MaxTokens: 1})

	assert.True(t, errors.Is(err, apperrors.ErrBackendError))
}

func TestOllamaBackend_ConnectionIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	backend := NewOllamaBackend(url, "m", "e", nil)
	_, err := backend.Chat(context.Background(), Request{MaxTokens: 1})

	assert.True(t, errors.Is(err, apperrors.ErrBackendUnavailable))
}

func TestOllamaBackend_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nomic-embed-text", body["model"])
		assert.Equal(t, "알고리즘", body["input"])
		_, _ = w.Write([]byte(`{"embeddings": [[0.1, 0.2, 0.3]]}`))
	}))
	defer server.Close()

	backend := NewOllamaBackend(server.URL, "m", "nomic-embed-text", nil)
	vec, err := backend.Embed(context.Background(), "알고리즘")

	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestOllamaBackend_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models": []}`))
	}))
	defer server.Close()

	gw := NewGateway(NewOllamaBackend(server.URL, "m", "e", nil), GatewayConfig{}, nil)
	assert.NoError(t, gw.Health(context.Background()))
}
