// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-chat/internal/api"
	"analytics-chat/internal/app"
	"analytics-chat/internal/common/config"
	"analytics-chat/internal/common/database"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
)

// These tests need Postgres and a language-model backend. Run them with
// ANALYTICS_E2E=1 against the docker-compose stack.
func requireStack(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("ANALYTICS_E2E") == "" {
		t.Skip("set ANALYTICS_E2E=1 to run end-to-end tests")
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

const fixtureSQL = `
CREATE TABLE IF NOT EXISTS ai_current_trending (
	"순위" INTEGER, "제목" TEXT, "채널명" TEXT, "카테고리" TEXT,
	"조회수" BIGINT, "좋아요" BIGINT, "참여율_퍼센트" NUMERIC
);
TRUNCATE ai_current_trending;
INSERT INTO ai_current_trending VALUES
	(1, '첫 영상', '채널A', 'Gaming', 1500000, 42000, 2.8),
	(2, '둘째 영상', '채널B', 'Music', 900000, 31000, 3.4),
	(3, '셋째 영상', '채널C', 'Gaming', 450000, 12000, 2.7);
CREATE TABLE IF NOT EXISTS chat_history (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

func seed(t *testing.T, cfg *config.Config) {
	t.Helper()
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err = pg.DB.ExecContext(ctx, fixtureSQL)
	require.NoError(t, err)
}

func startServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	log := logger.NewTestLogger(t)

	a, err := app.New(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	var ingester api.Ingester
	if a.Ingester != nil {
		ingester = a.Ingester
	}
	srv := httptest.NewServer(api.NewServer(a.Service, ingester, log).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func ask(t *testing.T, srv *httptest.Server, message, session string) *models.ChatResponse {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"message": message, "sessionId": session})
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out models.ChatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &out
}

func TestChatEndToEnd(t *testing.T) {
	cfg := requireStack(t)
	seed(t, cfg)
	srv := startServer(t, cfg)

	t.Run("ranking question", func(t *testing.T) {
		out := ask(t, srv, "현재 인기 동영상 TOP 10", "e2e-ranking")

		require.Nil(t, out.Error, out.Thinking)
		assert.Equal(t, models.RouteData, out.Route)
		assert.NotEmpty(t, out.Response)
		assert.Contains(t, out.ToolsUsed, "ai_current_trending")
		require.NotNil(t, out.StructuredData)
		assert.LessOrEqual(t, out.StructuredData.RowCount, 100)
	})

	t.Run("greeting", func(t *testing.T) {
		out := ask(t, srv, "안녕하세요", "e2e-greeting")

		require.Nil(t, out.Error)
		assert.NotEmpty(t, out.Response)
		assert.Empty(t, out.ToolsUsed)
	})

	t.Run("history can be cleared", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/history/e2e-ranking", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestHealthEndToEnd(t *testing.T) {
	cfg := requireStack(t)
	srv := startServer(t, cfg)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Contains(t, []string{"healthy", "degraded"}, status["status"])
	assert.Equal(t, "ok", status["components"].(map[string]interface{})["postgres"])
}
