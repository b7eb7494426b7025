package analyzequestion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
)

type scriptedBackend struct {
	replies []string
	err     error
	calls   []llm.Request
}

func (s *scriptedBackend) Name() string { return "scripted" }

func (s *scriptedBackend) Chat(_ context.Context, req llm.Request) (string, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return "", s.err
	}
	i := len(s.calls) - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i], nil
}

func newHandler(t *testing.T, backend llm.Backend) *Handler {
	gw := llm.NewGateway(backend, llm.GatewayConfig{}, logger.NewTestLogger(t))
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))
	return NewHandler(LoadConfig(), gw, clock, logger.NewTestLogger(t))
}

const gamingReply = `<thinking>게임 카테고리 순위 질문</thinking>
` + "```json" + `
{
  "intent": "ranking",
  "entities": {"category": "Gaming"},
  "filters": [{"field": "카테고리", "operator": "=", "value": "Gaming"}],
  "sort": {"field": "순위", "order": "asc"},
  "limit": 10,
  "required_views": [{"name": "ai_current_trending", "limit": 10, "reason": "순위"}]
}
` + "```"

func TestExecute_ParsesPlan(t *testing.T) {
	backend := &scriptedBackend{replies: []string{gamingReply}}
	out, err := newHandler(t, backend).Execute(context.Background(), &Input{
		Question:   "게임 카테고리 인기 영상 10개",
		SchemaText: "- ai_current_trending: 현재 트렌딩",
	})

	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, models.IntentRanking, out.Analysis.Intent)
	assert.Equal(t, 10, out.Analysis.Limit)
	assert.Equal(t, "게임 카테고리 순위 질문", out.Thinking)
	// category entity already has a filter, so it is not duplicated
	assert.Len(t, out.Analysis.Filters, 1)
	require.Len(t, out.Analysis.RequiredViews, 1)
	assert.Equal(t, models.ViewRequest{Name: "ai_current_trending", Limit: 10, Reason: "순위"}, out.Analysis.RequiredViews[0])

	require.Len(t, backend.calls, 1)
	req := backend.calls[0]
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
	assert.Equal(t, 1024, req.MaxTokens)
	assert.Contains(t, req.Messages[0].Content, "2026-03-01 09:30")
	assert.Contains(t, req.Messages[1].Content, "ai_current_trending")
	assert.Contains(t, req.Messages[1].Content, "Nonprofits & Activism")
}

func TestExecute_LastTurnIncluded(t *testing.T) {
	backend := &scriptedBackend{replies: []string{gamingReply}}
	_, err := newHandler(t, backend).Execute(context.Background(), &Input{
		Question:        "그거 다시 보여줘",
		LastTurnSummary: "User: 게임 순위\nAssistant: 1위는...",
	})

	require.NoError(t, err)
	assert.Contains(t, backend.calls[0].Messages[1].Content, "User: 게임 순위")
}

func TestExecute_RetriesUntilValid(t *testing.T) {
	backend := &scriptedBackend{replies: []string{"잘 모르겠어요", `{"entities": {}}`, gamingReply}}
	out, err := newHandler(t, backend).Execute(context.Background(), &Input{Question: "게임 순위"})

	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Len(t, backend.calls, 3)
	assert.Equal(t, models.IntentRanking, out.Analysis.Intent)
}

func TestExecute_UnparsableFallsBack(t *testing.T) {
	backend := &scriptedBackend{replies: []string{"JSON 없음"}}
	out, err := newHandler(t, backend).Execute(context.Background(), &Input{Question: "인기 영상 알려줘"})

	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, models.IntentSearch, out.Analysis.Intent)
	assert.Equal(t, 20, out.Analysis.Limit)
	assert.Equal(t, []models.ViewRequest{{Name: "ai_current_trending", Limit: 20, Reason: "기본 View"}}, out.Analysis.RequiredViews)
	assert.Contains(t, out.Thinking, "폴백 분석 사용")
}

func TestExecute_BackendDownGreetingIsConversation(t *testing.T) {
	backend := &scriptedBackend{err: fmt.Errorf("%w: connection refused", apperrors.ErrBackendUnavailable)}
	out, err := newHandler(t, backend).Execute(context.Background(), &Input{Question: "안녕! 너는 누구야?"})

	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, models.IntentConversation, out.Analysis.Intent)
	assert.Empty(t, out.Analysis.RequiredViews)
	assert.Contains(t, out.Thinking, string(apperrors.ErrCodeBackendUnavailable))
	assert.NotContains(t, out.Thinking, "connection refused")
}

func TestParse(t *testing.T) {
	h := newHandler(t, &scriptedBackend{replies: []string{""}})

	t.Run("no json", func(t *testing.T) {
		_, err := h.Parse("그냥 텍스트")
		assert.True(t, errors.Is(err, apperrors.ErrValidationFailure))
	})

	t.Run("missing intent", func(t *testing.T) {
		_, err := h.Parse(`{"limit": 5}`)
		assert.True(t, errors.Is(err, apperrors.ErrValidationFailure))
	})

	t.Run("defaults", func(t *testing.T) {
		a, err := h.Parse(`{"intent": "SEARCH"}`)
		require.NoError(t, err)
		assert.Equal(t, models.IntentSearch, a.Intent)
		assert.NotNil(t, a.Entities)
		assert.Empty(t, a.Filters)
		assert.Equal(t, &models.SortSpec{Field: "순위", Order: "asc"}, a.Sort)
		assert.Equal(t, 20, a.Limit)
		assert.Empty(t, a.RequiredViews)
	})

	t.Run("unknown intent becomes search", func(t *testing.T) {
		a, err := h.Parse(`{"intent": "forecast"}`)
		require.NoError(t, err)
		assert.Equal(t, models.IntentSearch, a.Intent)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		a, err := h.Parse(`{"intent": "search", "limit": 500}`)
		require.NoError(t, err)
		assert.Equal(t, 100, a.Limit)

		a, err = h.Parse(`{"intent": "search", "limit": "0"}`)
		require.NoError(t, err)
		assert.Equal(t, 1, a.Limit)
	})

	t.Run("entities become filters", func(t *testing.T) {
		a, err := h.Parse(`{"intent": "search", "entities": {"category": "Music", "channel": "HYBE"}}`)
		require.NoError(t, err)
		assert.Equal(t, []models.Filter{
			{Field: "카테고리", Operator: "=", Value: "Music"},
			{Field: "채널명", Operator: "contains", Value: "HYBE"},
		}, a.Filters)
	})

	t.Run("operators are normalized", func(t *testing.T) {
		a, err := h.Parse(`{"intent": "search", "filters": [
			{"field": "채널명", "operator": "CONTAINS", "value": "뉴스"},
			{"field": "조회수", "operator": "~", "value": 10}
		]}`)
		require.NoError(t, err)
		assert.Equal(t, "contains", a.Filters[0].Operator)
		assert.Equal(t, "=", a.Filters[1].Operator)
	})

	t.Run("string view items", func(t *testing.T) {
		a, err := h.Parse(`{"intent": "statistics", "limit": 15, "required_views": ["ai_category_stats", {"name": "ai_channel_stats", "limit": 300}]}`)
		require.NoError(t, err)
		assert.Equal(t, []models.ViewRequest{
			{Name: "ai_category_stats", Limit: 15},
			{Name: "ai_channel_stats", Limit: 100},
		}, a.RequiredViews)
	})

	t.Run("conversation drops views", func(t *testing.T) {
		a, err := h.Parse(`{"intent": "conversation", "required_views": ["ai_current_trending"]}`)
		require.NoError(t, err)
		assert.Empty(t, a.RequiredViews)
	})
}

func TestFallbackAnalysis(t *testing.T) {
	a := FallbackAnalysis("반가워요", "x", "ai_current_trending", 20)
	assert.Equal(t, models.IntentConversation, a.Intent)
	assert.Empty(t, a.RequiredViews)

	a = FallbackAnalysis("게임 순위", "x", "ai_current_trending", 20)
	assert.Equal(t, models.IntentSearch, a.Intent)
	assert.Len(t, a.RequiredViews, 1)
	assert.Equal(t, "폴백 분석 사용 (이유: x)", a.Reasoning)
}
