package generateresponse

import (
	"context"
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
	reply string
	err   error
	calls []llm.Request
}

func (s *scriptedBackend) Name() string { return "scripted" }

func (s *scriptedBackend) Chat(_ context.Context, req llm.Request) (string, error) {
	s.calls = append(s.calls, req)
	return s.reply, s.err
}

func newHandler(t *testing.T, backend llm.Backend) *Handler {
	gw := llm.NewGateway(backend, llm.GatewayConfig{}, logger.NewTestLogger(t))
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC))
	return NewHandler(LoadConfig(), gw, clock, logger.NewTestLogger(t))
}

func trendingView() models.ViewResult {
	return models.ViewResult{
		ViewName:    "ai_current_trending",
		Description: "현재 트렌딩 동영상 (실시간)",
		Columns:     []string{"순위", "제목", "채널명", "조회수", "좋아요", "카테고리"},
		Rows: []models.Row{
			{"순위": 1.0, "제목": "첫 영상", "채널명": "채널A", "조회수": 1500000.0, "좋아요": 2000.0, "카테고리": "Gaming"},
			{"순위": 2.0, "제목": "둘째 영상", "채널명": "채널B", "조회수": 900000.0, "좋아요": 1000.0, "카테고리": "Gaming"},
		},
		FiltersApplied: []models.Filter{{Field: "카테고리", Operator: "=", Value: "Gaming"}},
	}
}

func TestExecute_GroundedAnswer(t *testing.T) {
	backend := &scriptedBackend{reply: "<thinking>정리</thinking>\n게임 영상이 강세입니다.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n1. 첫 영상이 1위입니다."}
	out, err := newHandler(t, backend).Execute(context.Background(), &Input{
		Question:   "게임 인기 영상",
		Retrieval:  models.RetrievalResult{Views: []models.ViewResult{trendingView()}},
		Highlights: "**ai_current_trending** 분석 (데이터 2건)",
	})

	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "게임 영상이 강세입니다.\n\n\n1. 첫 영상이 1위입니다.", out.Text)
	assert.Equal(t, "comparison", out.ResponseType)
	require.NotNil(t, out.StructuredData)
	assert.Equal(t, "현재 트렌딩 동영상 (Gaming)", out.StructuredData.Title)
	assert.Contains(t, out.Thinking, "LLM 데이터 기반 응답 생성")
	assert.Contains(t, out.Thinking, "필터 적용: 카테고리=Gaming")

	require.Len(t, backend.calls, 1)
	req := backend.calls[0]
	assert.InDelta(t, 0.1, req.Temperature, 1e-9)
	system := req.Messages[0].Content
	assert.Contains(t, system, "[SOURCE_DATA]")
	assert.Contains(t, system, "2026-03-01 09:30")
	assert.Contains(t, system, "2026-03-01 00:30")
	assert.Contains(t, system, "총 2개 데이터")
	assert.Contains(t, system, "[통계 요약]")
}

func TestExecute_BackendDownFallsBackToSummary(t *testing.T) {
	backend := &scriptedBackend{err: fmt.Errorf("%w: connection refused", apperrors.ErrBackendUnavailable)}
	out, err := newHandler(t, backend).Execute(context.Background(), &Input{
		Question:  "게임 인기 영상",
		Retrieval: models.RetrievalResult{Views: []models.ViewResult{trendingView()}},
	})

	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, "text", out.ResponseType)
	assert.NotNil(t, out.StructuredData)
	assert.Contains(t, out.Text, "'게임 인기 영상'에 대한 조회 결과입니다:")
	assert.Contains(t, out.Text, "**ai_current_trending** (필터: 카테고리=Gaming): 2개 데이터")
	assert.Contains(t, out.Text, "1.5M")
	assert.Contains(t, out.Text, "- 순위 ")
	assert.Contains(t, out.Text, "채널 채널A · 제목 첫 영상")
	assert.NotContains(t, out.Text, "|---")
	assert.NotContains(t, out.Text, "| 순위")
	assert.NotContains(t, out.Text, "전체 데이터를 보여드립니다")
	assert.Contains(t, out.Thinking, "BACKEND_UNAVAILABLE")
	assert.NotContains(t, out.Text, "connection refused")
}

func TestExecute_BackendDownDisclosesUnfilteredFallback(t *testing.T) {
	view := trendingView()
	view.FallbackApplied = true
	view.OriginalFilters = []models.Filter{{Field: "채널명", Operator: "contains", Value: "없는채널"}}
	view.FiltersApplied = nil

	backend := &scriptedBackend{err: apperrors.ErrBackendUnavailable}
	out, err := newHandler(t, backend).Execute(context.Background(), &Input{
		Question:  "없는채널 영상",
		Retrieval: models.RetrievalResult{Views: []models.ViewResult{view}},
	})

	require.NoError(t, err)
	assert.True(t, out.Fallback)
	require.NotNil(t, out.StructuredData)
	assert.Contains(t, out.Text, "요청하신 조건(채널명=없는채널)에 맞는 데이터가 없어 전체 데이터를 보여드립니다.")
	assert.NotContains(t, out.Text, "|---")
}

func TestDataSummary_TablesWithoutChart(t *testing.T) {
	view := trendingView()
	view.FallbackApplied = true

	text := DataSummary("게임 인기 영상", []models.ViewResult{view}, true)

	assert.Contains(t, text, "| 순위")
	assert.Contains(t, text, "채널A")
	assert.Contains(t, text, "요청하신 조건에 맞는 데이터가 없어 전체 데이터를 보여드립니다.")
	assert.NotContains(t, text, "- 순위 ")
}

func TestExecute_NoData(t *testing.T) {
	analysis := &models.QuestionAnalysis{
		Intent:  models.IntentSearch,
		Filters: []models.Filter{{Field: "채널명", Operator: "contains", Value: "없는채널"}},
	}

	t.Run("model explains", func(t *testing.T) {
		backend := &scriptedBackend{reply: "해당 채널은 아직 트렌딩에 오르지 않았습니다."}
		out, err := newHandler(t, backend).Execute(context.Background(), &Input{
			Question:  "없는채널 영상",
			Analysis:  analysis,
			Retrieval: models.RetrievalResult{Views: []models.ViewResult{{ViewName: "ai_current_trending"}}},
		})
		require.NoError(t, err)
		assert.Equal(t, "해당 채널은 아직 트렌딩에 오르지 않았습니다.", out.Text)
		assert.Equal(t, "text", out.ResponseType)
		assert.Nil(t, out.StructuredData)
		require.Len(t, backend.calls, 1)
		assert.InDelta(t, 0.3, backend.calls[0].Temperature, 1e-9)
		assert.Contains(t, backend.calls[0].Messages[0].Content, "채널명=없는채널")
	})

	t.Run("model down", func(t *testing.T) {
		backend := &scriptedBackend{err: apperrors.ErrBackendUnavailable}
		out, err := newHandler(t, backend).Execute(context.Background(), &Input{Question: "없는채널 영상", Analysis: analysis})
		require.NoError(t, err)
		assert.Equal(t, noDataApology, out.Text)
		assert.True(t, out.Fallback)
		assert.Nil(t, out.StructuredData)
	})
}

func TestDataContext_FallbackWarning(t *testing.T) {
	v := trendingView()
	v.FiltersApplied = nil
	v.FallbackApplied = true
	v.OriginalFilters = []models.Filter{{Field: "채널명", Operator: "contains", Value: "없는채널"}}

	text := DataContext(models.RetrievalResult{Views: []models.ViewResult{v, {ViewName: "ai_channel_stats"}}}, 20, 0)
	assert.Contains(t, text, FallbackMarker)
	assert.Contains(t, text, "채널명=없는채널")
	assert.Contains(t, text, "### ai_current_trending\n")
	assert.NotContains(t, text, "ai_channel_stats")
}

func TestDataContext_SampleCapped(t *testing.T) {
	rows := make([]models.Row, 50)
	for i := range rows {
		rows[i] = models.Row{"순위": float64(i + 1), "제목": fmt.Sprintf("영상 %d", i+1)}
	}
	text := DataContext(models.RetrievalResult{Views: []models.ViewResult{{ViewName: "ai_current_trending", Rows: rows}}}, 20, 0)
	assert.Contains(t, text, "총 50개 데이터")
	assert.Contains(t, text, "영상 20\"")
	assert.NotContains(t, text, "영상 21\"")

	small := DataContext(models.RetrievalResult{Views: []models.ViewResult{{ViewName: "ai_current_trending", Rows: rows}}}, 20, 600)
	assert.NotContains(t, small, "영상 11\"")
}

func TestStripMarkdownTables(t *testing.T) {
	in := "요약\n| 채널 | 구독자 |\n|:---|---:|\n| A | 1 |\n| B | 2 |\n끝"
	assert.Equal(t, "요약\n끝", StripMarkdownTables(in))
	assert.Equal(t, "| 파이프지만 표는 아님", StripMarkdownTables("| 파이프지만 표는 아님"))
}
