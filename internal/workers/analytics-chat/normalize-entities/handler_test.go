package normalizeentities

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-chat/internal/common/cache"
	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
)

type fakeBackend struct {
	reply string
	err   error
	calls int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Chat(_ context.Context, _ llm.Request) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newHandler(t *testing.T, backend llm.Backend, c cache.Cache) *Handler {
	gw := llm.NewGateway(backend, llm.GatewayConfig{}, logger.NewTestLogger(t))
	return NewHandler(LoadConfig(), gw, c, logger.NewTestLogger(t))
}

func koreanAnalysis() models.QuestionAnalysis {
	return models.QuestionAnalysis{
		Intent:   models.IntentRanking,
		Entities: map[string]interface{}{"category": "게임"},
		Filters: []models.Filter{
			{Field: "카테고리", Operator: "=", Value: "게임"},
			{Field: "조회수", Operator: ">", Value: 1000},
		},
	}
}

func TestIsEnglish(t *testing.T) {
	assert.True(t, IsEnglish("Gaming", 0.7))
	assert.True(t, IsEnglish("News & Politics", 0.7))
	assert.True(t, IsEnglish("", 0.7))
	assert.False(t, IsEnglish("게임", 0.7))
	assert.False(t, IsEnglish("K-pop 음악", 0.7))
}

func TestExecute_EnglishSkipsModel(t *testing.T) {
	backend := &fakeBackend{}
	in := models.QuestionAnalysis{
		Entities: map[string]interface{}{"category": "Music"},
		Filters:  []models.Filter{{Field: "카테고리", Operator: "=", Value: "Music"}},
	}
	out, err := newHandler(t, backend, nil).Execute(context.Background(), &Input{Analysis: in})

	require.NoError(t, err)
	assert.Equal(t, 0, backend.calls)
	assert.Equal(t, in, out.Analysis)
}

func TestExecute_RewritesEntitiesAndFilters(t *testing.T) {
	backend := &fakeBackend{reply: `{"mappings": [{"original": "게임", "normalized": "gaming"}]}`}
	in := koreanAnalysis()
	out, err := newHandler(t, backend, nil).Execute(context.Background(), &Input{Analysis: in})

	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, "Gaming", out.Analysis.Entities["category"])
	assert.Equal(t, "Gaming", out.Analysis.Filters[0].Value)
	assert.Equal(t, 1000, out.Analysis.Filters[1].Value)
	assert.Equal(t, map[string]string{"게임": "Gaming"}, out.Mappings)
	assert.Contains(t, out.Thinking, "게임 -> Gaming")

	// input is not mutated
	assert.Equal(t, "게임", in.Filters[0].Value)
}

func TestExecute_OffTaxonomyMappingIgnored(t *testing.T) {
	backend := &fakeBackend{reply: `{"mappings": [{"original": "게임", "normalized": "Video Games"}]}`}
	out, err := newHandler(t, backend, nil).Execute(context.Background(), &Input{Analysis: koreanAnalysis()})

	require.NoError(t, err)
	assert.Equal(t, "게임", out.Analysis.Filters[0].Value)
	assert.Empty(t, out.Mappings)
}

func TestExecute_FailureKeepsOriginal(t *testing.T) {
	for name, backend := range map[string]*fakeBackend{
		"backend error": {err: errors.New("boom")},
		"bad json":      {reply: "게임은 Gaming 입니다"},
		"bad shape":     {reply: `{"mappings": "Gaming"}`},
	} {
		t.Run(name, func(t *testing.T) {
			out, err := newHandler(t, backend, nil).Execute(context.Background(), &Input{Analysis: koreanAnalysis()})
			require.NoError(t, err)
			assert.Equal(t, koreanAnalysis(), out.Analysis)
		})
	}
}

func TestExecute_MappingCached(t *testing.T) {
	c := cache.NewMemoryCache(cache.Options{TTL: time.Hour})
	backend := &fakeBackend{reply: `{"mappings": [{"original": "게임", "normalized": "Gaming"}]}`}
	h := newHandler(t, backend, c)

	for i := 0; i < 2; i++ {
		out, err := h.Execute(context.Background(), &Input{Analysis: koreanAnalysis()})
		require.NoError(t, err)
		assert.Equal(t, "Gaming", out.Analysis.Filters[0].Value)
	}
	assert.Equal(t, 1, backend.calls)
}
