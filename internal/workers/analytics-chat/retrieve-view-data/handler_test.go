package retrieveviewdata

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
	"analytics-chat/pkg/registry"
)

type fakeStore struct {
	mu      sync.Mutex
	queries []Query
	respond func(q Query) (*Snapshot, error)
}

func (f *fakeStore) QueryView(_ context.Context, q Query) (*Snapshot, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.respond(q)
}

func (f *fakeStore) queriesFor(view string) []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Query
	for _, q := range f.queries {
		if q.View == view {
			out = append(out, q)
		}
	}
	return out
}

func newHandler(t *testing.T, store Store) *Handler {
	h := NewHandler(LoadConfig(), store, registry.Default(), logger.NewTestLogger(t))
	t.Cleanup(h.Close)
	return h
}

func rows(n int) []models.Row {
	out := make([]models.Row, n)
	for i := range out {
		out[i] = models.Row{"순위": float64(i + 1), "제목": "영상", "조회수": float64(1000 * (n - i))}
	}
	return out
}

func TestExecute_MissingFieldFilterSkipped(t *testing.T) {
	store := &fakeStore{respond: func(Query) (*Snapshot, error) {
		return &Snapshot{Columns: []string{"순위", "제목", "조회수"}, Rows: rows(5)}, nil
	}}
	filter := models.Filter{Field: "카테고리", Operator: "=", Value: "Gaming"}

	out, err := newHandler(t, store).Execute(context.Background(), &Input{
		Views:   []models.ViewRequest{{Name: registry.ViewCurrentTrending, Limit: 10}},
		Filters: []models.Filter{filter},
	})

	require.NoError(t, err)
	require.Len(t, out.Result.Views, 1)
	v := out.Result.Views[0]
	assert.Len(t, v.Rows, 5)
	assert.Empty(t, v.FiltersApplied)
	assert.Equal(t, []models.Filter{filter}, v.FiltersSkipped)
	assert.False(t, v.FallbackApplied)
	assert.Contains(t, out.Thinking, "필터 스킵 카테고리")

	// filters present, so the store was asked for three times the limit
	assert.Equal(t, 30, store.queriesFor(registry.ViewCurrentTrending)[0].Limit)
}

func TestExecute_EmptyFilteredResultFallsBack(t *testing.T) {
	store := &fakeStore{respond: func(q Query) (*Snapshot, error) {
		if len(q.Filters) > 0 {
			return &Snapshot{Columns: []string{"순위"}, Rows: []models.Row{}}, nil
		}
		return &Snapshot{Columns: []string{"순위", "제목", "조회수"}, Rows: rows(8)}, nil
	}}

	out, err := newHandler(t, store).Execute(context.Background(), &Input{
		Views:   []models.ViewRequest{{Name: registry.ViewCurrentTrending, Limit: 5}},
		Filters: []models.Filter{{Field: "카테고리", Operator: "=", Value: "Nonexistent"}},
	})

	require.NoError(t, err)
	v := out.Result.Views[0]
	assert.True(t, v.FallbackApplied)
	assert.Empty(t, v.FiltersApplied)
	assert.Len(t, v.Rows, 5)
	assert.Len(t, v.OriginalFilters, 1)

	qs := store.queriesFor(registry.ViewCurrentTrending)
	require.Len(t, qs, 2)
	assert.Empty(t, qs[1].Filters)
	assert.Equal(t, 5, qs[1].Limit)
}

func TestExecute_FailureIsolated(t *testing.T) {
	store := &fakeStore{respond: func(q Query) (*Snapshot, error) {
		if q.View == registry.ViewChannelStats {
			return nil, errors.New("pq: connection to 10.0.0.7 refused")
		}
		return &Snapshot{Rows: rows(3)}, nil
	}}

	out, err := newHandler(t, store).Execute(context.Background(), &Input{
		Views: []models.ViewRequest{
			{Name: registry.ViewCurrentTrending, Limit: 10},
			{Name: registry.ViewChannelStats, Limit: 10},
			{Name: registry.ViewCategoryStats, Limit: 10},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{registry.ViewCurrentTrending, registry.ViewCategoryStats}, out.Result.ViewNames())
	assert.Equal(t, []string{registry.ViewCurrentTrending, registry.ViewCategoryStats}, out.ToolsUsed)
	require.Len(t, out.Result.Failures, 1)
	assert.Equal(t, registry.ViewChannelStats, out.Result.Failures[0].ViewName)
	assert.NotContains(t, out.Result.Failures[0].Error, "10.0.0.7")
	assert.NotContains(t, out.Thinking, "10.0.0.7")
}

func TestExecute_PanicIsolated(t *testing.T) {
	store := &fakeStore{respond: func(q Query) (*Snapshot, error) {
		if q.View == registry.ViewChannelStats {
			panic("nil row scanner")
		}
		return &Snapshot{Rows: rows(2)}, nil
	}}

	out, err := newHandler(t, store).Execute(context.Background(), &Input{
		Views: []models.ViewRequest{
			{Name: registry.ViewCurrentTrending, Limit: 10},
			{Name: registry.ViewChannelStats, Limit: 10},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{registry.ViewCurrentTrending}, out.Result.ViewNames())
	require.Len(t, out.Result.Failures, 1)
	assert.Equal(t, registry.ViewChannelStats, out.Result.Failures[0].ViewName)
	assert.Equal(t, "INTERNAL_ERROR", out.Result.Failures[0].Error)
	assert.NotContains(t, out.Thinking, "nil row scanner")
}

func TestExecute_UnknownViewFails(t *testing.T) {
	store := &fakeStore{respond: func(Query) (*Snapshot, error) { return &Snapshot{Rows: rows(1)}, nil }}

	out, err := newHandler(t, store).Execute(context.Background(), &Input{
		Views: []models.ViewRequest{{Name: "ai_nope", Limit: 10}},
	})

	require.NoError(t, err)
	assert.Empty(t, out.Result.Views)
	require.Len(t, out.Result.Failures, 1)
	assert.Empty(t, store.queriesFor("ai_nope"))
}

func TestExecute_SortCorrection(t *testing.T) {
	store := &fakeStore{respond: func(Query) (*Snapshot, error) { return &Snapshot{Rows: rows(2)}, nil }}

	out, err := newHandler(t, store).Execute(context.Background(), &Input{
		Views: []models.ViewRequest{
			{Name: registry.ViewChannelStats, Limit: 10},
			{Name: registry.ViewRankMovement, Limit: 10},
		},
		Sort: &models.SortSpec{Field: "순위", Order: "asc"},
	})

	require.NoError(t, err)
	assert.Equal(t, &models.SortSpec{Field: "최고_순위", Order: "asc"}, store.queriesFor(registry.ViewChannelStats)[0].Sort)
	assert.Nil(t, store.queriesFor(registry.ViewRankMovement)[0].Sort)
	assert.Contains(t, out.Result.Views[0].Notes[0], "최고_순위")
}

func TestExecute_FiltersAndTruncates(t *testing.T) {
	store := &fakeStore{respond: func(Query) (*Snapshot, error) {
		return &Snapshot{Rows: rows(30)}, nil
	}}

	out, err := newHandler(t, store).Execute(context.Background(), &Input{
		Views:   []models.ViewRequest{{Name: registry.ViewCurrentTrending, Limit: 4}},
		Filters: []models.Filter{{Field: "조회수", Operator: ">=", Value: 10000}},
	})

	require.NoError(t, err)
	v := out.Result.Views[0]
	assert.Len(t, v.Rows, 4)
	assert.Len(t, v.FiltersApplied, 1)
	for _, r := range v.Rows {
		assert.GreaterOrEqual(t, r["조회수"].(float64), 10000.0)
	}
}

func TestPushdown(t *testing.T) {
	view, _ := registry.Default().Get(registry.ViewCurrentTrending)
	got := pushdown(view, []models.Filter{
		{Field: "카테고리", Operator: "=", Value: "Music"},
		{Field: "없는컬럼", Operator: "=", Value: "x"},
		{Field: "조회수", Operator: ">", Value: "많이"},
	})
	assert.Equal(t, []models.Filter{{Field: "카테고리", Operator: "=", Value: "Music"}}, got)
}
