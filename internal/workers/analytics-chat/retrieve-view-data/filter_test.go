package retrieveviewdata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"analytics-chat/internal/models"
)

func trendingRows() []models.Row {
	return []models.Row{
		{"순위": float64(1), "채널명": "HYBE LABELS", "카테고리": "Music", "조회수": float64(1200000), "업로드후_시간": float64(12)},
		{"순위": float64(2), "채널명": "침착맨", "카테고리": "Entertainment", "조회수": float64(450000), "업로드후_시간": float64(30)},
		{"순위": float64(3), "채널명": "Hybe Japan", "카테고리": "music", "조회수": float64(90000), "업로드후_시간": float64(5)},
		{"순위": float64(4), "채널명": "게임왕", "카테고리": nil, "조회수": "n/a", "업로드후_시간": float64(100)},
	}
}

func TestApplyFilters_Operators(t *testing.T) {
	tests := []struct {
		name   string
		filter models.Filter
		want   []float64
	}{
		{"equal ignores case", models.Filter{Field: "카테고리", Operator: "=", Value: "MUSIC"}, []float64{1, 3}},
		{"contains ignores case", models.Filter{Field: "채널명", Operator: "contains", Value: "hybe"}, []float64{1, 3}},
		{"greater", models.Filter{Field: "조회수", Operator: ">", Value: 100000}, []float64{1, 2}},
		{"greater equal string value", models.Filter{Field: "조회수", Operator: ">=", Value: "450,000"}, []float64{1, 2}},
		{"less", models.Filter{Field: "조회수", Operator: "<", Value: float64(100000)}, []float64{3}},
		{"window token", models.Filter{Field: "업로드후_시간", Operator: "<=", Value: "24h"}, []float64{1, 3}},
		{"day token", models.Filter{Field: "업로드후_시간", Operator: "<", Value: "2d"}, []float64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, applied, skipped := ApplyFilters(trendingRows(), []models.Filter{tt.filter})
			assert.Len(t, applied, 1)
			assert.Empty(t, skipped)
			var ranks []float64
			for _, r := range kept {
				ranks = append(ranks, r["순위"].(float64))
			}
			assert.Equal(t, tt.want, ranks)
		})
	}
}

// Rows lacking the filter field pass through and the filter is skipped.
func TestApplyFilters_MissingFieldSkipped(t *testing.T) {
	rows := []models.Row{{"제목": "a", "조회수": 1.0}, {"제목": "b", "조회수": 2.0}}
	filter := models.Filter{Field: "카테고리", Operator: "=", Value: "Gaming"}

	kept, applied, skipped := ApplyFilters(rows, []models.Filter{filter})

	assert.Equal(t, rows, kept)
	assert.Empty(t, applied)
	assert.Equal(t, []models.Filter{filter}, skipped)
}

func TestApplyFilters_NonNumericComparisonSkipped(t *testing.T) {
	rows := trendingRows()
	kept, applied, skipped := ApplyFilters(rows, []models.Filter{{Field: "조회수", Operator: ">", Value: "많이"}})

	assert.Len(t, kept, len(rows))
	assert.Empty(t, applied)
	assert.Len(t, skipped, 1)
}

func TestApplyFilters_NilValueIgnored(t *testing.T) {
	rows := trendingRows()
	kept, applied, skipped := ApplyFilters(rows, []models.Filter{{Field: "카테고리", Operator: "=", Value: nil}})

	assert.Len(t, kept, len(rows))
	assert.Empty(t, applied)
	assert.Empty(t, skipped)
}

func TestCompareValue(t *testing.T) {
	for in, want := range map[interface{}]float64{
		"1h": 1, "24h": 24, "7d": 168, "2w": 336, "1,000": 1000, 42: 42, 3.5: 3.5,
	} {
		got, ok := CompareValue(in)
		assert.True(t, ok, "%v", in)
		assert.Equal(t, want, got, "%v", in)
	}
	_, ok := CompareValue("최근")
	assert.False(t, ok)
}
