package analyzestatistics

import (
	"fmt"
	"strings"

	"analytics-chat/internal/common/format"
	"analytics-chat/internal/models"
)

// Metric name fragments listed in the order they are worth mentioning.
var highlightKeys = []string{"조회수", "구독자수", "좋아요", "댓글", "참여율", "성장률", "순위", "영상수", "시간당_조회수"}

// Highlights renders the summary as short prose-ready bullet lines.
func Highlights(summary models.StatisticsSummary) string {
	parts := make([]string, 0, len(summary.Views))
	for _, v := range summary.Views {
		parts = append(parts, viewHighlights(v))
	}
	return strings.Join(parts, "\n\n")
}

func viewHighlights(v models.ViewStatistics) string {
	lines := []string{fmt.Sprintf("**%s** 분석 (데이터 %d건)", v.ViewName, v.RowCount)}

	used := make(map[string]bool)
	for _, key := range highlightKeys {
		for _, c := range v.Columns {
			if c.Kind != models.ColumnNumeric || used[c.Name] || !strings.Contains(c.Name, key) {
				continue
			}
			lines = append(lines, fmt.Sprintf("  * %s: 평균 %s (최대 %s)", c.Name, format.Grouped(c.Avg, 1), format.Value(c.Max)))
			used[c.Name] = true
			break
		}
	}

	for _, c := range v.Correlations {
		direction := "강한 양의 상관관계"
		if c.R < 0 {
			direction = "강한 음의 상관관계"
		}
		lines = append(lines, fmt.Sprintf("  * [인사이트] %s와 %s 사이의 %s (r=%.2f)", c.ColumnA, c.ColumnB, direction, c.R))
	}

	for _, a := range v.Anomalies {
		status := "현저히 높음"
		if a.ZScore < 0 {
			status = "현저히 낮음"
		}
		lines = append(lines, fmt.Sprintf("  * [이상 탐지] '%s'의 %s가 %s (Z-Score: %.1f)", a.Label, a.Column, status, a.ZScore))
	}
	return strings.Join(lines, "\n")
}
