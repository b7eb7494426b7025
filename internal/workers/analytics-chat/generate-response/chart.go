package generateresponse

import (
	"fmt"
	"sort"
	"strings"

	"analytics-chat/internal/models"
)

const (
	pieMaxRows        = 12
	comparisonMaxRows = 10
	barMaxRows        = 25
	maxMetrics        = 3
)

var (
	labelKeywords  = []string{"제목", "채널", "카테고리", "날짜", "시간", "type", "name"}
	metricKeywords = []string{"조회수", "구독자", "참여율", "성장률", "좋아요", "댓글", "영상수", "count", "views", "subs", "rate"}
	ratioKeywords  = []string{"비율", "점유율", "share", "percent", "ratio"}
	timeKeywords   = []string{"날짜", "시간", "date", "time", "hour"}
)

// BuildChart derives a visualization from one view. It returns nil when the
// view has no rows.
func BuildChart(v models.ViewResult) *models.ChartPayload {
	if len(v.Rows) == 0 {
		return nil
	}

	columns := v.Columns
	if len(columns) == 0 {
		columns = sortedKeys(v.Rows[0])
	}
	first := v.Rows[0]

	label := labelColumn(columns, first)
	metrics := metricColumns(columns, first)

	payload := &models.ChartPayload{
		ChartType:        chartType(v.ViewName, label, columns, len(v.Rows)),
		Title:            chartTitle(v),
		ViewName:         v.ViewName,
		Columns:          columns,
		LabelColumn:      label,
		SecondaryMetrics: []string{},
		Totals:           map[string]float64{},
		RowCount:         len(v.Rows),
	}
	if len(metrics) > 0 {
		payload.PrimaryMetric = metrics[0]
		payload.SecondaryMetrics = metrics[1:]
	}
	if len(metrics) > 1 && (payload.ChartType == models.ChartBar || payload.ChartType == models.ChartLine) {
		payload.ChartType = models.ChartComparison
	}

	payload.Rows = make([]models.Row, 0, len(v.Rows))
	for _, row := range v.Rows {
		out := make(models.Row, len(row)+2)
		for k, val := range row {
			out[k] = val
		}
		name := "Unknown"
		if label != "" && row[label] != nil {
			name = fmt.Sprint(row[label])
		}
		out["name"] = name
		if payload.PrimaryMetric != "" {
			value, _ := models.ParseNumber(row[payload.PrimaryMetric])
			out["value"] = value
		}
		for _, m := range metrics {
			if n, ok := models.ParseNumber(row[m]); ok {
				payload.Totals[m] += n
			}
		}
		payload.Rows = append(payload.Rows, out)
	}

	return payload
}

// labelColumn prefers a keyword-named string column and falls back to the
// first string column.
func labelColumn(columns []string, first models.Row) string {
	for _, kw := range labelKeywords {
		for _, c := range columns {
			if strings.Contains(strings.ToLower(c), kw) && models.IsString(first[c]) {
				return c
			}
		}
	}
	for _, c := range columns {
		if models.IsString(first[c]) {
			return c
		}
	}
	return ""
}

func metricColumns(columns []string, first models.Row) []string {
	type candidate struct {
		name     string
		priority int
	}
	var found []candidate
	for _, c := range columns {
		lower := strings.ToLower(c)
		if strings.Contains(lower, "순위") || strings.Contains(lower, "id") {
			continue
		}
		if _, ok := models.Number(first[c]); !ok {
			continue
		}
		for i, kw := range metricKeywords {
			if strings.Contains(lower, kw) {
				found = append(found, candidate{name: c, priority: i})
				break
			}
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].priority < found[j].priority })

	out := make([]string, 0, maxMetrics)
	for _, f := range found {
		if len(out) == maxMetrics {
			break
		}
		out = append(out, f.name)
	}
	return out
}

// chartType picks a line only when the x axis is time-like. Ranking views
// carry numeric age columns such as 업로드후_시간, and matching on any column
// would turn every ranking into a line chart.
func chartType(viewName, label string, columns []string, rows int) models.ChartType {
	name := strings.ToLower(viewName)
	switch {
	case containsAny(strings.ToLower(label), timeKeywords) || containsAny(name, []string{"growth", "trend_", "hourly", "velocity"}):
		return models.ChartLine
	case rows <= pieMaxRows && (hasColumn(columns, ratioKeywords) || (strings.Contains(name, "category") && strings.Contains(name, "stats"))):
		return models.ChartPie
	case rows <= comparisonMaxRows && containsAny(name, []string{"vs", "comparison", "type"}):
		return models.ChartComparison
	case rows <= barMaxRows:
		return models.ChartBar
	default:
		return models.ChartTable
	}
}

func chartTitle(v models.ViewResult) string {
	title := v.Description
	if i := strings.Index(title, "("); i >= 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = v.ViewName
	}

	var values []string
	for _, f := range v.FiltersApplied {
		if f.Value != nil {
			values = append(values, fmt.Sprint(f.Value))
		}
	}
	if len(values) > 0 {
		title += " (" + strings.Join(values, ", ") + ")"
	}
	return title
}

func hasColumn(columns, keywords []string) bool {
	for _, c := range columns {
		if containsAny(strings.ToLower(c), keywords) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func sortedKeys(row models.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
