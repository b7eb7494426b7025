package analyzestatistics

import (
	"math"
	"sort"
	"strings"

	"analytics-chat/internal/models"
)

// Engine computes descriptive statistics over retrieved rows. It is pure:
// the same rows always give the same summary.
type Engine struct {
	config *Config
}

func NewEngine(config *Config) *Engine {
	return &Engine{config: config}
}

func (e *Engine) Summarize(views []models.ViewResult) models.StatisticsSummary {
	summary := models.StatisticsSummary{Views: []models.ViewStatistics{}}
	for _, v := range views {
		if len(v.Rows) == 0 {
			continue
		}
		summary.Views = append(summary.Views, e.AnalyzeView(v))
	}
	return summary
}

func (e *Engine) AnalyzeView(v models.ViewResult) models.ViewStatistics {
	stats := models.ViewStatistics{ViewName: v.ViewName, RowCount: len(v.Rows)}

	var numeric []string
	for _, col := range columnOrder(v) {
		values := nonNil(v.Rows, col)
		if len(values) == 0 {
			continue
		}
		if _, ok := models.Number(values[0]); ok {
			if cs, ok := numericStats(col, values); ok {
				stats.Columns = append(stats.Columns, cs)
				numeric = append(numeric, col)
			}
			continue
		}
		if models.IsString(values[0]) && !isIdentifier(col) {
			stats.Columns = append(stats.Columns, categoricalStats(col, values))
		}
	}

	if len(v.Rows) > e.config.DeepAnalysisMinRows {
		stats.Correlations = e.correlations(v.Rows, numeric)
		stats.Anomalies = e.anomalies(v.Rows, numeric, &stats)
	}
	return stats
}

func (e *Engine) correlations(rows []models.Row, numeric []string) []models.Correlation {
	var out []models.Correlation
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			if len(out) >= e.config.MaxCorrelations {
				return out
			}
			xs, ys := pairs(rows, numeric[i], numeric[j])
			if len(xs) < e.config.CorrelationMinPairs {
				continue
			}
			r, ok := pearson(xs, ys)
			if !ok || math.Abs(r) <= e.config.CorrelationCutoff {
				continue
			}
			out = append(out, models.Correlation{ColumnA: numeric[i], ColumnB: numeric[j], R: r})
		}
	}
	return out
}

func (e *Engine) anomalies(rows []models.Row, numeric []string, stats *models.ViewStatistics) []models.Anomaly {
	var out []models.Anomaly
	for _, col := range numeric {
		cs, _ := stats.Column(col)
		if cs.StdDev == 0 {
			continue
		}
		for i, row := range rows {
			if len(out) >= e.config.MaxAnomalies {
				return out
			}
			val, ok := models.Number(row[col])
			if !ok {
				continue
			}
			z := (val - cs.Avg) / cs.StdDev
			if math.Abs(z) > e.config.AnomalyZ {
				out = append(out, models.Anomaly{
					Column:   col,
					Label:    rowLabel(row),
					RowIndex: i,
					Value:    val,
					ZScore:   z,
				})
			}
		}
	}
	return out
}

func numericStats(col string, values []interface{}) (models.ColumnStats, bool) {
	var nums []float64
	for _, v := range values {
		if f, ok := models.Number(v); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return models.ColumnStats{}, false
	}

	cs := models.ColumnStats{Name: col, Kind: models.ColumnNumeric, Count: len(nums), Min: nums[0], Max: nums[0]}
	for _, n := range nums {
		cs.Total += n
		cs.Min = math.Min(cs.Min, n)
		cs.Max = math.Max(cs.Max, n)
	}
	cs.Avg = cs.Total / float64(len(nums))
	cs.StdDev = sampleStdDev(nums, cs.Avg)
	return cs, true
}

func categoricalStats(col string, values []interface{}) models.ColumnStats {
	counts := make(map[string]int)
	cs := models.ColumnStats{Name: col, Kind: models.ColumnCategorical}
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		cs.Count++
		counts[s]++
		// first value to reach the highest count wins
		if counts[s] > cs.TopCount {
			cs.TopValue, cs.TopCount = s, counts[s]
		}
	}
	cs.Unique = len(counts)
	return cs
}

// sampleStdDev uses the n-1 denominator and is 0 for fewer than two values.
func sampleStdDev(nums []float64, mean float64) float64 {
	if len(nums) < 2 {
		return 0
	}
	var ss float64
	for _, n := range nums {
		d := n - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(nums)-1))
}

func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	var sx, sy float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
	}
	mx, my := sx/n, sy/n

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	return cov / math.Sqrt(vx*vy), true
}

// pairs returns the rows where both columns are numeric.
func pairs(rows []models.Row, a, b string) ([]float64, []float64) {
	var xs, ys []float64
	for _, row := range rows {
		x, ok1 := models.Number(row[a])
		y, ok2 := models.Number(row[b])
		if ok1 && ok2 {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

func nonNil(rows []models.Row, col string) []interface{} {
	var out []interface{}
	for _, row := range rows {
		if v, ok := row[col]; ok && v != nil {
			out = append(out, v)
		}
	}
	return out
}

func columnOrder(v models.ViewResult) []string {
	if len(v.Columns) > 0 {
		return v.Columns
	}
	keys := make([]string, 0, len(v.Rows[0]))
	for k := range v.Rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isIdentifier(col string) bool {
	lower := strings.ToLower(col)
	return strings.Contains(lower, "id") || strings.Contains(lower, "url")
}

func rowLabel(row models.Row) string {
	for _, key := range []string{"제목", "채널명"} {
		if s, ok := row[key].(string); ok && s != "" {
			return s
		}
	}
	return "특정 항목"
}
