package models

type ColumnKind string

const (
	ColumnNumeric     ColumnKind = "numeric"
	ColumnCategorical ColumnKind = "categorical"
)

type ColumnStats struct {
	Name   string     `json:"name"`
	Kind   ColumnKind `json:"kind"`
	Count  int        `json:"count"`
	Total  float64    `json:"total,omitempty"`
	Avg    float64    `json:"avg,omitempty"`
	Min    float64    `json:"min,omitempty"`
	Max    float64    `json:"max,omitempty"`
	StdDev float64    `json:"stddev,omitempty"`

	TopValue string `json:"top_value,omitempty"`
	TopCount int    `json:"top_count,omitempty"`
	Unique   int    `json:"unique,omitempty"`
}

type Correlation struct {
	ColumnA string  `json:"column_a"`
	ColumnB string  `json:"column_b"`
	R       float64 `json:"r"`
}

type Anomaly struct {
	Column   string  `json:"column"`
	Label    string  `json:"label"`
	RowIndex int     `json:"row_index"`
	Value    float64 `json:"value"`
	ZScore   float64 `json:"z_score"`
}

type ViewStatistics struct {
	ViewName     string        `json:"view_name"`
	RowCount     int           `json:"row_count"`
	Columns      []ColumnStats `json:"columns"`
	Correlations []Correlation `json:"correlations,omitempty"`
	Anomalies    []Anomaly     `json:"anomalies,omitempty"`
}

func (v *ViewStatistics) Column(name string) (ColumnStats, bool) {
	for _, c := range v.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnStats{}, false
}

type StatisticsSummary struct {
	Views []ViewStatistics `json:"views"`
}

func (s *StatisticsSummary) View(name string) (*ViewStatistics, bool) {
	for i := range s.Views {
		if s.Views[i].ViewName == name {
			return &s.Views[i], true
		}
	}
	return nil, false
}
