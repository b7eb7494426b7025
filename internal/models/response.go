package models

type ChartType string

const (
	ChartBar        ChartType = "bar"
	ChartPie        ChartType = "pie"
	ChartLine       ChartType = "line"
	ChartComparison ChartType = "comparison"
	ChartTable      ChartType = "table"
)

// ChartPayload is the visualization derived from a single retrieved view.
// It depends only on the view's columns and rows.
type ChartPayload struct {
	ChartType        ChartType          `json:"chart_type"`
	Title            string             `json:"title"`
	ViewName         string             `json:"view_name"`
	Columns          []string           `json:"columns"`
	LabelColumn      string             `json:"label_column,omitempty"`
	PrimaryMetric    string             `json:"primary_metric,omitempty"`
	SecondaryMetrics []string           `json:"secondary_metrics"`
	Rows             []Row              `json:"rows"`
	Totals           map[string]float64 `json:"totals"`
	RowCount         int                `json:"row_count"`
}

type GeneratedResponse struct {
	Text           string        `json:"text"`
	ResponseType   string        `json:"response_type"`
	StructuredData *ChartPayload `json:"structured_data"`
	Thinking       string        `json:"thinking,omitempty"`
	Fallback       bool          `json:"fallback,omitempty"`
}

type Suggestions struct {
	Questions []string `json:"suggested_questions"`
	Insights  []string `json:"insights"`
	Related   []string `json:"related_analyses"`
}

// ChatResponse is the envelope returned for every question. Error carries a
// generic code only.
type ChatResponse struct {
	Response           string        `json:"response"`
	ToolsUsed          []string      `json:"tools_used"`
	ResponseType       string        `json:"response_type"`
	StructuredData     *ChartPayload `json:"structured_data"`
	SuggestedQuestions []string      `json:"suggested_questions"`
	Insights           []string      `json:"insights"`
	RelatedAnalyses    []string      `json:"related_analyses"`
	Error              *string       `json:"error"`
	Thinking           string        `json:"thinking,omitempty"`
	SessionID          string        `json:"session_id"`
	Route              Route         `json:"route,omitempty"`
}
