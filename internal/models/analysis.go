package models

type Route string

const (
	RouteData      Route = "data"
	RouteKnowledge Route = "knowledge"
)

type RouteDecision struct {
	Route      Route   `json:"route"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

type Intent string

const (
	IntentSearch       Intent = "search"
	IntentRanking      Intent = "ranking"
	IntentComparison   Intent = "comparison"
	IntentStatistics   Intent = "statistics"
	IntentTrend        Intent = "trend"
	IntentInsight      Intent = "insight"
	IntentConversation Intent = "conversation"
)

var validIntents = map[Intent]bool{
	IntentSearch:       true,
	IntentRanking:      true,
	IntentComparison:   true,
	IntentStatistics:   true,
	IntentTrend:        true,
	IntentInsight:      true,
	IntentConversation: true,
}

func (i Intent) Valid() bool {
	return validIntents[i]
}

const (
	OpEqual        = "="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpContains     = "contains"
)

var validOperators = map[string]bool{
	OpEqual: true, OpGreater: true, OpGreaterEqual: true,
	OpLess: true, OpLessEqual: true, OpContains: true,
}

func ValidOperator(op string) bool {
	return validOperators[op]
}

type Filter struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

type SortSpec struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

func (s SortSpec) Descending() bool {
	return s.Order == "desc"
}

type ViewRequest struct {
	Name   string `json:"name"`
	Limit  int    `json:"limit"`
	Reason string `json:"reason,omitempty"`
}

// QuestionAnalysis is the query plan for one question. RequiredViews is
// empty exactly when Intent is conversation.
type QuestionAnalysis struct {
	Intent        Intent                 `json:"intent"`
	Entities      map[string]interface{} `json:"entities"`
	Filters       []Filter               `json:"filters"`
	Sort          *SortSpec              `json:"sort,omitempty"`
	Limit         int                    `json:"limit"`
	RequiredViews []ViewRequest          `json:"required_views"`
	Reasoning     string                 `json:"reasoning,omitempty"`
	Fallback      bool                   `json:"fallback,omitempty"`
}

func (a *QuestionAnalysis) IsConversation() bool {
	return a.Intent == IntentConversation
}
