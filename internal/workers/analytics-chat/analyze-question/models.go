package analyzequestion

import "analytics-chat/internal/models"

type Input struct {
	Question        string `json:"question"`
	SchemaText      string `json:"schemaText"`
	LastTurnSummary string `json:"lastTurnSummary,omitempty"`
}

type Output struct {
	Analysis models.QuestionAnalysis `json:"analysis"`
	Thinking string                  `json:"thinking"`
	Fallback bool                    `json:"fallback"`
}

type rawFilter struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

type rawSort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

type rawAnalysis struct {
	Intent        string                 `json:"intent"`
	Entities      map[string]interface{} `json:"entities"`
	Filters       []rawFilter            `json:"filters"`
	Sort          *rawSort               `json:"sort"`
	Limit         interface{}            `json:"limit"`
	RequiredViews []interface{}          `json:"required_views"`
}
