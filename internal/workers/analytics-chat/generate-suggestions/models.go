package generatesuggestions

import "analytics-chat/internal/models"

type Input struct {
	Question  string                   `json:"question"`
	Answer    string                   `json:"answer"`
	ViewNames []string                 `json:"viewNames"`
	Analysis  *models.QuestionAnalysis `json:"analysis,omitempty"`
}

type Output struct {
	models.Suggestions
	Fallback bool `json:"fallback,omitempty"`
}

type suggestionReply struct {
	Questions []string `json:"suggested_questions"`
	Insights  []string `json:"insights"`
	Related   []string `json:"related_analyses"`
}
