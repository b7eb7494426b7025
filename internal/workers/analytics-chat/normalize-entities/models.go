package normalizeentities

import "analytics-chat/internal/models"

type Input struct {
	Analysis models.QuestionAnalysis `json:"analysis"`
}

type Output struct {
	Analysis models.QuestionAnalysis `json:"analysis"`
	Mappings map[string]string       `json:"mappings,omitempty"`
	Thinking string                  `json:"thinking,omitempty"`
}

type categoryMapping struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
}

type mappingReply struct {
	Mappings []categoryMapping `json:"mappings"`
}
