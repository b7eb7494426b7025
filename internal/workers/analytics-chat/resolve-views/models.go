package resolveviews

import "analytics-chat/internal/models"

type Input struct {
	Question string                  `json:"question"`
	Analysis models.QuestionAnalysis `json:"analysis"`
}

type Output struct {
	Views    []models.ViewRequest `json:"views"`
	Thinking string               `json:"thinking"`
	Fallback bool                 `json:"fallback"`
}
