package analyzestatistics

import "analytics-chat/internal/models"

type Input struct {
	Views []models.ViewResult `json:"views"`
}

type Output struct {
	Summary    models.StatisticsSummary `json:"summary"`
	Highlights string                   `json:"highlights"`
	Thinking   string                   `json:"thinking"`
}
