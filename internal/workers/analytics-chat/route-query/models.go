package routequery

import "analytics-chat/internal/models"

type Input struct {
	Question string `json:"question"`
}

type Output struct {
	Route      models.Route `json:"route"`
	Confidence float64      `json:"confidence"`
	Thinking   string       `json:"thinking"`
}
