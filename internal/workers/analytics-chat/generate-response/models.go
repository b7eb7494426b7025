package generateresponse

import "analytics-chat/internal/models"

type Input struct {
	Question   string                   `json:"question"`
	Analysis   *models.QuestionAnalysis `json:"analysis,omitempty"`
	Retrieval  models.RetrievalResult   `json:"retrieval"`
	Highlights string                   `json:"highlights,omitempty"`
}

type Output struct {
	models.GeneratedResponse
}
