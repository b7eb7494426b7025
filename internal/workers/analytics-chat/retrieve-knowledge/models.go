package retrieveknowledge

import "analytics-chat/internal/models"

type Input struct {
	Question string `json:"question"`
}

type Output struct {
	Documents []models.KnowledgeDocument `json:"documents"`
	Keywords  []string                   `json:"keywords"`
	Answer    string                     `json:"answer,omitempty"`
	Thinking  string                     `json:"thinking,omitempty"`
}

// SearchResult is the outcome of the hybrid search before any answer is
// written.
type SearchResult struct {
	Documents   []models.KnowledgeDocument
	Keywords    []string
	VectorCount int
	TextCount   int
}

// Chunk is one indexed piece of a knowledge document.
type Chunk struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Heading string `json:"heading,omitempty"`
	Source  string `json:"source,omitempty"`
}

// Document is an ingest request.
type Document struct {
	Source   string `json:"source"`
	Content  string `json:"content"`
	Markdown bool   `json:"markdown"`
}
