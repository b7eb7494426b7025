package retrieveviewdata

import "analytics-chat/internal/models"

type Input struct {
	Views   []models.ViewRequest `json:"views"`
	Filters []models.Filter      `json:"filters"`
	Sort    *models.SortSpec     `json:"sort,omitempty"`
}

type Output struct {
	Result    models.RetrievalResult `json:"result"`
	ToolsUsed []string               `json:"toolsUsed"`
	Thinking  string                 `json:"thinking"`
}

// Query is one read against a view. Filters here are the ones the store may
// push down; the engine re-applies every filter in memory afterwards.
type Query struct {
	View    string           `json:"view"`
	Filters []models.Filter  `json:"filters,omitempty"`
	Sort    *models.SortSpec `json:"sort,omitempty"`
	Limit   int              `json:"limit"`
}

// Snapshot is a store reply: rows plus the column order the store reported.
type Snapshot struct {
	Columns []string     `json:"columns"`
	Rows    []models.Row `json:"rows"`
}
