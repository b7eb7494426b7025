package models

type Row = map[string]interface{}

type ViewResult struct {
	ViewName        string    `json:"view_name"`
	Description     string    `json:"description,omitempty"`
	Columns         []string  `json:"columns,omitempty"`
	Rows            []Row     `json:"rows"`
	FallbackApplied bool      `json:"fallback_applied"`
	OriginalFilters []Filter  `json:"original_filters,omitempty"`
	FiltersApplied  []Filter  `json:"filters_applied"`
	FiltersSkipped  []Filter  `json:"filters_skipped"`
	Sort            *SortSpec `json:"sort,omitempty"`
	Notes           []string  `json:"notes,omitempty"`
}

type ViewFailure struct {
	ViewName string `json:"view_name"`
	Error    string `json:"error"`
}

// RetrievalResult holds successful views in request order. Failed views
// appear only in Failures.
type RetrievalResult struct {
	Views    []ViewResult  `json:"views"`
	Failures []ViewFailure `json:"failures,omitempty"`
}

func (r *RetrievalResult) TotalRows() int {
	total := 0
	for _, v := range r.Views {
		total += len(v.Rows)
	}
	return total
}

// Largest returns the view with the most rows; the first one wins ties.
func (r *RetrievalResult) Largest() *ViewResult {
	var best *ViewResult
	for i := range r.Views {
		if len(r.Views[i].Rows) == 0 {
			continue
		}
		if best == nil || len(r.Views[i].Rows) > len(best.Rows) {
			best = &r.Views[i]
		}
	}
	return best
}

func (r *RetrievalResult) ViewNames() []string {
	names := make([]string, 0, len(r.Views))
	for _, v := range r.Views {
		names = append(names, v.ViewName)
	}
	return names
}

type KnowledgeDocument struct {
	Content    string                 `json:"content"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Similarity float64                `json:"similarity"`
	Source     string                 `json:"source,omitempty"`
}
