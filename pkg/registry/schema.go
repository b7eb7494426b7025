package registry

// ViewRegistry is the on-disk form of the view catalog.
type ViewRegistry struct {
	Version     string           `json:"version"`
	LastUpdated string           `json:"lastUpdated"`
	Views       []ViewDescriptor `json:"views"`
}

// ViewDescriptor describes one analytical view. Columns keep their database
// order and are the only source for validating a sort field.
type ViewDescriptor struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Columns     []string `json:"columns"`
	// SortCorrections maps a field the view lacks onto a column it has.
	SortCorrections map[string]string `json:"sortCorrections,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
}

func (v ViewDescriptor) HasColumn(name string) bool {
	for _, c := range v.Columns {
		if c == name {
			return true
		}
	}
	return false
}
