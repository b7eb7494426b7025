package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Catalog is the immutable view catalog loaded at startup.
type Catalog struct {
	views []ViewDescriptor
	index map[string]int
}

func LoadRegistry(path string) (*ViewRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ViewRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

func SaveRegistry(path string, reg *ViewRegistry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return NewCatalog(defaultViews())
}

// Load returns the catalog from a registry file, or the built-in catalog when
// path is empty. Views missing from the file keep their built-in sort
// corrections.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	if len(reg.Views) == 0 {
		return nil, fmt.Errorf("registry %s has no views", path)
	}

	builtin := Default()
	views := make([]ViewDescriptor, 0, len(reg.Views))
	for _, v := range reg.Views {
		if v.SortCorrections == nil {
			if known, ok := builtin.Get(v.Name); ok {
				v.SortCorrections = known.SortCorrections
			}
		}
		views = append(views, v)
	}
	return NewCatalog(views), nil
}

func NewCatalog(views []ViewDescriptor) *Catalog {
	c := &Catalog{
		views: make([]ViewDescriptor, len(views)),
		index: make(map[string]int, len(views)),
	}
	for i, v := range views {
		v.Columns = append([]string(nil), v.Columns...)
		c.views[i] = v
		c.index[v.Name] = i
	}
	return c
}

func (c *Catalog) Get(name string) (ViewDescriptor, bool) {
	i, ok := c.index[name]
	if !ok {
		return ViewDescriptor{}, false
	}
	return c.views[i], true
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

func (c *Catalog) Names() []string {
	names := make([]string, len(c.views))
	for i, v := range c.views {
		names[i] = v.Name
	}
	return names
}

func (c *Catalog) Views() []ViewDescriptor {
	return append([]ViewDescriptor(nil), c.views...)
}

func (c *Catalog) Description(name string) string {
	if v, ok := c.Get(name); ok {
		return v.Description
	}
	return name
}

// CatalogText renders the catalog for prompts:
//
//   - ai_current_trending: 현재 TOP 50 ...
//     컬럼: 순위, 제목, ...
func (c *Catalog) CatalogText() string {
	var b strings.Builder
	for i, v := range c.views {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s\n  컬럼: %s", v.Name, v.Description, strings.Join(v.Columns, ", "))
	}
	return b.String()
}

// CorrectSort resolves a proposed sort field for a view. It returns the field
// itself when the view has it, a declared substitute otherwise, and false
// when the sort must be dropped.
func (c *Catalog) CorrectSort(view, field string) (string, bool) {
	v, ok := c.Get(view)
	if !ok || field == "" {
		return "", false
	}
	if v.HasColumn(field) {
		return field, true
	}
	if canonical, ok := fieldAliases[field]; ok {
		if v.HasColumn(canonical) {
			return canonical, true
		}
		field = canonical
	}
	if sub, ok := v.SortCorrections[field]; ok && v.HasColumn(sub) {
		return sub, true
	}
	return "", false
}

// ToRegistry snapshots the catalog in its file form, views sorted by name.
func (c *Catalog) ToRegistry(version, updated string) *ViewRegistry {
	views := c.Views()
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return &ViewRegistry{Version: version, LastUpdated: updated, Views: views}
}

// Validate lists structural problems in a registry file.
func Validate(reg *ViewRegistry) []string {
	var problems []string
	if len(reg.Views) == 0 {
		problems = append(problems, "registry has no views")
	}
	seen := make(map[string]bool, len(reg.Views))
	for i, v := range reg.Views {
		switch {
		case v.Name == "":
			problems = append(problems, fmt.Sprintf("view %d has no name", i))
			continue
		case seen[v.Name]:
			problems = append(problems, fmt.Sprintf("view %s is listed twice", v.Name))
		}
		seen[v.Name] = true
		if len(v.Columns) == 0 {
			problems = append(problems, fmt.Sprintf("view %s has no columns", v.Name))
		}
		for from, to := range v.SortCorrections {
			if !v.HasColumn(to) {
				problems = append(problems, fmt.Sprintf("view %s corrects sort %s to unknown column %s", v.Name, from, to))
			}
		}
	}
	return problems
}
