package retrieveviewdata

import (
	"context"
	"database/sql"
	"fmt"

	"analytics-chat/internal/common/cache"
	"analytics-chat/internal/common/logger"
	"analytics-chat/pkg/registry"
)

const (
	schemaCacheKey = "schema:text"

	liveColumnsQuery = `SELECT table_name, column_name
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name LIKE 'ai\_%'
		ORDER BY table_name, ordinal_position`
)

// SchemaProvider renders the view schema handed to the question analyzer.
// It prefers the live database columns and falls back to the static catalog.
type SchemaProvider struct {
	db      *sql.DB
	cache   cache.Cache
	catalog *registry.Catalog
	logger  logger.Logger
}

// NewSchemaProvider accepts a nil db, in which case only the catalog is used.
func NewSchemaProvider(db *sql.DB, c cache.Cache, catalog *registry.Catalog, log logger.Logger) *SchemaProvider {
	return &SchemaProvider{
		db:      db,
		cache:   c,
		catalog: catalog,
		logger:  logger.ForComponent(log, "schema-provider"),
	}
}

func (p *SchemaProvider) SchemaText(ctx context.Context) string {
	if p.cache != nil {
		if raw, ok := p.cache.Get(ctx, schemaCacheKey); ok {
			return string(raw)
		}
	}

	views, err := p.LiveViews(ctx)
	if err != nil || len(views) == 0 {
		if err != nil {
			p.logger.Warn("live schema unavailable, using catalog", map[string]interface{}{"error": err.Error()})
		}
		return p.catalog.CatalogText()
	}

	text := registry.NewCatalog(views).CatalogText()
	if p.cache != nil {
		p.cache.Set(ctx, schemaCacheKey, []byte(text))
	}
	return text
}

// LiveViews reads ai_* view columns from information_schema. Descriptions
// and sort corrections come from the catalog when it knows the view.
func (p *SchemaProvider) LiveViews(ctx context.Context) ([]registry.ViewDescriptor, error) {
	if p.db == nil {
		return nil, nil
	}

	rows, err := p.db.QueryContext(ctx, liveColumnsQuery)
	if err != nil {
		return nil, fmt.Errorf("query information_schema: %w", err)
	}
	defer rows.Close()

	var (
		order   []string
		columns = make(map[string][]string)
	)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, err
		}
		if _, seen := columns[table]; !seen {
			order = append(order, table)
		}
		columns[table] = append(columns[table], column)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	views := make([]registry.ViewDescriptor, 0, len(order))
	for _, name := range order {
		desc := registry.ViewDescriptor{Name: name, Columns: columns[name], Description: name}
		if known, ok := p.catalog.Get(name); ok {
			desc.Description = known.Description
			desc.SortCorrections = known.SortCorrections
			desc.Tags = known.Tags
		}
		views = append(views, desc)
	}
	return views, nil
}

func (p *SchemaProvider) Invalidate(ctx context.Context) {
	if p.cache != nil {
		p.cache.Invalidate(ctx)
	}
}
