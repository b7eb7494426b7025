package retrieveviewdata

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"analytics-chat/internal/models"
)

// Store reads rows from a named view.
type Store interface {
	QueryView(ctx context.Context, q Query) (*Snapshot, error)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) QueryView(ctx context.Context, q Query) (*Snapshot, error) {
	query, args := BuildSQL(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

// BuildSQL renders a view query. Identifiers are quoted and every value is a
// positional argument. Equality compares text case-insensitively and
// contains is ILIKE, matching the in-memory filter.
func BuildSQL(q Query) (string, []interface{}) {
	var (
		b     strings.Builder
		args  []interface{}
		conds []string
	)

	next := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	for _, f := range q.Filters {
		if f.Field == "" || f.Value == nil {
			continue
		}
		col := pq.QuoteIdentifier(f.Field)
		switch {
		case f.Operator == models.OpContains:
			conds = append(conds, fmt.Sprintf("%s::text ILIKE %s", col, next("%"+escapeLike(fmt.Sprint(f.Value))+"%")))
		case isComparison(f.Operator):
			v, ok := CompareValue(f.Value)
			if !ok {
				continue
			}
			conds = append(conds, fmt.Sprintf("%s %s %s", col, f.Operator, next(v)))
		default:
			conds = append(conds, fmt.Sprintf("LOWER(%s::text) = LOWER(%s)", col, next(cellText(f.Value))))
		}
	}

	b.WriteString("SELECT * FROM ")
	b.WriteString(pq.QuoteIdentifier(q.View))
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	if q.Sort != nil && q.Sort.Field != "" {
		dir := "ASC"
		if q.Sort.Descending() {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s NULLS LAST", pq.QuoteIdentifier(q.Sort.Field), dir)
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(next(q.Limit))
	}
	return b.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

func scanRows(rows *sql.Rows) (*Snapshot, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Columns: columns, Rows: []models.Row{}}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = convertCell(values[i], types[i].DatabaseTypeName())
		}
		snap.Rows = append(snap.Rows, row)
	}
	return snap, rows.Err()
}

// convertCell turns driver values into JSON-friendly ones. NUMERIC arrives
// as bytes from lib/pq.
func convertCell(v interface{}, dbType string) interface{} {
	switch c := v.(type) {
	case []byte:
		s := string(c)
		if dbType == "NUMERIC" {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
		return s
	case time.Time:
		return c.Format(time.RFC3339)
	default:
		return c
	}
}
