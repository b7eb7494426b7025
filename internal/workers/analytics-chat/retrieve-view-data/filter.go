package retrieveviewdata

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"analytics-chat/internal/models"
)

var durationToken = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(h|d|w)$`)

// CompareValue converts a comparison filter value to a float. Besides plain
// numbers it understands the normalized window tokens 1h, 24h, 7d and 2w,
// expressed in hours.
func CompareValue(v interface{}) (float64, bool) {
	if f, ok := models.ParseNumber(v); ok {
		return f, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	m := durationToken.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, false
	}
	n, _ := strconv.ParseFloat(m[1], 64)
	switch m[2] {
	case "d":
		n *= 24
	case "w":
		n *= 24 * 7
	}
	return n, true
}

func isComparison(op string) bool {
	switch op {
	case models.OpGreater, models.OpGreaterEqual, models.OpLess, models.OpLessEqual:
		return true
	}
	return false
}

// ApplyFilters re-checks rows against filters in memory. A filter is skipped
// when its field is missing from the row shape (taken from the first row) or
// when a comparison value is not numeric. Rows whose cell is nil, or not
// numeric under a comparison, are dropped by that filter.
func ApplyFilters(rows []models.Row, filters []models.Filter) (kept []models.Row, applied, skipped []models.Filter) {
	if len(rows) == 0 || len(filters) == 0 {
		return rows, nil, nil
	}

	shape := rows[0]
	kept = rows
	for _, f := range filters {
		if f.Field == "" || f.Value == nil {
			continue
		}
		if _, ok := shape[f.Field]; !ok {
			skipped = append(skipped, f)
			continue
		}
		match, ok := matcher(f)
		if !ok {
			skipped = append(skipped, f)
			continue
		}

		next := make([]models.Row, 0, len(kept))
		for _, row := range kept {
			cell, present := row[f.Field]
			if !present || cell == nil {
				continue
			}
			if match(cell) {
				next = append(next, row)
			}
		}
		kept = next
		applied = append(applied, f)
	}
	return kept, applied, skipped
}

func matcher(f models.Filter) (func(cell interface{}) bool, bool) {
	switch {
	case f.Operator == models.OpContains:
		needle := strings.ToLower(fmt.Sprint(f.Value))
		return func(cell interface{}) bool {
			return strings.Contains(strings.ToLower(fmt.Sprint(cell)), needle)
		}, true

	case isComparison(f.Operator):
		want, ok := CompareValue(f.Value)
		if !ok {
			return nil, false
		}
		return func(cell interface{}) bool {
			got, ok := models.ParseNumber(cell)
			if !ok {
				return false
			}
			switch f.Operator {
			case models.OpGreater:
				return got > want
			case models.OpGreaterEqual:
				return got >= want
			case models.OpLess:
				return got < want
			default:
				return got <= want
			}
		}, true

	default:
		want := strings.ToLower(cellText(f.Value))
		return func(cell interface{}) bool {
			return strings.ToLower(cellText(cell)) == want
		}, true
	}
}

// cellText renders integral floats without a fraction so 3 and 3.0 compare
// equal as text.
func cellText(v interface{}) string {
	if f, ok := models.Number(v); ok && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprint(v)
}
