// Package format renders numbers for prose and tables.
package format

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Grouped renders f with thousands separators and up to two decimals.
func Grouped(f float64, decimals int) string {
	switch {
	case decimals <= 0:
		return printer.Sprintf("%d", int64(math.Round(f)))
	case decimals == 1:
		return printer.Sprintf("%.1f", f)
	default:
		return printer.Sprintf("%.2f", f)
	}
}

// Compact renders large counts as 1.2M or 45.3K and smaller ones grouped.
func Compact(f float64) string {
	abs := math.Abs(f)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", f/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", f/1_000)
	default:
		return Grouped(f, 0)
	}
}

// Value renders a cell for display; nil is "-".
func Value(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return "-"
	case float64:
		if n == math.Trunc(n) {
			return Grouped(n, 0)
		}
		return Grouped(n, 2)
	case int:
		return Grouped(float64(n), 0)
	case int64:
		return Grouped(float64(n), 0)
	default:
		return fmt.Sprint(v)
	}
}
