package generateresponse

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"

	"analytics-chat/internal/common/format"
	"analytics-chat/internal/models"
	"analytics-chat/pkg/registry"
)

const previewRows = 5

// StripMarkdownTables removes pipe tables from model output. Charts are sent
// alongside the text, so tables in prose only duplicate them.
func StripMarkdownTables(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "|") && i+1 < len(lines) && isSeparatorRow(lines[i+1]) {
			i += 2
			for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
				i++
			}
			i--
			continue
		}
		kept = append(kept, lines[i])
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isSeparatorRow(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "|") {
		return false
	}
	return strings.Trim(line, "|:- ") == ""
}

// DataSummary is the deterministic answer used when the model cannot write
// one. It previews the well-known views, as markdown tables when asTables is
// set and as bullet lines otherwise. Views served by the drop-filters fallback
// say so.
func DataSummary(question string, views []models.ViewResult, asTables bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "'%s'에 대한 조회 결과입니다:\n", question)

	for _, v := range views {
		if len(v.Rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n**%s**", v.ViewName)
		if text := filterText(v.FiltersApplied); text != "" {
			fmt.Fprintf(&b, " (필터: %s)", text)
		}
		fmt.Fprintf(&b, ": %d개 데이터\n", len(v.Rows))
		if v.FallbackApplied {
			b.WriteString(fallbackNotice(v.OriginalFilters))
			b.WriteString("\n")
		}

		rows := v.Rows
		if len(rows) > previewRows {
			rows = rows[:previewRows]
		}

		header, cells := previewCells(v.ViewName, rows)
		switch {
		case len(cells) == 0:
		case asTables:
			table := markdownTable(&b, header)
			table.AppendBulk(cells)
			table.Render()
		default:
			for _, row := range cells {
				fmt.Fprintf(&b, "- %s\n", bulletLine(header, row))
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func fallbackNotice(original []models.Filter) string {
	if text := filterText(original); text != "" {
		return fmt.Sprintf("요청하신 조건(%s)에 맞는 데이터가 없어 전체 데이터를 보여드립니다.", text)
	}
	return "요청하신 조건에 맞는 데이터가 없어 전체 데이터를 보여드립니다."
}

// previewCells picks the preview columns for the well-known views. Other
// views get no preview; the chart carries them.
func previewCells(view string, rows []models.Row) ([]string, [][]string) {
	var (
		header []string
		cells  [][]string
	)
	switch view {
	case registry.ViewCurrentTrending:
		header = []string{"순위", "채널", "제목", "조회수", "카테고리"}
		for _, r := range rows {
			title := r["제목"]
			if title == nil {
				title = r["동영상_제목"]
			}
			cells = append(cells, []string{
				cell(r["순위"]),
				truncate(cell(r["채널명"]), 15),
				truncate(cell(title), 25),
				compact(r["조회수"]),
				cell(r["카테고리"]),
			})
		}
	case registry.ViewChannelStats:
		header = []string{"채널", "구독자수", "트렌딩영상", "최고순위"}
		for _, r := range rows {
			cells = append(cells, []string{
				truncate(cell(r["채널명"]), 15),
				compact(r["구독자수"]),
				cell(r["트렌딩_영상수"]),
				cell(r["최고_순위"]),
			})
		}
	case registry.ViewCategoryStats:
		header = []string{"카테고리", "동영상수"}
		for _, r := range rows {
			count := r["영상수"]
			if count == nil {
				count = r["동영상수"]
			}
			cells = append(cells, []string{cell(r["카테고리"]), cell(count)})
		}
	}
	return header, cells
}

func bulletLine(header, row []string) string {
	parts := make([]string, 0, len(row))
	for i, value := range row {
		if i < len(header) {
			parts = append(parts, header[i]+" "+value)
			continue
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, " · ")
}

func markdownTable(b *strings.Builder, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(b)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	return table
}

func cell(v interface{}) string {
	if v == nil {
		return "-"
	}
	return format.Value(v)
}

func compact(v interface{}) string {
	n, ok := models.ParseNumber(v)
	if !ok {
		return "-"
	}
	return format.Compact(n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
