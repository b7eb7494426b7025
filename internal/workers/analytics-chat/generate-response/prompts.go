package generateresponse

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"analytics-chat/internal/models"
)

// FallbackMarker opens the warning attached to views whose filters were dropped.
const FallbackMarker = "[시스템 경고]"

var kst = time.FixedZone("KST", 9*60*60)

// DataContext renders the grounding text for every view that has rows. It is
// empty when no view returned data.
func DataContext(result models.RetrievalResult, sampleRows, sampleBytes int) string {
	var parts []string
	for _, v := range result.Views {
		if len(v.Rows) == 0 {
			continue
		}

		var b strings.Builder
		if v.FallbackApplied {
			fmt.Fprintf(&b, "> %s 사용자가 요청한 필터 조건(%s)에 맞는 데이터가 없어 전체 데이터(GLOBAL)를 대신 보여줍니다. 답변에서 반드시 이 사실을 밝히고 전체 기준으로 설명하세요.\n",
				FallbackMarker, filterText(v.OriginalFilters))
		}

		fmt.Fprintf(&b, "### %s", v.ViewName)
		if len(v.FiltersApplied) > 0 {
			fmt.Fprintf(&b, " [필터: %s]", filterText(v.FiltersApplied))
		}
		desc := v.Description
		if desc == "" {
			desc = v.ViewName
		}
		fmt.Fprintf(&b, "\n설명: %s\n총 %d개 데이터\n\n**실제 데이터:**\n```json\n%s\n```\n",
			desc, len(v.Rows), sampleJSON(v.Rows, sampleRows, sampleBytes))
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}

func sampleJSON(rows []models.Row, maxRows, maxBytes int) string {
	n := len(rows)
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	for {
		raw, err := json.MarshalIndent(rows[:n], "", "  ")
		if err != nil {
			return "[]"
		}
		if maxBytes <= 0 || len(raw) <= maxBytes || n == 1 {
			return string(raw)
		}
		n /= 2
	}
}

func filterText(filters []models.Filter) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Field == "" || f.Value == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", f.Field, f.Value))
	}
	return strings.Join(parts, ", ")
}

func answerPrompt(dataContext, highlights string, now time.Time) string {
	var b strings.Builder
	b.WriteString("[ROLE: YouTube 데이터 분석가]\n")
	b.WriteString("아래 [SOURCE_DATA]만 근거로 사용자의 질문에 답하세요.\n\n")
	b.WriteString("[SOURCE_DATA]\n")
	b.WriteString(dataContext)
	if highlights != "" {
		b.WriteString("\n[통계 요약]\n")
		b.WriteString(highlights)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n[TIME CONTEXT]\n- 현재 시각 (KST): %s\n- 현재 시각 (UTC): %s\n- 데이터의 타임스탬프는 UTC 기준입니다.\n",
		now.In(kst).Format("2006-01-02 15:04"), now.UTC().Format("2006-01-02 15:04"))
	b.WriteString(`
[답변 지침]
1. 숫자를 나열하지 말고 그 안의 흐름과 의미를 설명하세요.
2. 핵심 포인트를 번호를 붙여 2~3개 이상 제시하세요.
3. [SOURCE_DATA]에 없는 내용은 추측하지 마세요. 부족하면 부족하다고 말하세요.
4. 차트나 표는 화면 아래에 따로 표시되니 본문에는 표를 그리지 말고 요약에 집중하세요.
5. 한국어로 답하세요.`)
	return b.String()
}

func noDataPrompt(analysis *models.QuestionAnalysis) string {
	intent := string(models.IntentSearch)
	conditions := "조건 없음"
	if analysis != nil {
		intent = string(analysis.Intent)
		if text := filterText(analysis.Filters); text != "" {
			conditions = text
		}
	}
	return fmt.Sprintf(`당신은 YouTube 데이터 분석 전문가입니다.
조회 결과 사용자가 요청한 조건에 맞는 데이터가 없습니다.

[상황]
- 질문 의도: %s
- 요청 조건: %s

[할 일]
1. 데이터가 없다는 사실을 정중하게 알리세요.
2. 데이터가 없을 수 있는 이유를 설명하세요. 예: 해당 채널이 아직 트렌딩에 오른 적이 없거나 수집 범위 밖일 수 있습니다.
3. 대신 시도해 볼 질문이나 조건을 제안하세요.
4. "시스템 오류"라는 표현은 쓰지 마세요.

한국어로 자연스럽게 답하세요.`, intent, conditions)
}
