package analyzequestion

import (
	"fmt"
	"strings"
	"time"

	"analytics-chat/pkg/registry"
)

const exampleJSON = "```json\n" + `{
  "intent": "ranking",
  "entities": {"category": "Gaming", "period": "24h"},
  "filters": [
    {"field": "카테고리", "operator": "=", "value": "Gaming"},
    {"field": "업로드후_시간", "operator": "<=", "value": "24h"}
  ],
  "sort": {"field": "순위", "order": "asc"},
  "limit": 20,
  "required_views": [
    {"name": "ai_current_trending", "limit": 20, "reason": "현재 순위 확인"},
    {"name": "ai_hourly_pattern", "limit": 10, "reason": "시간대별 흐름"}
  ]
}` + "\n```"

func systemPrompt(now time.Time) string {
	return fmt.Sprintf("당신은 데이터 분석 플래너입니다. 현재 시각은 %s 입니다. <thinking> 블록을 먼저 쓰고 그 뒤에 JSON만 출력하세요.",
		now.Format("2006-01-02 15:04"))
}

func buildPrompt(question, schemaText, lastTurn string) string {
	var b strings.Builder

	b.WriteString("YouTube 트렌딩 데이터 분석 시스템의 질문 분석 단계입니다.\n")
	b.WriteString("질문을 해석하고 조회에 필요한 필터와 View를 한 번에 결정하세요.\n\n")
	fmt.Fprintf(&b, "## 질문: %q\n", question)

	if lastTurn != "" {
		b.WriteString("\n## 직전 대화\n")
		b.WriteString("질문이 '이것', '그거', '아까 질문'처럼 앞의 대화를 가리키면 참고하세요:\n")
		b.WriteString(lastTurn)
		b.WriteString("\n")
	}

	b.WriteString("\n## 조회 가능한 View와 실제 컬럼\n")
	b.WriteString(schemaText)
	b.WriteString("\n\n## 카테고리 값 (필터에는 반드시 이 영어 이름 사용)\n")
	b.WriteString(strings.Join(registry.Categories, ", "))

	b.WriteString("\n\n## 값 정규화\n")
	b.WriteString("1. 카테고리는 위 영어 이름으로 바꾸세요. 예: '음악' -> 'Music'\n")
	b.WriteString("2. 기간은 영문과 숫자만 씁니다: 1h, 24h, 7d, 30d. 예: '1주일' -> '7d'\n")
	b.WriteString("3. 수치 필터에는 '회', '명', '개' 같은 단위를 붙이지 마세요.\n")

	b.WriteString("\n## 작성 규칙\n")
	b.WriteString("1. intent: search, ranking, comparison, statistics, trend, insight, conversation 중 하나\n")
	b.WriteString("2. entities: 채널, 카테고리, 기간 등 질문 속 대상\n")
	b.WriteString("3. filters, sort: 위 스키마에 실제로 있는 컬럼명만 사용\n")
	b.WriteString("4. required_views: 가장 알맞은 View 최대 3개\n")
	b.WriteString("5. 인사나 잡담이면 intent를 conversation으로 하고 required_views는 비우세요.\n")

	b.WriteString("\n## 예시\n")
	b.WriteString(exampleJSON)
	return b.String()
}
