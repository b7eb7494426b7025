package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"plain", `{"intent":"search"}`, `{"intent":"search"}`, true},
		{"fenced", "분석 결과:\n```json\n{\"intent\": \"ranking\"}\n```\n끝", `{"intent": "ranking"}`, true},
		{"prose around", `<thinking>top 10</thinking> 결과 {"a": {"b": 1}} 입니다`, `{"a": {"b": 1}}`, true},
		{"brace in string", `{"text": "a } b", "n": 1}`, `{"text": "a } b", "n": 1}`, true},
		{"unbalanced", `{"intent": "search"`, "", false},
		{"none", "안녕하세요", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	got, ok := ExtractJSONArray("키워드: [\"게임\", \"채널\"]")
	assert.True(t, ok)
	assert.Equal(t, `["게임", "채널"]`, got)
}

func TestExtractThinking(t *testing.T) {
	assert.Equal(t, "사용자는 순위를 원함", ExtractThinking("<THINKING>\n사용자는 순위를 원함\n</thinking>{}"))
	assert.Equal(t, "", ExtractThinking(`{"intent":"search"}`))
}

func TestStripThinking(t *testing.T) {
	assert.Equal(t, "답변입니다", StripThinking("<thinking>계획</thinking>\n답변입니다"))
	assert.Equal(t, "그대로", StripThinking("그대로"))
}

func TestHasJSONKey(t *testing.T) {
	v := HasJSONKey("intent")
	assert.True(t, v(`{"intent":"trend"}`))
	assert.False(t, v(`{"entities":{}}`))
	assert.False(t, v(`not json`))
}
