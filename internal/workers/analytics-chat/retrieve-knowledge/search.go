package retrieveknowledge

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"analytics-chat/internal/models"
)

const keywordPrompt = `질문에서 검색에 사용할 핵심 키워드를 추출해주세요.

규칙:
1. 불용어(이, 가, 은, 는, 뭐야, 어떻게 등)는 제외
2. 약어(CTR, RPM, SEO)는 풀네임도 함께 추출
3. 동의어나 관련 용어도 포함
4. JSON 배열만 출력

예시:
Q: "CTR이 뭐야?"
A: ["CTR", "클릭률", "Click Through Rate"]

Q: "트렌딩 진입하려면?"
A: ["트렌딩", "진입", "인기 급상승", "바이럴"]

Q: "쇼츠 vs 일반 영상"
A: ["쇼츠", "Shorts", "일반 영상", "롱폼"]`

var stopwords = map[string]bool{
	"뭐야": true, "뭐예요": true, "무엇": true, "어떻게": true, "알려줘": true, "알려주세요": true,
	"설명해줘": true, "하려면": true, "있어": true, "있나요": true, "the": true, "what": true, "how": true,
}

// SplitKeywords is the keyword fallback: question words without punctuation
// or stopwords.
func SplitKeywords(question string) []string {
	fields := strings.FieldsFunc(question, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '-')
	})
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		lower := strings.ToLower(f)
		if len([]rune(f)) < 2 || stopwords[lower] || seen[lower] {
			continue
		}
		seen[lower] = true
		out = append(out, f)
	}
	return out
}

// Merge combines text and vector hits. Text hits are taken first so a keyword
// match wins over a near-duplicate vector hit; documents are deduplicated on
// their leading dedupeChars runes, sorted by similarity, and cut to topK.
func Merge(text, vector []models.KnowledgeDocument, dedupeChars, topK int) []models.KnowledgeDocument {
	seen := map[string]bool{}
	merged := make([]models.KnowledgeDocument, 0, len(text)+len(vector))
	for _, group := range [][]models.KnowledgeDocument{text, vector} {
		for _, doc := range group {
			key := prefix(doc.Content, dedupeChars)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, doc)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Similarity > merged[j].Similarity })
	if topK > 0 && len(merged) > topK {
		merged = merged[:topK]
	}
	return merged
}

func prefix(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FormatContext renders documents as numbered reference sections.
func FormatContext(docs []models.KnowledgeDocument) string {
	parts := make([]string, 0, len(docs))
	for i, doc := range docs {
		source, _ := doc.Metadata["source"].(string)
		if source == "" {
			source = "unknown"
		}
		heading, _ := doc.Metadata["heading"].(string)

		var b strings.Builder
		fmt.Fprintf(&b, "### 참고 문서 %d (출처: %s)\n", i+1, source)
		if heading != "" {
			fmt.Fprintf(&b, "**%s**\n", heading)
		}
		b.WriteString("\n")
		b.WriteString(doc.Content)
		b.WriteString("\n")
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n---\n")
}

func answerPrompt(context string) string {
	return `너는 유튜브 전문가 친구야. 쉽고 친근하게 설명해줘!

아래 [지식]을 바탕으로 바로 답변해. 되묻지 말고 알고 있는 내용을 최대한 설명해줘.

[지식]
` + context + `

[말투 규칙]
- 친구한테 설명하듯이 쉽게 말해
- 핵심만 깔끔하게 정리해
- 전문 용어는 풀어서 설명해
- "더 자세히 알려주세요" 같은 되묻기는 하지 마
- [지식]에 없는 내용은 지어내지 마

한국어로 답변해.`
}
