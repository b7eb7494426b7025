package retrieveknowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText(t *testing.T) {
	assert.Equal(t, []string{"짧은 문서"}, ChunkText("  짧은 문서 ", 500, 50))
	assert.Nil(t, ChunkText("   ", 500, 50))

	words := make([]string, 300)
	for i := range words {
		words[i] = "단어"
	}
	text := strings.Join(words, " ") // 899 runes

	chunks := ChunkText(text, 500, 50)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 500)
		assert.False(t, strings.HasSuffix(c, "단"), "cut inside a word: %q", c)
	}
	// the second chunk starts with the last 50 runes of the first
	assert.True(t, strings.HasSuffix(chunks[0], string([]rune(chunks[1])[:50])))
}

func TestChunkText_NoSpaces(t *testing.T) {
	text := strings.Repeat("가", 1200)
	chunks := ChunkText(text, 500, 50)
	require.Len(t, chunks, 3)
	assert.Len(t, []rune(chunks[0]), 500)
	assert.Len(t, []rune(chunks[2]), 300)
}

func TestChunkMarkdown(t *testing.T) {
	doc := "intro line\n# CTR\nCTR은 클릭률입니다.\n## 알고리즘\n" + strings.Repeat("추천 ", 300)

	sections := ChunkMarkdown(doc, 800)
	require.Len(t, sections, 4)
	assert.Equal(t, Section{Heading: "", Content: "intro line"}, sections[0])
	assert.Equal(t, "CTR", sections[1].Heading)
	assert.Equal(t, "# CTR\nCTR은 클릭률입니다.", sections[1].Content)
	assert.Equal(t, "알고리즘", sections[2].Heading)
	assert.Equal(t, "알고리즘 (Part 2)", sections[3].Heading)
}
