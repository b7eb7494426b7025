package retrieveknowledge

import (
	"fmt"
	"strings"
)

// ChunkText splits text into pieces of at most size runes that overlap by
// overlap runes. Cuts prefer the last space inside the window.
func ChunkText(text string, size, overlap int) []string {
	runes := []rune(text)
	if size <= 0 || len(runes) <= size {
		if s := strings.TrimSpace(text); s != "" {
			return []string{s}
		}
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else if space := lastSpace(runes, start, end); space > start {
			end = space
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func lastSpace(runes []rune, start, end int) int {
	for i := end - 1; i > start; i-- {
		if runes[i] == ' ' {
			return i
		}
	}
	return -1
}

// Section is one heading-delimited piece of a markdown document.
type Section struct {
	Heading string
	Content string
}

// ChunkMarkdown splits a markdown document at headings. Sections longer than
// maxRunes are split again with ChunkText; parts after the first get a
// "(Part n)" heading suffix.
func ChunkMarkdown(content string, maxRunes int) []Section {
	var (
		sections []Section
		current  []string
		heading  string
	)

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text == "" {
			return
		}
		if maxRunes > 0 && len([]rune(text)) > maxRunes {
			for i, part := range ChunkText(text, maxRunes, 50) {
				h := heading
				if i > 0 {
					h = fmt.Sprintf("%s (Part %d)", heading, i+1)
				}
				sections = append(sections, Section{Heading: h, Content: part})
			}
			return
		}
		sections = append(sections, Section{Heading: heading, Content: text})
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			flush()
			heading = strings.TrimSpace(strings.TrimLeft(line, "#"))
			current = []string{line}
			continue
		}
		current = append(current, line)
	}
	flush()
	return sections
}
