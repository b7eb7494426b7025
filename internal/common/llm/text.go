package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSON  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	thinkingTag = regexp.MustCompile(`(?is)<thinking>(.*?)</thinking>`)
)

// ExtractJSON returns the first balanced JSON object in text. A fenced code
// block is preferred when present. Braces inside string literals are ignored.
func ExtractJSON(text string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if obj, ok := balancedObject(m[1]); ok {
			return obj, true
		}
	}
	return balancedObject(text)
}

// ExtractJSONArray returns the first balanced JSON array in text.
func ExtractJSONArray(text string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	return balanced(text, '[', ']')
}

func balancedObject(text string) (string, bool) {
	return balanced(text, '{', '}')
}

func balanced(text string, open, closeCh byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ExtractThinking returns the trimmed content of the first <thinking> block.
func ExtractThinking(text string) string {
	m := thinkingTag.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// StripThinking removes every <thinking> block from text.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkingTag.ReplaceAllString(text, ""))
}

// DecodeJSON extracts the first JSON object in text and unmarshals it.
func DecodeJSON(text string, dst interface{}) bool {
	raw, ok := ExtractJSON(text)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), dst) == nil
}

// HasJSONKey reports whether text carries a JSON object with key at its top
// level.
func HasJSONKey(key string) Validator {
	return func(text string) bool {
		var obj map[string]json.RawMessage
		if !DecodeJSON(text, &obj) {
			return false
		}
		_, ok := obj[key]
		return ok
	}
}
