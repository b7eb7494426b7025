package validation

// Model output is checked structurally only. Value-level repair (unknown
// intents, out-of-range limits) happens in the consuming step.

var AnalysisSchema = MustCompile("question-analysis", `{
  "type": "object",
  "required": ["intent"],
  "properties": {
    "intent":   {"type": "string", "minLength": 1},
    "entities": {"type": ["object", "null"]},
    "filters": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["field"],
        "properties": {
          "field":    {"type": "string"},
          "operator": {"type": "string"}
        }
      }
    },
    "sort": {
      "type": ["object", "null"],
      "properties": {
        "field": {"type": "string"},
        "order": {"type": "string"}
      }
    },
    "limit": {"type": ["number", "string", "null"]},
    "required_views": {
      "type": ["array", "null"],
      "items": {
        "type": ["object", "string"],
        "properties": {
          "name":   {"type": "string"},
          "limit":  {"type": ["number", "string", "null"]},
          "reason": {"type": ["string", "null"]}
        }
      }
    }
  }
}`)

var MappingSchema = MustCompile("category-mapping", `{
  "type": "object",
  "required": ["mappings"],
  "properties": {
    "mappings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["original", "normalized"],
        "properties": {
          "original":   {"type": "string"},
          "normalized": {"type": "string"}
        }
      }
    }
  }
}`)

var SuggestionSchema = MustCompile("suggestions", `{
  "type": "object",
  "properties": {
    "suggested_questions": {"type": "array", "items": {"type": "string"}},
    "insights":            {"type": "array", "items": {"type": "string"}},
    "related_analyses":    {"type": "array", "items": {"type": "string"}}
  }
}`)

var KeywordSchema = MustCompile("keywords", `{
  "type": "array",
  "items": {"type": "string", "minLength": 1}
}`)

var ChatRequestSchema = MustCompile("chat-request", `{
  "type": "object",
  "required": ["message"],
  "properties": {
    "message":   {"type": "string", "minLength": 1, "maxLength": 2000},
    "sessionId": {"type": "string", "maxLength": 128, "pattern": "^[A-Za-z0-9_.:-]*$"}
  }
}`)
