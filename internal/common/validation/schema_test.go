package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "analytics-chat/internal/common/errors"
)

func TestAnalysisSchema(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"minimal", `{"intent": "ranking"}`, true},
		{"full", `{"intent":"search","entities":{"category":"Gaming"},"filters":[{"field":"카테고리","operator":"=","value":"Gaming"}],"sort":{"field":"순위","order":"asc"},"limit":10,"required_views":[{"name":"ai_current_trending","limit":10}]}`, true},
		{"views as strings", `{"intent":"search","required_views":["ai_current_trending"]}`, true},
		{"missing intent", `{"entities": {}}`, false},
		{"filter without field", `{"intent":"search","filters":[{"operator":"="}]}`, false},
		{"not json", `intent: search`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, AnalysisSchema.Accepts(tt.doc))
		})
	}
}

func TestValidate_WrapsSentinel(t *testing.T) {
	err := MappingSchema.Validate(`{"mappings":[{"original":"게임"}]}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailure))
	assert.Contains(t, err.Error(), "category-mapping")
}

func TestDecodeValid(t *testing.T) {
	var out struct {
		Mappings []struct {
			Original   string `json:"original"`
			Normalized string `json:"normalized"`
		} `json:"mappings"`
	}
	require.NoError(t, MappingSchema.DecodeValid(`{"mappings":[{"original":"게임","normalized":"Gaming"}]}`, &out))
	assert.Equal(t, "Gaming", out.Mappings[0].Normalized)
}

func TestChatRequestSchema(t *testing.T) {
	assert.NoError(t, ChatRequestSchema.ValidateValue(map[string]interface{}{"message": "안녕", "sessionId": "abc-123"}))
	assert.Error(t, ChatRequestSchema.ValidateValue(map[string]interface{}{"message": ""}))
	assert.Error(t, ChatRequestSchema.ValidateValue(map[string]interface{}{"message": "hi", "sessionId": "a b"}))

	r := ChatRequestSchema.CheckValue(map[string]interface{}{})
	assert.False(t, r.Valid)
	require.NotEmpty(t, r.Errors)
	assert.Equal(t, "REQUIRED", r.Errors[0].Code)
}

func TestKeywordSchema(t *testing.T) {
	assert.True(t, KeywordSchema.Accepts(`["알고리즘", "추천"]`))
	assert.False(t, KeywordSchema.Accepts(`{"keywords": []}`))
}
