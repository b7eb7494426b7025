package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorCode
	}{
		{"backend unavailable", fmt.Errorf("%w: dial tcp 10.0.0.5:11434: connection refused", ErrBackendUnavailable), ErrCodeBackendUnavailable},
		{"backend error", fmt.Errorf("%w: status 500", ErrBackendError), ErrCodeBackendError},
		{"deadline", fmt.Errorf("invoke: %w", context.DeadlineExceeded), ErrCodeBackendTimeout},
		{"validation", fmt.Errorf("%w: missing intent", ErrValidationFailure), ErrCodeValidationFailure},
		{"retrieval", fmt.Errorf("%w: ai_channel_stats", ErrRetrievalFailure), ErrCodeRetrievalFailure},
		{"unknown", stderrors.New("boom"), ErrCodeInternalError},
		{"standard passthrough", NewInvalidInputError("empty message"), ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.err).Code)
		})
	}

	assert.Nil(t, Normalize(nil))
}

func TestUserMessage_NeverLeaksDetails(t *testing.T) {
	err := fmt.Errorf("%w: dial tcp ollama.internal:11434", ErrBackendUnavailable)
	stdErr := Normalize(err)

	msg := UserMessage(stdErr.Code)
	assert.NotContains(t, msg, "ollama.internal")
	assert.NotContains(t, msg, "11434")
	assert.Equal(t, "BACKEND_UNAVAILABLE", PublicCode(stdErr.Code))
	assert.Equal(t, "INTERNAL_ERROR", PublicCode(ErrCodeRetrievalFailure))
	assert.Equal(t, UserMessage(ErrCodeInternalError), UserMessage("SOMETHING_ELSE"))
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewBackendUnavailableError(stderrors.New("refused")))
	assert.Equal(t, "LLM_BACKEND_UNAVAILABLE", bpmn.Code)
	assert.Equal(t, 2, bpmn.Retries)
	assert.Equal(t, "BACKEND_UNAVAILABLE", bpmn.ToErrorVariables()["originalErrorCode"])

	bpmn = ConvertToBPMNError(NewInvalidInputError("empty"))
	assert.Equal(t, 0, bpmn.Retries)
	assert.False(t, bpmn.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeBackendError))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeRetrievalFailure))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailure))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeNoDataFound))
}
