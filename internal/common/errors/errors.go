// Package errors provides standardized error handling for the analytics chat pipeline
// and its BPMN workflow integration.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrCodeBackendError       ErrorCode = "BACKEND_ERROR"
	ErrCodeBackendTimeout     ErrorCode = "BACKEND_TIMEOUT"

	ErrCodeValidationFailure ErrorCode = "VALIDATION_FAILURE"

	ErrCodeRetrievalFailure         ErrorCode = "RETRIEVAL_FAILURE"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeUnknownView              ErrorCode = "UNKNOWN_VIEW"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound     ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeNoDataFound ErrorCode = "NO_DATA_FOUND"

	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// Sentinels for errors.Is checks across package boundaries.
var (
	ErrBackendUnavailable = stderrors.New(string(ErrCodeBackendUnavailable))
	ErrBackendError       = stderrors.New(string(ErrCodeBackendError))
	ErrValidationFailure  = stderrors.New(string(ErrCodeValidationFailure))
	ErrRetrievalFailure   = stderrors.New(string(ErrCodeRetrievalFailure))
	ErrNoDataFound        = stderrors.New(string(ErrCodeNoDataFound))
	ErrUnknownView        = stderrors.New(string(ErrCodeUnknownView))
	ErrInvalidInput       = stderrors.New(string(ErrCodeInvalidInput))
	ErrInternal           = stderrors.New(string(ErrCodeInternalError))
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

func NewBackendUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendUnavailable,
		Message:   "Language model backend unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewBackendError(status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBackendError,
		Message:   "Language model backend returned an error",
		Details:   fmt.Sprintf("status: %d, body: %s", status, details),
		Retryable: status >= 500,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

func NewValidationFailureError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailure,
		Message:   "Model output failed structural validation",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewRetrievalFailureError(viewName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrievalFailure,
		Message:   "View retrieval failed",
		Details:   fmt.Sprintf("view: %s, error: %s", viewName, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"view": viewName},
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryExecutionFailedError(viewName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("view: %s, error: %s", viewName, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize maps any error onto a StandardError. Details keep the raw
// message for logs; it must never be copied into a user-facing response.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}

	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return &StandardError{
			Code:      ErrCodeBackendTimeout,
			Message:   "Operation timed out",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	case stderrors.Is(err, ErrBackendUnavailable):
		return NewBackendUnavailableError(err)
	case stderrors.Is(err, ErrBackendError):
		return &StandardError{
			Code:      ErrCodeBackendError,
			Message:   "Language model backend returned an error",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	case stderrors.Is(err, ErrValidationFailure):
		return NewValidationFailureError(err.Error())
	case stderrors.Is(err, ErrRetrievalFailure):
		return &StandardError{
			Code:      ErrCodeRetrievalFailure,
			Message:   "View retrieval failed",
			Details:   err.Error(),
			Retryable: true,
			Timestamp: time.Now().UTC(),
		}
	case stderrors.Is(err, ErrUnknownView):
		return &StandardError{
			Code:      ErrCodeUnknownView,
			Message:   "View not in catalog",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	case stderrors.Is(err, ErrNoDataFound):
		return &StandardError{
			Code:      ErrCodeNoDataFound,
			Message:   "No matching data",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	case stderrors.Is(err, ErrInvalidInput):
		return NewInvalidInputError(err.Error())
	default:
		return NewInternalError(err)
	}
}

var userMessages = map[ErrorCode]string{
	ErrCodeBackendUnavailable: "지금은 AI 분석 서버에 연결할 수 없습니다. 잠시 후 다시 시도해 주세요.",
	ErrCodeBackendError:       "AI 분석 서버가 일시적으로 응답하지 못했습니다. 잠시 후 다시 시도해 주세요.",
	ErrCodeBackendTimeout:     "응답 생성에 시간이 너무 오래 걸렸습니다. 질문을 조금 더 구체적으로 해 주세요.",
	ErrCodeNoDataFound:        "조건에 맞는 데이터를 찾지 못했습니다. 다른 조건으로 질문해 주세요.",
	ErrCodeInvalidInput:       "질문을 이해하지 못했습니다. 다시 입력해 주세요.",
	ErrCodeInternalError:      "죄송합니다. 요청을 처리하는 중 문제가 발생했습니다. 잠시 후 다시 시도해 주세요.",
}

// UserMessage returns the polite sentence shown to users for a code.
func UserMessage(code ErrorCode) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[ErrCodeInternalError]
}

// PublicCode collapses internal codes into the small set exposed in the
// response envelope.
func PublicCode(code ErrorCode) string {
	switch code {
	case ErrCodeBackendUnavailable, ErrCodeBackendError, ErrCodeBackendTimeout:
		return string(ErrCodeBackendUnavailable)
	case ErrCodeInvalidInput:
		return string(ErrCodeInvalidInput)
	default:
		return string(ErrCodeInternalError)
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeBackendUnavailable:       "LLM_BACKEND_UNAVAILABLE",
	ErrCodeBackendError:             "LLM_BACKEND_ERROR",
	ErrCodeBackendTimeout:           "LLM_TIMEOUT",
	ErrCodeValidationFailure:        "LLM_VALIDATION_FAILURE",
	ErrCodeRetrievalFailure:         "RETRIEVAL_FAILURE",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeInvalidInput:             "CHAT_INPUT_INVALID",
	ErrCodeInternalError:            "INTERNAL_ERROR",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeRetrievalFailure:
		return 3

	case ErrCodeBackendUnavailable,
		ErrCodeBackendError:
		return 2

	case ErrCodeBackendTimeout,
		ErrCodeValidationFailure:
		return 1

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "BACKEND"):
		return "AI"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "RETRIEVAL") || strings.Contains(codeStr, "VIEW"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
