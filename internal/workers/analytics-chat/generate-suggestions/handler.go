package generatesuggestions

import (
	"context"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"analytics-chat/internal/common/camunda"
	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/common/validation"
	"analytics-chat/internal/models"
)

const TaskType = "generate-suggestions"

const systemPrompt = "당신은 데이터 분석 제안 전문가입니다. JSON만 출력하세요."

// Static suggestions used whenever the model gives nothing usable.
var (
	StaticQuestions = []string{
		"현재 인기 동영상 TOP 10은?",
		"가장 성과가 좋은 채널은?",
		"카테고리별 현황 알려줘",
	}
	StaticRelated = []string{
		"트렌딩 동영상 심층 분석",
		"카테고리별 비교 분석",
	}
)

type Handler struct {
	config     *Config
	gateway    *llm.Gateway
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, gateway *llm.Gateway, log logger.Logger) *Handler {
	l := logger.ForComponent(log, TaskType)
	return &Handler{
		config:     config,
		gateway:    gateway,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(client, job, h.logger, h.errHandler, h.Execute)
}

// Execute never returns an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	messages := []models.Message{
		models.SystemMessage(systemPrompt),
		models.UserMessage(buildPrompt(input.Question, summarize(input.Answer, h.config.SummaryChars), input.ViewNames)),
	}

	text, err := h.gateway.Invoke(ctx, messages, h.config.Temperature, h.config.MaxTokens)
	if err != nil {
		h.logger.Warn("suggestion call failed, using static list", map[string]interface{}{
			"code": apperrors.Normalize(err).Code,
		})
		return Fallback(), nil
	}

	var reply suggestionReply
	doc, ok := llm.ExtractJSON(text)
	if !ok {
		h.logger.Warn("suggestion reply had no JSON", nil)
		return Fallback(), nil
	}
	if err := validation.SuggestionSchema.DecodeValid(doc, &reply); err != nil {
		h.logger.Warn("suggestion reply rejected", map[string]interface{}{"error": err.Error()})
		return Fallback(), nil
	}

	out := &Output{Suggestions: models.Suggestions{
		Questions: capList(reply.Questions, h.config.MaxQuestions),
		Insights:  capList(reply.Insights, h.config.MaxInsights),
		Related:   capList(reply.Related, h.config.MaxRelated),
	}}
	if len(out.Questions) == 0 {
		out.Questions = append([]string(nil), StaticQuestions...)
		if len(out.Related) == 0 {
			out.Related = append([]string(nil), StaticRelated...)
		}
		out.Fallback = true
	}
	return out, nil
}

// Fallback returns a fresh copy of the static suggestions.
func Fallback() *Output {
	return &Output{
		Suggestions: models.Suggestions{
			Questions: append([]string(nil), StaticQuestions...),
			Insights:  []string{},
			Related:   append([]string(nil), StaticRelated...),
		},
		Fallback: true,
	}
}

func buildPrompt(question, summary string, views []string) string {
	used := "없음"
	if len(views) > 0 {
		used = strings.Join(views, ", ")
	}
	return fmt.Sprintf(`## 작업
후속 질문과 인사이트를 생성하세요.

## 원래 질문
"%s"

## 답변 요약
%s

## 조회된 View
%s

## 생성 규칙
- suggested_questions: 후속 질문 3개 (구체적으로)
- insights: 데이터 인사이트 2개
- related_analyses: 관련 분석 제안 2개

## 예시
원래 질문이 "게임 카테고리 현황"이었다면:

`+"```json"+`
{
  "suggested_questions": [
    "게임 카테고리에서 참여율이 가장 높은 채널은?",
    "게임 vs 엔터테인먼트 카테고리 비교",
    "게임 카테고리 최적 업로드 시간대는?"
  ],
  "insights": [
    "게임 카테고리 평균 참여율이 전체 평균보다 38%% 높음",
    "상위 3개 동영상 중 2개가 스트리머 채널"
  ],
  "related_analyses": [
    "게임 카테고리 채널 구독자 분포",
    "게임 카테고리 시간대별 성과"
  ]
}
`+"```"+`

JSON만 출력:`, question, summary, used)
}

func summarize(answer string, limit int) string {
	r := []rune(answer)
	if limit <= 0 || len(r) <= limit {
		return answer
	}
	return string(r[:limit]) + "..."
}

func capList(items []string, n int) []string {
	out := make([]string, 0, n)
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if len(out) == n {
			break
		}
		out = append(out, s)
	}
	return out
}
