package routequery

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
	"analytics-chat/internal/models"
)

const TaskType = "route-query"

const knowledgeMarker = "KNOWLEDGE"

const systemPrompt = `당신은 질문 분류기입니다. 사용자 질문을 아래 두 유형 중 하나로 분류하세요.

DATA: 실시간 데이터를 조회해야 답할 수 있는 질문
- 순위, TOP N, 랭킹
- 통계, 수치, 비교
- 특정 채널, 카테고리, 기간으로 좁힌 조회
- 지금 트렌딩 중인 것, 오늘이나 어제의 데이터

KNOWLEDGE: 개념 지식으로 답할 수 있는 질문
- 용어나 개념의 정의
- 전략, 팁, 방법론
- 알고리즘이 동작하는 원리, 플랫폼 사용법

한 줄로만 답하세요: ROUTE: DATA 또는 ROUTE: KNOWLEDGE`

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

// Execute never fails: any gateway error routes to data.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	messages := []models.Message{
		models.SystemMessage(systemPrompt),
		models.UserMessage(input.Question),
	}

	reply, err := h.gateway.Invoke(ctx, messages, h.config.Temperature, h.config.MaxTokens)
	if err != nil {
		h.logger.Warn("route classification failed, defaulting to data", map[string]interface{}{
			"error": err.Error(),
		})
		return &Output{
			Route:      models.RouteData,
			Confidence: h.config.FallbackConfidence,
			Thinking:   fmt.Sprintf("분류 실패, 기본 경로 data 사용 (%s)", apperrors.Normalize(err).Code),
		}, nil
	}

	route := Classify(reply)
	h.logger.Info("question routed", map[string]interface{}{"route": route})
	return &Output{
		Route:      route,
		Confidence: h.config.Confidence,
		Thinking:   fmt.Sprintf("LLM 분류 결과: %s", route),
	}, nil
}

// Classify maps raw classifier output to a route. Anything without the
// knowledge marker is data.
func Classify(reply string) models.Route {
	if strings.Contains(strings.ToUpper(strings.TrimSpace(reply)), knowledgeMarker) {
		return models.RouteKnowledge
	}
	return models.RouteData
}
