package generateresponse

import (
	"context"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/jonboulle/clockwork"

	"analytics-chat/internal/common/camunda"
	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
)

const TaskType = "generate-response"

const noDataApology = "죄송합니다. 요청하신 조건에 맞는 데이터를 찾지 못했습니다. 다른 조건이나 기간으로 다시 질문해 주세요."

type Handler struct {
	config     *Config
	gateway    *llm.Gateway
	clock      clockwork.Clock
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, gateway *llm.Gateway, clock clockwork.Clock, log logger.Logger) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l := logger.ForComponent(log, TaskType)
	return &Handler{
		config:     config,
		gateway:    gateway,
		clock:      clock,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(client, job, h.logger, h.errHandler, h.Execute)
}

// Execute never fails. Without data it explains the empty result, and when
// the model is unavailable it answers with a plain data summary.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	dataContext := DataContext(input.Retrieval, h.config.SampleRows, h.config.SampleBytes)
	if dataContext == "" {
		return h.noData(ctx, input), nil
	}

	var chart *models.ChartPayload
	if largest := input.Retrieval.Largest(); largest != nil {
		chart = BuildChart(*largest)
	}

	thinking := []string{"LLM 데이터 기반 응답 생성"}
	thinking = append(thinking, filterThinking(input.Retrieval.Views)...)

	messages := []models.Message{
		models.SystemMessage(answerPrompt(dataContext, input.Highlights, h.clock.Now())),
		models.UserMessage(input.Question),
	}
	answer, err := h.gateway.Invoke(ctx, messages, h.config.Temperature, h.config.MaxTokens)
	if err == nil {
		answer = strings.TrimSpace(llm.StripThinking(answer))
		if chart != nil {
			answer = StripMarkdownTables(answer)
		}
		if answer == "" {
			err = fmt.Errorf("%w: empty answer", apperrors.ErrBackendError)
		}
	}

	if err != nil {
		code := apperrors.Normalize(err).Code
		h.logger.Warn("answer generation failed, using data summary", map[string]interface{}{"code": code})
		return &Output{models.GeneratedResponse{
			Text:           DataSummary(input.Question, input.Retrieval.Views, chart == nil),
			ResponseType:   "text",
			StructuredData: chart,
			Thinking:       strings.Join(append(thinking, fmt.Sprintf("LLM 응답 실패 (%s), 데이터 요약으로 대체", code)), "\n"),
			Fallback:       true,
		}}, nil
	}

	return &Output{models.GeneratedResponse{
		Text:           answer,
		ResponseType:   responseType(chart),
		StructuredData: chart,
		Thinking:       strings.Join(thinking, "\n"),
	}}, nil
}

func (h *Handler) noData(ctx context.Context, input *Input) *Output {
	messages := []models.Message{
		models.SystemMessage(noDataPrompt(input.Analysis)),
		models.UserMessage(input.Question),
	}
	answer, err := h.gateway.Invoke(ctx, messages, h.config.NoDataTemperature, h.config.NoDataMaxTokens)
	answer = strings.TrimSpace(llm.StripThinking(answer))
	if err != nil || answer == "" {
		reason := "빈 응답"
		if err != nil {
			reason = string(apperrors.Normalize(err).Code)
		}
		return &Output{models.GeneratedResponse{
			Text:         noDataApology,
			ResponseType: "text",
			Thinking:     fmt.Sprintf("조회된 데이터 없음, 안내 문구 사용 (%s)", reason),
			Fallback:     true,
		}}
	}
	return &Output{models.GeneratedResponse{
		Text:         answer,
		ResponseType: "text",
		Thinking:     "조회된 데이터 없음 -> LLM 설명 생성",
	}}
}

func responseType(chart *models.ChartPayload) string {
	if chart == nil {
		return "text"
	}
	switch chart.ChartType {
	case models.ChartBar, models.ChartPie, models.ChartLine, models.ChartComparison:
		return string(chart.ChartType)
	default:
		return "table"
	}
}

func filterThinking(views []models.ViewResult) []string {
	var lines []string
	for _, v := range views {
		if text := filterText(v.FiltersApplied); text != "" {
			lines = append(lines, fmt.Sprintf("%s 필터 적용: %s", v.ViewName, text))
		}
		if text := filterText(v.FiltersSkipped); text != "" {
			lines = append(lines, fmt.Sprintf("%s 필터 생략: %s", v.ViewName, text))
		}
		if v.FallbackApplied {
			lines = append(lines, fmt.Sprintf("%s 전체 데이터로 대체", v.ViewName))
		}
	}
	return lines
}
