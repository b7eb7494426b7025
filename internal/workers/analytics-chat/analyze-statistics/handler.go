package analyzestatistics

import (
	"context"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"analytics-chat/internal/common/camunda"
	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
)

const TaskType = "analyze-statistics"

type Handler struct {
	engine     *Engine
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	l := logger.ForComponent(log, TaskType)
	return &Handler{
		engine:     NewEngine(config),
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(client, job, h.logger, h.errHandler, h.Execute)
}

func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	summary := h.engine.Summarize(input.Views)

	thinking := make([]string, 0, len(summary.Views))
	for _, v := range summary.Views {
		thinking = append(thinking, fmt.Sprintf("View '%s' 분석 완료 (%d개 수치 지표, 상관 %d, 이상치 %d)",
			v.ViewName, countNumeric(v), len(v.Correlations), len(v.Anomalies)))
	}

	h.logger.Debug("statistics computed", map[string]interface{}{"views": len(summary.Views)})
	return &Output{
		Summary:    summary,
		Highlights: Highlights(summary),
		Thinking:   strings.Join(thinking, "\n"),
	}, nil
}

func countNumeric(v models.ViewStatistics) int {
	n := 0
	for _, c := range v.Columns {
		if c.Kind == models.ColumnNumeric {
			n++
		}
	}
	return n
}
