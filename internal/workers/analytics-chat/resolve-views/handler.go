package resolveviews

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
	"analytics-chat/pkg/registry"
)

const TaskType = "resolve-views"

type keywordRule struct {
	keywords []string
	view     string
}

// Checked in order; every matching rule contributes its view.
var keywordRules = []keywordRule{
	{[]string{"채널", "channel", "유튜버"}, registry.ViewChannelStats},
	{[]string{"카테고리", "category", "분류"}, registry.ViewCategoryStats},
	{[]string{"쇼츠", "shorts"}, registry.ViewShortsVsRegular},
	{[]string{"시간대", "시간별", "hourly", "몇 시"}, registry.ViewHourlyPattern},
}

type Handler struct {
	config     *Config
	catalog    *registry.Catalog
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, catalog *registry.Catalog, log logger.Logger) *Handler {
	l := logger.ForComponent(log, TaskType)
	return &Handler{
		config:     config,
		catalog:    catalog,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(client, job, h.logger, h.errHandler, h.Execute)
}

// Execute turns the analyzer's proposed views into the final retrieval list.
// Conversation yields nothing; any other intent yields at least one view.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	if input.Analysis.IsConversation() {
		return &Output{Thinking: "대화형 질문, 데이터 조회 생략"}, nil
	}

	fallbackLimit := h.config.DefaultLimit
	if input.Analysis.Limit > 0 {
		fallbackLimit = input.Analysis.Limit
	}
	fallbackLimit = h.clamp(fallbackLimit)

	var (
		views   []models.ViewRequest
		dropped []string
		seen    = make(map[string]bool)
	)
	for _, v := range input.Analysis.RequiredViews {
		name := strings.TrimSpace(v.Name)
		if !h.catalog.Has(name) {
			dropped = append(dropped, name)
			continue
		}
		if seen[name] || len(views) >= h.config.MaxViews {
			continue
		}
		seen[name] = true

		limit := fallbackLimit
		if v.Limit != 0 {
			limit = h.clamp(v.Limit)
		}
		views = append(views, models.ViewRequest{Name: name, Limit: limit, Reason: v.Reason})
	}

	if len(dropped) > 0 {
		h.logger.Warn("dropped unknown views", map[string]interface{}{"views": dropped})
	}

	if len(views) > 0 {
		return &Output{Views: views, Thinking: fmt.Sprintf("선택된 View: %s", joinNames(views))}, nil
	}

	views = h.keywordViews(input.Question, fallbackLimit)
	h.logger.Info("keyword view selection", map[string]interface{}{"views": joinNames(views)})
	return &Output{
		Views:    views,
		Thinking: fmt.Sprintf("키워드 기반 View 선택: %s", joinNames(views)),
		Fallback: true,
	}, nil
}

func (h *Handler) keywordViews(question string, limit int) []models.ViewRequest {
	lower := strings.ToLower(question)

	var views []models.ViewRequest
	for _, rule := range keywordRules {
		if len(views) >= h.config.MaxViews {
			break
		}
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				views = append(views, models.ViewRequest{Name: rule.view, Limit: limit, Reason: "키워드 일치"})
				break
			}
		}
	}
	if len(views) == 0 {
		views = append(views, models.ViewRequest{Name: registry.ViewCurrentTrending, Limit: limit, Reason: "기본 View"})
	}
	return views
}

func (h *Handler) clamp(limit int) int {
	if limit < h.config.MinLimit {
		return h.config.MinLimit
	}
	if limit > h.config.MaxLimit {
		return h.config.MaxLimit
	}
	return limit
}

func joinNames(views []models.ViewRequest) string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	return strings.Join(names, ", ")
}
