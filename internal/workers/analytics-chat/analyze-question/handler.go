package analyzequestion

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/jonboulle/clockwork"

	"analytics-chat/internal/common/camunda"
	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/common/validation"
	"analytics-chat/internal/models"
)

const TaskType = "analyze-question"

const (
	categoryField = "카테고리"
	channelField  = "채널명"
	rankField     = "순위"
)

var greetingKeywords = []string{"안녕", "반가워", "누구", "소개"}

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

// Execute always yields an analysis. Gateway failures and unparsable output
// both produce the deterministic fallback.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	messages := []models.Message{
		models.SystemMessage(systemPrompt(h.clock.Now())),
		models.UserMessage(buildPrompt(input.Question, input.SchemaText, input.LastTurnSummary)),
	}

	validator := func(text string) bool {
		raw, ok := llm.ExtractJSON(text)
		return ok && validation.AnalysisSchema.Accepts(raw)
	}

	reply, err := h.gateway.InvokeWithRetry(ctx, messages, validator, llm.RetryOptions{
		MaxRetries:  h.config.MaxRetries,
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		return h.fallback(input.Question, string(apperrors.Normalize(err).Code)), nil
	}

	analysis, err := h.Parse(reply)
	if err != nil {
		h.logger.Warn("analysis output rejected", map[string]interface{}{"error": err.Error()})
		return h.fallback(input.Question, "JSON 파싱 실패"), nil
	}

	h.logger.Info("question analyzed", map[string]interface{}{
		"intent":  analysis.Intent,
		"views":   len(analysis.RequiredViews),
		"filters": len(analysis.Filters),
	})
	return &Output{Analysis: *analysis, Thinking: analysis.Reasoning}, nil
}

// Parse turns raw model text into an analysis. A non-nil error wraps
// ErrValidationFailure and means the text carried no usable plan.
func (h *Handler) Parse(text string) (*models.QuestionAnalysis, error) {
	doc, ok := llm.ExtractJSON(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", apperrors.ErrValidationFailure)
	}

	var raw rawAnalysis
	if err := validation.AnalysisSchema.DecodeValid(doc, &raw); err != nil {
		return nil, err
	}

	analysis := &models.QuestionAnalysis{
		Intent:    normalizeIntent(raw.Intent),
		Entities:  raw.Entities,
		Limit:     h.coerceLimit(raw.Limit, h.config.DefaultLimit),
		Reasoning: llm.ExtractThinking(text),
	}
	if analysis.Entities == nil {
		analysis.Entities = map[string]interface{}{}
	}

	for _, f := range raw.Filters {
		field := strings.TrimSpace(f.Field)
		if field == "" {
			continue
		}
		op := strings.ToLower(strings.TrimSpace(f.Operator))
		if !models.ValidOperator(op) {
			op = models.OpEqual
		}
		analysis.Filters = append(analysis.Filters, models.Filter{Field: field, Operator: op, Value: f.Value})
	}

	analysis.Sort = &models.SortSpec{Field: rankField, Order: "asc"}
	if raw.Sort != nil && strings.TrimSpace(raw.Sort.Field) != "" {
		order := strings.ToLower(strings.TrimSpace(raw.Sort.Order))
		if order != "desc" {
			order = "asc"
		}
		analysis.Sort = &models.SortSpec{Field: strings.TrimSpace(raw.Sort.Field), Order: order}
	}

	if !analysis.IsConversation() {
		analysis.RequiredViews = h.parseViews(raw.RequiredViews, analysis.Limit)
	}

	promoteEntities(analysis)
	return analysis, nil
}

func (h *Handler) parseViews(items []interface{}, fallbackLimit int) []models.ViewRequest {
	var views []models.ViewRequest
	for _, item := range items {
		switch v := item.(type) {
		case string:
			views = append(views, models.ViewRequest{Name: v, Limit: fallbackLimit})
		case map[string]interface{}:
			name, _ := v["name"].(string)
			if name == "" {
				continue
			}
			reason, _ := v["reason"].(string)
			views = append(views, models.ViewRequest{
				Name:   name,
				Limit:  h.coerceLimit(v["limit"], fallbackLimit),
				Reason: reason,
			})
		}
	}
	return views
}

// promoteEntities turns category and channel entities that have no filter
// into filters, so retrieval never reads entities.
func promoteEntities(a *models.QuestionAnalysis) {
	if cat := entityString(a.Entities, "category"); cat != "" && !hasFilter(a.Filters, categoryField) {
		a.Filters = append(a.Filters, models.Filter{Field: categoryField, Operator: models.OpEqual, Value: cat})
	}
	if ch := entityString(a.Entities, "channel"); ch != "" && !hasFilter(a.Filters, channelField) {
		a.Filters = append(a.Filters, models.Filter{Field: channelField, Operator: models.OpContains, Value: ch})
	}
}

func entityString(entities map[string]interface{}, key string) string {
	switch v := entities[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func hasFilter(filters []models.Filter, field string) bool {
	for _, f := range filters {
		if f.Field == field {
			return true
		}
	}
	return false
}

func normalizeIntent(s string) models.Intent {
	intent := models.Intent(strings.ToLower(strings.TrimSpace(s)))
	if !intent.Valid() {
		return models.IntentSearch
	}
	return intent
}

func (h *Handler) coerceLimit(v interface{}, fallback int) int {
	limit := fallback
	switch n := v.(type) {
	case float64:
		limit = int(n)
	case int:
		limit = n
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			limit = parsed
		}
	}
	return ClampLimit(limit, h.config.MinLimit, h.config.MaxLimit)
}

func ClampLimit(limit, min, max int) int {
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}

func (h *Handler) fallback(question, reason string) *Output {
	analysis := FallbackAnalysis(question, reason, h.config.DefaultView, h.config.DefaultLimit)
	h.logger.Warn("using fallback analysis", map[string]interface{}{
		"intent": analysis.Intent,
		"reason": reason,
	})
	return &Output{Analysis: *analysis, Thinking: analysis.Reasoning, Fallback: true}
}

// FallbackAnalysis is the deterministic plan used when the model gives
// nothing usable. Greetings become conversation; everything else searches
// the default view.
func FallbackAnalysis(question, reason, defaultView string, limit int) *models.QuestionAnalysis {
	analysis := &models.QuestionAnalysis{
		Intent:    models.IntentSearch,
		Entities:  map[string]interface{}{},
		Sort:      &models.SortSpec{Field: rankField, Order: "asc"},
		Limit:     limit,
		Reasoning: fmt.Sprintf("폴백 분석 사용 (이유: %s)", reason),
		Fallback:  true,
	}

	lower := strings.ToLower(question)
	for _, kw := range greetingKeywords {
		if strings.Contains(lower, kw) {
			analysis.Intent = models.IntentConversation
			return analysis
		}
	}

	analysis.RequiredViews = []models.ViewRequest{{Name: defaultView, Limit: limit, Reason: "기본 View"}}
	return analysis
}
