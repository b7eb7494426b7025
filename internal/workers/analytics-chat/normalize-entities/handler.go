package normalizeentities

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"analytics-chat/internal/common/cache"
	"analytics-chat/internal/common/camunda"
	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/common/validation"
	"analytics-chat/internal/models"
	"analytics-chat/pkg/registry"
)

const TaskType = "normalize-entities"

const (
	categoryEntity = "category"
	categoryField  = "카테고리"
	cacheKeyPrefix = "category-map:"
)

const systemPrompt = "JSON만 출력하세요. 설명은 쓰지 마세요."

type Handler struct {
	config     *Config
	gateway    *llm.Gateway
	mappings   cache.Cache
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler builds the normalizer. mappings may be nil, in which case every
// non-English value goes to the model.
func NewHandler(config *Config, gateway *llm.Gateway, mappings cache.Cache, log logger.Logger) *Handler {
	l := logger.ForComponent(log, TaskType)
	return &Handler{
		config:     config,
		gateway:    gateway,
		mappings:   mappings,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(client, job, h.logger, h.errHandler, h.Execute)
}

// Execute rewrites non-English category values to the canonical taxonomy.
// It never fails: on any problem the analysis is returned unchanged.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	analysis := cloneAnalysis(input.Analysis)

	pending := h.pendingValues(analysis)
	if len(pending) == 0 {
		return &Output{Analysis: analysis}, nil
	}

	resolved := make(map[string]string, len(pending))
	var unknown []string
	for _, value := range pending {
		if canonical, ok := registry.CanonicalCategory(value); ok {
			resolved[value] = canonical
			continue
		}
		if cached, ok := h.cachedMapping(ctx, value); ok {
			resolved[value] = cached
			continue
		}
		unknown = append(unknown, value)
	}

	if len(unknown) > 0 {
		mapped, err := h.askModel(ctx, unknown)
		if err != nil {
			h.logger.Warn("category normalization failed, keeping originals", map[string]interface{}{
				"error":  err.Error(),
				"values": unknown,
			})
		}
		for original, normalized := range mapped {
			resolved[original] = normalized
			h.storeMapping(ctx, original, normalized)
		}
	}

	if len(resolved) == 0 {
		return &Output{Analysis: analysis}, nil
	}

	apply(&analysis, resolved)
	h.logger.Info("categories normalized", map[string]interface{}{"mappings": resolved})
	return &Output{
		Analysis: analysis,
		Mappings: resolved,
		Thinking: describe(resolved),
	}, nil
}

// pendingValues lists distinct category values that are not English.
func (h *Handler) pendingValues(a models.QuestionAnalysis) []string {
	seen := make(map[string]bool)
	var values []string
	add := func(v interface{}) {
		s, ok := v.(string)
		if !ok {
			return
		}
		s = strings.TrimSpace(s)
		if s == "" || seen[s] || IsEnglish(s, h.config.EnglishRatio) {
			return
		}
		seen[s] = true
		values = append(values, s)
	}

	add(a.Entities[categoryEntity])
	for _, f := range a.Filters {
		if f.Field == categoryField {
			add(f.Value)
		}
	}
	return values
}

func (h *Handler) askModel(ctx context.Context, values []string) (map[string]string, error) {
	categories, _ := json.Marshal(registry.Categories)
	inputs, _ := json.Marshal(values)

	prompt := fmt.Sprintf(`사용자가 입력한 카테고리 값을 아래 목록의 정확한 영어 이름으로 바꾸세요.

## 카테고리 목록
%s

## 바꿀 값
%s

## 응답 형식
{"mappings": [{"original": "게임", "normalized": "Gaming"}]}

목록에 없는 값은 가장 가까운 카테고리로 매핑하세요.`, categories, inputs)

	reply, err := h.gateway.Invoke(ctx, []models.Message{
		models.SystemMessage(systemPrompt),
		models.UserMessage(prompt),
	}, h.config.Temperature, h.config.MaxTokens)
	if err != nil {
		return nil, err
	}

	doc, ok := llm.ExtractJSON(reply)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in mapping reply", apperrors.ErrValidationFailure)
	}
	var parsed mappingReply
	if err := validation.MappingSchema.DecodeValid(doc, &parsed); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(values))
	for _, v := range values {
		wanted[v] = true
	}

	out := make(map[string]string)
	for _, m := range parsed.Mappings {
		original := strings.TrimSpace(m.Original)
		if !wanted[original] {
			continue
		}
		// values outside the taxonomy would never match a row
		if canonical, ok := registry.CanonicalCategory(m.Normalized); ok {
			out[original] = canonical
		}
	}
	return out, nil
}

func (h *Handler) cachedMapping(ctx context.Context, value string) (string, bool) {
	if h.mappings == nil {
		return "", false
	}
	raw, ok := h.mappings.Get(ctx, cacheKeyPrefix+value)
	if !ok {
		return "", false
	}
	return string(raw), true
}

func (h *Handler) storeMapping(ctx context.Context, original, normalized string) {
	if h.mappings != nil {
		h.mappings.Set(ctx, cacheKeyPrefix+original, []byte(normalized))
	}
}

func apply(a *models.QuestionAnalysis, resolved map[string]string) {
	if v, ok := a.Entities[categoryEntity].(string); ok {
		if n, ok := resolved[strings.TrimSpace(v)]; ok {
			a.Entities[categoryEntity] = n
		}
	}
	for i, f := range a.Filters {
		if f.Field != categoryField {
			continue
		}
		if v, ok := f.Value.(string); ok {
			if n, ok := resolved[strings.TrimSpace(v)]; ok {
				a.Filters[i].Value = n
			}
		}
	}
}

func describe(resolved map[string]string) string {
	keys := make([]string, 0, len(resolved))
	for k := range resolved {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s -> %s", k, resolved[k])
	}
	return "카테고리 정규화: " + strings.Join(parts, ", ")
}

// IsEnglish reports whether ASCII letters make up more than ratio of the
// non-space characters in s. The empty string counts as English.
func IsEnglish(s string, ratio float64) bool {
	var letters, total int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return true
	}
	return float64(letters)/float64(total) > ratio
}

func cloneAnalysis(a models.QuestionAnalysis) models.QuestionAnalysis {
	out := a
	out.Entities = make(map[string]interface{}, len(a.Entities))
	for k, v := range a.Entities {
		out.Entities[k] = v
	}
	out.Filters = append([]models.Filter(nil), a.Filters...)
	out.RequiredViews = append([]models.ViewRequest(nil), a.RequiredViews...)
	return out
}
