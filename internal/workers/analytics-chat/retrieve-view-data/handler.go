package retrieveviewdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"analytics-chat/internal/common/camunda"
	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/common/metrics"
	"analytics-chat/internal/models"
	"analytics-chat/pkg/registry"
)

const TaskType = "retrieve-view-data"

type viewOutcome struct {
	result *models.ViewResult
	err    error
}

type Handler struct {
	config     *Config
	store      Store
	catalog    *registry.Catalog
	pool       pond.ResultPool[viewOutcome]
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, store Store, catalog *registry.Catalog, log logger.Logger) *Handler {
	concurrency := config.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	l := logger.ForComponent(log, TaskType)
	return &Handler{
		config:     config,
		store:      store,
		catalog:    catalog,
		pool:       pond.NewResultPool[viewOutcome](concurrency),
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(client, job, h.logger, h.errHandler, h.Execute)
}

// Close waits for in-flight view reads and stops the pool.
func (h *Handler) Close() {
	h.pool.StopAndWait()
}

// Execute reads every requested view concurrently. A failing view is
// reported in Failures and never affects its siblings.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	group := h.pool.NewGroup()
	for _, req := range input.Views {
		req := req
		group.Submit(func() (o viewOutcome) {
			defer func() {
				if r := recover(); r != nil {
					o = viewOutcome{err: fmt.Errorf("%w: panic reading %s: %v", apperrors.ErrInternal, req.Name, r)}
				}
			}()
			res, err := h.fetchView(ctx, req, input.Filters, input.Sort)
			return viewOutcome{result: res, err: err}
		})
	}

	outcomes, err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}

	out := &Output{Result: models.RetrievalResult{Views: []models.ViewResult{}}}
	var thinking []string
	for i, o := range outcomes {
		name := input.Views[i].Name
		if o.err != nil {
			code := apperrors.Normalize(o.err).Code
			metrics.RetrievalFailures.WithLabelValues(name).Inc()
			h.logger.Error("view retrieval failed", map[string]interface{}{
				"view":  name,
				"error": o.err.Error(),
			})
			out.Result.Failures = append(out.Result.Failures, models.ViewFailure{ViewName: name, Error: string(code)})
			thinking = append(thinking, fmt.Sprintf("실패: %s (%s)", name, code))
			continue
		}

		v := *o.result
		out.Result.Views = append(out.Result.Views, v)
		out.ToolsUsed = append(out.ToolsUsed, name)
		thinking = append(thinking, describeView(v))
	}

	out.Thinking = strings.Join(thinking, "\n")
	h.logger.Info("views retrieved", map[string]interface{}{
		"requested": len(input.Views),
		"succeeded": len(out.Result.Views),
		"rows":      out.Result.TotalRows(),
	})
	return out, nil
}

func (h *Handler) fetchView(ctx context.Context, req models.ViewRequest, filters []models.Filter, sortSpec *models.SortSpec) (*models.ViewResult, error) {
	view, ok := h.catalog.Get(req.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownView, req.Name)
	}

	if h.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.QueryTimeout)
		defer cancel()
	}

	result := &models.ViewResult{
		ViewName:        view.Name,
		Description:     view.Description,
		OriginalFilters: filters,
		FiltersApplied:  []models.Filter{},
		FiltersSkipped:  []models.Filter{},
	}

	result.Sort = h.correctSort(view.Name, sortSpec)
	if sortSpec != nil && sortSpec.Field != "" && (result.Sort == nil || result.Sort.Field != sortSpec.Field) {
		result.Notes = append(result.Notes, sortNote(sortSpec.Field, result.Sort))
	}

	active := activeFilters(filters)
	fetchLimit := req.Limit
	if len(active) > 0 {
		fetchLimit = req.Limit * h.config.OverFetchFactor
	}

	snap, err := h.store.QueryView(ctx, Query{
		View:    view.Name,
		Filters: pushdown(view, active),
		Sort:    result.Sort,
		Limit:   fetchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrRetrievalFailure, view.Name, err)
	}
	result.Columns = snap.Columns

	if len(snap.Rows) == 0 && len(active) > 0 {
		snap, err = h.store.QueryView(ctx, Query{View: view.Name, Sort: result.Sort, Limit: req.Limit})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrRetrievalFailure, view.Name, err)
		}
		metrics.RetrievalFallbacks.WithLabelValues(view.Name).Inc()
		result.FallbackApplied = true
		result.Columns = snap.Columns
		result.Rows = truncate(snap.Rows, req.Limit)
		result.Notes = append(result.Notes, "필터 결과가 없어 전체 데이터로 대체")
		return result, nil
	}

	rows, applied, skipped := ApplyFilters(snap.Rows, active)
	if applied != nil {
		result.FiltersApplied = applied
	}
	if skipped != nil {
		result.FiltersSkipped = skipped
	}
	result.Rows = truncate(rows, req.Limit)
	if len(result.Rows) == 0 {
		result.Notes = append(result.Notes, "조건에 맞는 데이터 없음")
	}
	return result, nil
}

// correctSort keeps the sort when the view has the field, swaps in the
// view's declared substitute, or drops it.
func (h *Handler) correctSort(view string, s *models.SortSpec) *models.SortSpec {
	if s == nil || s.Field == "" {
		return nil
	}
	field, ok := h.catalog.CorrectSort(view, s.Field)
	if !ok {
		return nil
	}
	return &models.SortSpec{Field: field, Order: s.Order}
}

// pushdown keeps the filters the database can evaluate: known columns only,
// and comparisons only with numeric values.
func pushdown(view registry.ViewDescriptor, filters []models.Filter) []models.Filter {
	var out []models.Filter
	for _, f := range filters {
		if !view.HasColumn(f.Field) {
			continue
		}
		if isComparison(f.Operator) {
			if _, ok := CompareValue(f.Value); !ok {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

func activeFilters(filters []models.Filter) []models.Filter {
	var out []models.Filter
	for _, f := range filters {
		if f.Field != "" && f.Value != nil {
			out = append(out, f)
		}
	}
	return out
}

func truncate(rows []models.Row, limit int) []models.Row {
	if rows == nil {
		return []models.Row{}
	}
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func sortNote(requested string, applied *models.SortSpec) string {
	if applied == nil {
		return fmt.Sprintf("정렬 컬럼 '%s' 없음, 정렬 생략", requested)
	}
	return fmt.Sprintf("정렬 컬럼 '%s' -> '%s' 보정", requested, applied.Field)
}

func describeView(v models.ViewResult) string {
	var b strings.Builder
	if v.FallbackApplied {
		fmt.Fprintf(&b, "성공(Fallback): %s %d건", v.ViewName, len(v.Rows))
	} else {
		fmt.Fprintf(&b, "성공: %s %d건", v.ViewName, len(v.Rows))
	}
	for _, f := range v.FiltersSkipped {
		fmt.Fprintf(&b, ", 필터 스킵 %s", f.Field)
	}
	for _, n := range v.Notes {
		b.WriteString(", ")
		b.WriteString(n)
	}
	return b.String()
}
