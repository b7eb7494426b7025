package chatorchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"

	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/common/metrics"
	"analytics-chat/internal/common/observability"
	"analytics-chat/internal/models"
	analyzequestion "analytics-chat/internal/workers/analytics-chat/analyze-question"
	analyzestatistics "analytics-chat/internal/workers/analytics-chat/analyze-statistics"
	generateresponse "analytics-chat/internal/workers/analytics-chat/generate-response"
	generatesuggestions "analytics-chat/internal/workers/analytics-chat/generate-suggestions"
	normalizeentities "analytics-chat/internal/workers/analytics-chat/normalize-entities"
	resolveviews "analytics-chat/internal/workers/analytics-chat/resolve-views"
	retrieveknowledge "analytics-chat/internal/workers/analytics-chat/retrieve-knowledge"
	retrieveviewdata "analytics-chat/internal/workers/analytics-chat/retrieve-view-data"
	routequery "analytics-chat/internal/workers/analytics-chat/route-query"
	"analytics-chat/pkg/registry"
)

const (
	conversationSystemPrompt = `당신은 YouTube 데이터 분석 전문가 AI입니다.
데이터 조회 없이 사용자의 인사에 답하거나, 자신을 소개하거나, 가벼운 대화를 나누세요.
항상 친절하고 전문적인 태도를 유지하세요.
사용자가 데이터가 필요한 질문을 했다면 "죄송하지만 그 질문은 데이터를 조회해야 정확히 답변드릴 수 있습니다. 구체적으로 질문해 주시겠어요?"라고 정중히 답하세요.
한국어로 답변하세요.`

	staticGreeting = "안녕하세요! 유튜브 트렌드 분석에 대해 무엇이든 물어보세요."
	knowledgeTool  = "knowledge_base"
)

// Deps holds every pipeline stage. Knowledge, Schema and Observability may
// be nil.
type Deps struct {
	Gateway       *llm.Gateway
	Catalog       *registry.Catalog
	History       *History
	Router        *routequery.Handler
	Knowledge     *retrieveknowledge.Handler
	Schema        *retrieveviewdata.SchemaProvider
	Analyzer      *analyzequestion.Handler
	Normalizer    *normalizeentities.Handler
	Resolver      *resolveviews.Handler
	Retriever     *retrieveviewdata.Handler
	Statistics    *analyzestatistics.Handler
	Responder     *generateresponse.Handler
	Suggester     *generatesuggestions.Handler
	Observability *observability.Observability
	HealthChecks  []HealthCheck
	Clock         clockwork.Clock
}

// Service runs the question pipeline. It is the only component that keeps
// state across questions, and that state is the session history.
type Service struct {
	config *Config
	deps   Deps
	clock  clockwork.Clock
	logger logger.Logger
}

func NewService(config *Config, deps Deps, log logger.Logger) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if deps.History == nil {
		deps.History = NewHistory(config.MaxSessions, config.MaxSessionMessages, config.SessionIdleTTL, nil, log)
	}
	return &Service{
		config: config,
		deps:   deps,
		clock:  clock,
		logger: logger.ForComponent(log, "chat-service"),
	}
}

// turn carries one question through the pipeline.
type turn struct {
	ctx      context.Context
	session  string
	question string
	route    models.Route
	thinking []string
}

func (t *turn) note(format string, args ...interface{}) {
	t.thinking = append(t.thinking, fmt.Sprintf(format, args...))
}

// Chat answers one question. It never returns an error: failures become a
// polite reply with a generic code, and every path records exactly one
// user turn and one assistant turn.
func (s *Service) Chat(ctx context.Context, message, sessionID string) (resp *models.ChatResponse) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	ctx, span := s.deps.Observability.Tracing().StartSpan(ctx, "chat")
	defer span.End()

	start := s.clock.Now()
	t := &turn{ctx: ctx, session: sessionID, question: strings.TrimSpace(message), route: models.RouteData}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("chat pipeline panicked", map[string]interface{}{"session": sessionID, "panic": fmt.Sprint(r)})
			resp = s.failure(t, apperrors.ErrCodeInternalError)
		}
		s.deps.History.AppendTurn(context.WithoutCancel(ctx), sessionID, message, resp.Response)

		status := "ok"
		if resp.Error != nil {
			status = "error"
		}
		span.SetAttributes(attribute.String("route", string(t.route)), attribute.String("status", status))
		metrics.ChatRequests.WithLabelValues(string(t.route), status).Inc()
		s.deps.Observability.RecordChat(ctx, string(t.route), status, s.clock.Since(start))
	}()

	if t.question == "" {
		return s.failure(t, apperrors.ErrCodeInvalidInput)
	}

	return s.run(t)
}

func (s *Service) run(t *turn) *models.ChatResponse {
	routed, _ := stage(s, t, "route", func(ctx context.Context) (*routequery.Output, error) {
		return s.deps.Router.Execute(ctx, &routequery.Input{Question: t.question})
	})
	if routed != nil {
		t.route = routed.Route
		t.note("[0단계] 라우팅: %s (%s)", routed.Route, routed.Thinking)
	}

	if t.route == models.RouteKnowledge {
		if resp := s.knowledge(t); resp != nil {
			return resp
		}
		t.route = models.RouteData
	}
	return s.data(t)
}

// knowledge answers from the document store, or returns nil to send the
// question down the data route.
func (s *Service) knowledge(t *turn) *models.ChatResponse {
	if s.deps.Knowledge == nil {
		t.note("[RAG] 지식 검색 미구성, 데이터 경로로 폴백")
		return nil
	}

	found, _ := stage(s, t, "knowledge_search", func(ctx context.Context) (*retrieveknowledge.SearchResult, error) {
		return s.deps.Knowledge.Search(ctx, t.question), nil
	})
	if found == nil || len(found.Documents) == 0 {
		t.note("[RAG] 검색 결과 없음, 데이터 경로로 폴백")
		return nil
	}
	t.note("[RAG] 검색 결과: %d개 문서 (키워드: %s)", len(found.Documents), strings.Join(found.Keywords, ", "))

	answer, _ := stage(s, t, "knowledge_answer", func(ctx context.Context) (*string, error) {
		a := s.deps.Knowledge.Answer(ctx, t.question, found.Documents)
		return &a, nil
	})
	t.note("[RAG] 응답 생성 완료")

	resp := s.envelope(t)
	resp.Response = *answer
	resp.ToolsUsed = []string{knowledgeTool}
	return resp
}

func (s *Service) data(t *turn) *models.ChatResponse {
	schemaText := ""
	if s.deps.Schema != nil {
		schemaText = s.deps.Schema.SchemaText(t.ctx)
	} else if s.deps.Catalog != nil {
		schemaText = s.deps.Catalog.CatalogText()
	}

	analyzed, err := stage(s, t, "analyze", func(ctx context.Context) (*analyzequestion.Output, error) {
		return s.deps.Analyzer.Execute(ctx, &analyzequestion.Input{
			Question:        t.question,
			SchemaText:      schemaText,
			LastTurnSummary: s.deps.History.LastTurnSummary(ctx, t.session, s.config.LastTurnChars),
		})
	})
	if err != nil {
		return s.failure(t, apperrors.Normalize(err).Code)
	}
	t.note("[1단계] %s", orDefault(analyzed.Thinking, "통합 분석 완료"))

	analysis := analyzed.Analysis
	if analysis.IsConversation() {
		return s.conversation(t)
	}

	if normalized, err := stage(s, t, "normalize", func(ctx context.Context) (*normalizeentities.Output, error) {
		return s.deps.Normalizer.Execute(ctx, &normalizeentities.Input{Analysis: analysis})
	}); err == nil {
		analysis = normalized.Analysis
		if normalized.Thinking != "" {
			t.note("[1.5단계] %s", normalized.Thinking)
		}
	}

	resolved, err := stage(s, t, "resolve_views", func(ctx context.Context) (*resolveviews.Output, error) {
		return s.deps.Resolver.Execute(ctx, &resolveviews.Input{Question: t.question, Analysis: analysis})
	})
	if err != nil {
		return s.failure(t, apperrors.Normalize(err).Code)
	}
	t.note("[2단계] 선택된 View: %s", viewNames(resolved.Views))

	retrieved, err := stage(s, t, "retrieve", func(ctx context.Context) (*retrieveviewdata.Output, error) {
		return s.deps.Retriever.Execute(ctx, &retrieveviewdata.Input{
			Views:   resolved.Views,
			Filters: analysis.Filters,
			Sort:    analysis.Sort,
		})
	})
	if err != nil {
		return s.failure(t, apperrors.Normalize(err).Code)
	}
	t.note("[3단계] %s", retrieved.Thinking)

	highlights := ""
	if retrieved.Result.TotalRows() > 0 {
		if summary, err := stage(s, t, "statistics", func(ctx context.Context) (*analyzestatistics.Output, error) {
			return s.deps.Statistics.Execute(ctx, &analyzestatistics.Input{Views: retrieved.Result.Views})
		}); err == nil {
			highlights = summary.Highlights
			t.note("[4단계] %s", orDefault(summary.Thinking, "종합 분석 완료"))
		}
	}

	generated, err := stage(s, t, "respond", func(ctx context.Context) (*generateresponse.Output, error) {
		return s.deps.Responder.Execute(ctx, &generateresponse.Input{
			Question:   t.question,
			Analysis:   &analysis,
			Retrieval:  retrieved.Result,
			Highlights: highlights,
		})
	})
	if err != nil {
		return s.failure(t, apperrors.Normalize(err).Code)
	}
	t.note("[5단계] %s", generated.Thinking)

	resp := s.envelope(t)
	resp.Response = generated.Text
	resp.ResponseType = generated.ResponseType
	resp.StructuredData = generated.StructuredData
	if len(retrieved.ToolsUsed) > 0 {
		resp.ToolsUsed = retrieved.ToolsUsed
	}

	if suggested, err := stage(s, t, "suggest", func(ctx context.Context) (*generatesuggestions.Output, error) {
		return s.deps.Suggester.Execute(ctx, &generatesuggestions.Input{
			Question:  t.question,
			Answer:    generated.Text,
			ViewNames: retrieved.Result.ViewNames(),
			Analysis:  &analysis,
		})
	}); err == nil {
		resp.SuggestedQuestions = suggested.Questions
		resp.Insights = suggested.Insights
		resp.RelatedAnalyses = suggested.Related
		t.note("[6단계] 제안 생성 완료")
	}

	resp.Thinking = s.joinThinking(t)
	return resp
}

func (s *Service) conversation(t *turn) *models.ChatResponse {
	reply, _ := stage(s, t, "conversation", func(ctx context.Context) (*string, error) {
		r := s.conversationReply(ctx, t)
		return &r, nil
	})
	t.note("[대화] 일상 대화 처리 완료")

	resp := s.envelope(t)
	resp.Response = *reply
	return resp
}

func (s *Service) conversationReply(ctx context.Context, t *turn) string {
	messages := []models.Message{models.SystemMessage(conversationSystemPrompt)}
	messages = append(messages, s.deps.History.Recent(ctx, t.session, s.config.ConversationHistory)...)
	messages = append(messages, models.UserMessage(t.question))

	reply, err := s.deps.Gateway.Invoke(ctx, messages, s.config.ConversationTemperature, s.config.ConversationMaxTokens)
	if err != nil {
		s.logger.Warn("conversation reply failed", map[string]interface{}{"code": apperrors.Normalize(err).Code})
		return staticGreeting
	}
	if reply = llm.StripThinking(reply); reply == "" {
		return staticGreeting
	}
	return reply
}

// envelope returns a response with every list non-nil.
func (s *Service) envelope(t *turn) *models.ChatResponse {
	return &models.ChatResponse{
		ToolsUsed:          []string{},
		ResponseType:       "text",
		SuggestedQuestions: []string{},
		Insights:           []string{},
		RelatedAnalyses:    []string{},
		SessionID:          t.session,
		Route:              t.route,
		Thinking:           s.joinThinking(t),
	}
}

func (s *Service) failure(t *turn, code apperrors.ErrorCode) *models.ChatResponse {
	public := apperrors.PublicCode(code)
	t.note("[오류] %s", public)
	resp := s.envelope(t)
	resp.Response = apperrors.UserMessage(apperrors.ErrorCode(public))
	resp.Error = &public
	return resp
}

func (s *Service) joinThinking(t *turn) string {
	return strings.Join(t.thinking, "\n")
}

// stage runs one pipeline step inside a span and records its duration.
func stage[T any](s *Service, t *turn, name string, fn func(ctx context.Context) (*T, error)) (*T, error) {
	ctx, span := s.deps.Observability.Tracing().StartSpan(t.ctx, "chat."+name)
	defer span.End()

	start := s.clock.Now()
	out, err := fn(ctx)
	metrics.StageDuration.WithLabelValues(name).Observe(s.clock.Since(start).Seconds())

	if err == nil && out == nil {
		err = fmt.Errorf("%w: stage %s returned nothing", apperrors.ErrInternal, name)
	}
	if err != nil {
		span.RecordError(err)
		s.logger.Error("pipeline stage failed", map[string]interface{}{
			"stage":   name,
			"session": t.session,
			"error":   err.Error(),
		})
		return nil, err
	}
	return out, nil
}

func viewNames(views []models.ViewRequest) string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// ClearHistory drops a session's conversation.
func (s *Service) ClearHistory(ctx context.Context, sessionID string) error {
	return s.deps.History.Clear(ctx, sessionID)
}

func (s *Service) AvailableViews() []registry.ViewDescriptor {
	if s.deps.Catalog == nil {
		return nil
	}
	return s.deps.Catalog.Views()
}

// Health reports backend reachability and the state of each dependency.
func (s *Service) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:     "healthy",
		Backend:    s.deps.Gateway.BackendName(),
		Components: map[string]string{},
		Sessions:   s.deps.History.Len(),
	}
	if err := s.deps.Gateway.Health(ctx); err != nil {
		status.Components["llm"] = string(apperrors.Normalize(err).Code)
		status.Status = "unhealthy"
	} else {
		status.Components["llm"] = "ok"
	}
	for _, hc := range s.deps.HealthChecks {
		if err := hc.Check(ctx); err != nil {
			status.Components[hc.Name] = "unavailable"
			if status.Status == "healthy" {
				status.Status = "degraded"
			}
			continue
		}
		status.Components[hc.Name] = "ok"
	}
	return status
}

func (s *Service) Close() {
	s.deps.History.Close()
}
