package retrieveknowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"analytics-chat/internal/common/camunda"
	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/common/metrics"
	"analytics-chat/internal/common/validation"
	"analytics-chat/internal/models"
)

const TaskType = "retrieve-knowledge"

const (
	shortAnswerApology = "죄송합니다. 답변을 생성하는 중 문제가 발생했습니다. 다시 질문해 주세요."
	failedAnswer       = "죄송합니다. 지식 검색 응답을 생성하는 데 문제가 발생했습니다."
)

type Handler struct {
	config     *Config
	gateway    *llm.Gateway
	embedder   llm.Embedder
	vectors    VectorStore
	text       TextSearcher
	pool       pond.ResultPool[[]models.KnowledgeDocument]
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler wires the hybrid search. embedder, vectors and text may each be
// nil; the search uses whatever remains.
func NewHandler(config *Config, gateway *llm.Gateway, embedder llm.Embedder, vectors VectorStore, text TextSearcher, log logger.Logger) *Handler {
	l := logger.ForComponent(log, TaskType)
	return &Handler{
		config:     config,
		gateway:    gateway,
		embedder:   embedder,
		vectors:    vectors,
		text:       text,
		pool:       pond.NewResultPool[[]models.KnowledgeDocument](4),
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Close() {
	h.pool.StopAndWait()
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	camunda.Run(client, job, h.logger, h.errHandler, h.Execute)
}

// Execute searches and, when anything was found, answers from the documents.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result := h.Search(ctx, input.Question)
	out := &Output{
		Documents: result.Documents,
		Keywords:  result.Keywords,
		Thinking:  describe(result),
	}
	if len(result.Documents) > 0 {
		out.Answer = h.Answer(ctx, input.Question, result.Documents)
	}
	return out, nil
}

// Search runs keyword extraction, then vector and text search side by side.
// Backend failures only shrink the result; an empty result is not an error.
func (h *Handler) Search(ctx context.Context, question string) *SearchResult {
	keywords := h.Keywords(ctx, question)
	textKeywords := keywords
	if len(textKeywords) > h.config.TextKeywords {
		textKeywords = textKeywords[:h.config.TextKeywords]
	}

	group := h.pool.NewGroup()
	group.Submit(func() []models.KnowledgeDocument { return h.vectorSearch(ctx, question) })
	group.Submit(func() []models.KnowledgeDocument { return h.textSearch(ctx, textKeywords) })
	found, err := group.Wait()
	if err != nil || len(found) != 2 {
		h.logger.Error("knowledge search group failed", map[string]interface{}{"error": fmt.Sprint(err)})
		return &SearchResult{Keywords: keywords}
	}
	vector, text := found[0], found[1]

	docs := Merge(text, vector, h.config.DedupeChars, h.config.TopK)
	metrics.KnowledgeDocuments.Observe(float64(len(docs)))
	return &SearchResult{
		Documents:   docs,
		Keywords:    keywords,
		VectorCount: len(vector),
		TextCount:   len(text),
	}
}

// Keywords asks the model for search keywords and falls back to splitting
// the question.
func (h *Handler) Keywords(ctx context.Context, question string) []string {
	messages := []models.Message{
		models.SystemMessage(keywordPrompt),
		models.UserMessage(question),
	}
	reply, err := h.gateway.Invoke(ctx, messages, h.config.KeywordTemperature, h.config.KeywordMaxTokens)
	if err == nil {
		if doc, ok := llm.ExtractJSONArray(reply); ok {
			var keywords []string
			if err := validation.KeywordSchema.DecodeValid(doc, &keywords); err == nil && len(keywords) > 0 {
				return keywords
			}
		}
	}
	return SplitKeywords(question)
}

func (h *Handler) vectorSearch(ctx context.Context, question string) []models.KnowledgeDocument {
	if h.embedder == nil || h.vectors == nil {
		return nil
	}
	embedding, err := h.embedder.Embed(ctx, question)
	if err != nil {
		h.logger.Warn("question embedding failed, text search only", map[string]interface{}{
			"code": apperrors.Normalize(err).Code,
		})
		return nil
	}
	if len(embedding) == 0 {
		return nil
	}
	docs, err := h.vectors.Match(ctx, embedding, h.config.Threshold, h.config.TopK*2)
	if err != nil {
		h.logger.Warn("vector search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return docs
}

func (h *Handler) textSearch(ctx context.Context, keywords []string) []models.KnowledgeDocument {
	if h.text == nil || len(keywords) == 0 {
		return nil
	}
	docs, err := h.text.SearchText(ctx, keywords, h.config.TopK)
	if err != nil {
		h.logger.Warn("text search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	for i := range docs {
		docs[i].Similarity = h.config.TextSimilarity
	}
	return docs
}

// Answer writes a reply grounded on docs. It never fails; a short or missing
// reply becomes an apology.
func (h *Handler) Answer(ctx context.Context, question string, docs []models.KnowledgeDocument) string {
	messages := []models.Message{
		models.SystemMessage(answerPrompt(FormatContext(docs))),
		models.UserMessage(question),
	}
	reply, err := h.gateway.Invoke(ctx, messages, h.config.AnswerTemperature, h.config.AnswerMaxTokens)
	if err != nil {
		h.logger.Warn("knowledge answer failed", map[string]interface{}{"code": apperrors.Normalize(err).Code})
		return failedAnswer
	}
	reply = llm.StripThinking(reply)
	if len([]rune(reply)) < h.config.MinAnswerChars {
		return shortAnswerApology
	}
	return reply
}

func describe(r *SearchResult) string {
	return fmt.Sprintf("키워드: [%s], 벡터: %d개, 텍스트: %d개, 최종: %d개",
		strings.Join(r.Keywords, ", "), r.VectorCount, r.TextCount, len(r.Documents))
}
