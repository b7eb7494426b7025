// Package api exposes the chat pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/common/validation"
	"analytics-chat/internal/models"
	chatorchestrator "analytics-chat/internal/workers/analytics-chat/chat-orchestrator"
	retrieveknowledge "analytics-chat/internal/workers/analytics-chat/retrieve-knowledge"
	"analytics-chat/pkg/registry"
)

const (
	maxBodyBytes   = 1 << 20
	requestTimeout = 3 * time.Minute
	requestIDKey   = "X-Request-ID"
)

// ChatService is the pipeline surface the HTTP layer needs.
type ChatService interface {
	Chat(ctx context.Context, message, sessionID string) *models.ChatResponse
	ClearHistory(ctx context.Context, sessionID string) error
	AvailableViews() []registry.ViewDescriptor
	SuggestedQuestions() []chatorchestrator.QuestionTheme
	Health(ctx context.Context) chatorchestrator.HealthStatus
}

// Ingester loads documents into the knowledge base.
type Ingester interface {
	Ingest(ctx context.Context, doc retrieveknowledge.Document) (int, error)
}

type Server struct {
	service  ChatService
	ingester Ingester
	router   *chi.Mux
	logger   logger.Logger
}

// NewServer builds the router. ingester may be nil, in which case document
// ingestion answers 503.
func NewServer(service ChatService, ingester Ingester, log logger.Logger) *Server {
	s := &Server{
		service:  service,
		ingester: ingester,
		router:   chi.NewRouter(),
		logger:   logger.ForComponent(log, "api"),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(s.requestID)
	s.router.Use(s.accessLog)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(requestTimeout))

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/views", s.handleViews)
		r.Get("/suggested-questions", s.handleSuggestedQuestions)
		r.Delete("/history/{sessionID}", s.handleClearHistory)
		r.Post("/knowledge/documents", s.handleIngest)
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusRequestEntityTooLarge, apperrors.ErrCodeInvalidInput)
		return
	}

	var req chatRequest
	if err := validation.ChatRequestSchema.DecodeValid(string(body), &req); err != nil {
		s.logger.Warn("rejected chat request", map[string]interface{}{
			"requestId": w.Header().Get(requestIDKey),
			"error":     err.Error(),
		})
		s.writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput)
		return
	}

	resp := s.service.Chat(r.Context(), req.Message, req.SessionID)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleViews(w http.ResponseWriter, _ *http.Request) {
	views := s.service.AvailableViews()
	if views == nil {
		views = []registry.ViewDescriptor{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"views": views})
}

func (s *Server) handleSuggestedQuestions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"themes": s.service.SuggestedQuestions()})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.service.ClearHistory(r.Context(), sessionID); err != nil {
		s.logger.Error("clear history failed", map[string]interface{}{"session": sessionID, "error": err.Error()})
		s.writeError(w, http.StatusInternalServerError, apperrors.ErrCodeInternalError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": true, "session_id": sessionID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.service.Health(r.Context())
	code := http.StatusOK
	if status.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, status)
}

type ingestRequest struct {
	Source   string `json:"source"`
	Content  string `json:"content"`
	Markdown bool   `json:"markdown"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingester == nil {
		s.writeError(w, http.StatusServiceUnavailable, apperrors.ErrCodeBackendUnavailable)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Source == "" || req.Content == "" {
		s.writeError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput)
		return
	}

	n, err := s.ingester.Ingest(r.Context(), retrieveknowledge.Document{Source: req.Source, Content: req.Content, Markdown: req.Markdown})
	if err != nil {
		s.logger.Error("ingest failed", map[string]interface{}{"source": req.Source, "written": n, "error": err.Error()})
		s.writeError(w, http.StatusBadGateway, apperrors.ErrCodeInternalError)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"source": req.Source, "chunks": n})
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, code apperrors.ErrorCode) {
	public := apperrors.PublicCode(code)
	s.writeJSON(w, status, errorBody{Error: public, Message: apperrors.UserMessage(apperrors.ErrorCode(public))})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		s.logger.Warn("write response failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDKey, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request", map[string]interface{}{
			"requestId":  w.Header().Get(requestIDKey),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}
