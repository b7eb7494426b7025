package chatorchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
)

// HistoryStore persists conversation turns beyond the in-memory window.
type HistoryStore interface {
	Load(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	Append(ctx context.Context, sessionID string, messages ...models.Message) error
	Delete(ctx context.Context, sessionID string) error
}

type sessionLog struct {
	// loadMu serializes store reads so a turn appended during a load is not
	// read back from the store as well.
	loadMu   sync.Mutex
	mu       sync.Mutex
	messages []models.Message
	loaded   bool
}

// History keeps a bounded message log per session. Sessions are evicted in
// LRU order past maxSessions or after sitting idle for the TTL; each log
// keeps only its newest maxMessages. Locks are per session.
type History struct {
	sessions    *ttlcache.Cache[string, *sessionLog]
	maxMessages int
	store       HistoryStore
	logger      logger.Logger
}

func NewHistory(maxSessions, maxMessages int, idleTTL time.Duration, store HistoryStore, log logger.Logger) *History {
	opts := []ttlcache.Option[string, *sessionLog]{
		ttlcache.WithTTL[string, *sessionLog](idleTTL),
	}
	if maxSessions > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, *sessionLog](uint64(maxSessions)))
	}
	sessions := ttlcache.New(opts...)
	go sessions.Start()
	return &History{
		sessions:    sessions,
		maxMessages: maxMessages,
		store:       store,
		logger:      logger.ForComponent(log, "chat-history"),
	}
}

// session returns the log for id, rehydrating it from the store on first
// use. The store is read outside the message lock but under loadMu.
func (h *History) session(ctx context.Context, id string) *sessionLog {
	item, _ := h.sessions.GetOrSet(id, &sessionLog{})
	s := item.Value()
	if h.store == nil {
		return s
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return s
	}

	stored, err := h.store.Load(ctx, id, h.maxMessages)
	if err != nil {
		h.logger.Warn("history load failed", map[string]interface{}{"session": id, "error": err.Error()})
	}

	s.mu.Lock()
	s.messages = mergeHistory(stored, s.messages)
	s.trim(h.maxMessages)
	s.loaded = err == nil
	s.mu.Unlock()
	return s
}

// mergeHistory prepends stored to memory. Turns kept in memory after a failed
// load may already be in the store, so the longest stored suffix that equals
// a memory prefix is counted once.
func mergeHistory(stored, memory []models.Message) []models.Message {
	overlap := 0
	for k := min(len(stored), len(memory)); k > 0; k-- {
		if equalMessages(stored[len(stored)-k:], memory[:k]) {
			overlap = k
			break
		}
	}
	out := make([]models.Message, 0, len(stored)+len(memory)-overlap)
	out = append(out, stored...)
	return append(out, memory[overlap:]...)
}

func equalMessages(a, b []models.Message) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Recent returns a copy of the newest n messages.
func (h *History) Recent(ctx context.Context, id string, n int) []models.Message {
	s := h.session(ctx, id)
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]models.Message, len(msgs))
	copy(out, msgs)
	return out
}

// AppendTurn records one user question and its reply.
func (h *History) AppendTurn(ctx context.Context, id, question, answer string) {
	user, assistant := models.UserMessage(question), models.AssistantMessage(answer)

	s := h.session(ctx, id)
	s.mu.Lock()
	s.messages = append(s.messages, user, assistant)
	s.trim(h.maxMessages)
	s.mu.Unlock()

	if h.store != nil {
		if err := h.store.Append(ctx, id, user, assistant); err != nil {
			h.logger.Warn("history append failed", map[string]interface{}{"session": id, "error": err.Error()})
		}
	}
}

// LastTurnSummary renders the previous question and the start of its reply,
// or "" when the session has no complete turn.
func (h *History) LastTurnSummary(ctx context.Context, id string, chars int) string {
	recent := h.Recent(ctx, id, 2)
	if len(recent) < 2 || recent[0].Role != models.RoleUser || recent[1].Role != models.RoleAssistant {
		return ""
	}
	if recent[0].Content == "" || recent[1].Content == "" {
		return ""
	}
	answer := []rune(recent[1].Content)
	suffix := ""
	if chars > 0 && len(answer) > chars {
		answer = answer[:chars]
		suffix = "..."
	}
	return fmt.Sprintf("User: %s\nAssistant: %s%s", recent[0].Content, string(answer), suffix)
}

func (h *History) Clear(ctx context.Context, id string) error {
	h.sessions.Delete(id)
	if h.store != nil {
		return h.store.Delete(ctx, id)
	}
	return nil
}

// Close stops the expiry loop.
func (h *History) Close() {
	h.sessions.Stop()
}

func (h *History) Len() int {
	return h.sessions.Len()
}

func (s *sessionLog) trim(limit int) {
	if limit > 0 && len(s.messages) > limit {
		s.messages = append([]models.Message(nil), s.messages[len(s.messages)-limit:]...)
	}
}
