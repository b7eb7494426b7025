package chatorchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-chat/internal/common/logger"
	"analytics-chat/internal/models"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string][]models.Message
	loadErr  error
	loads    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string][]models.Message{}}
}

func (m *memoryStore) Load(_ context.Context, id string, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	msgs := m.sessions[id]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]models.Message(nil), msgs...), nil
}

func (m *memoryStore) Append(_ context.Context, id string, msgs ...models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = append(m.sessions[id], msgs...)
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func TestHistory_KeepsNewestMessages(t *testing.T) {
	h := NewHistory(10, 4, time.Hour, nil, logger.NewTestLogger(t))
	defer h.Close()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		h.AppendTurn(ctx, "s", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	assert.Equal(t, []models.Message{
		models.UserMessage("q2"), models.AssistantMessage("a2"),
		models.UserMessage("q3"), models.AssistantMessage("a3"),
	}, h.Recent(ctx, "s", 0))
	assert.Equal(t, []models.Message{models.UserMessage("q3"), models.AssistantMessage("a3")}, h.Recent(ctx, "s", 2))
}

func TestHistory_EvictsLeastRecentlyUsedSession(t *testing.T) {
	h := NewHistory(2, 10, time.Hour, nil, logger.NewTestLogger(t))
	defer h.Close()
	ctx := context.Background()

	h.AppendTurn(ctx, "a", "qa", "aa")
	h.AppendTurn(ctx, "b", "qb", "ab")
	h.Recent(ctx, "a", 0) // a is now more recent than b
	h.AppendTurn(ctx, "c", "qc", "ac")

	assert.Equal(t, 2, h.Len())
	assert.Len(t, h.Recent(ctx, "a", 0), 2)
	assert.Empty(t, h.Recent(ctx, "b", 0))
}

func TestHistory_RecentReturnsCopy(t *testing.T) {
	h := NewHistory(10, 10, time.Hour, nil, logger.NewTestLogger(t))
	defer h.Close()
	ctx := context.Background()
	h.AppendTurn(ctx, "s", "q", "a")

	got := h.Recent(ctx, "s", 0)
	got[0].Content = "changed"

	assert.Equal(t, "q", h.Recent(ctx, "s", 0)[0].Content)
}

func TestHistory_ConcurrentSessions(t *testing.T) {
	h := NewHistory(100, 1000, time.Hour, nil, logger.NewTestLogger(t))
	defer h.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for s := 0; s < 8; s++ {
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(s, i int) {
				defer wg.Done()
				h.AppendTurn(ctx, fmt.Sprintf("s%d", s), fmt.Sprintf("q%d", i), "a")
			}(s, i)
		}
	}
	wg.Wait()

	for s := 0; s < 8; s++ {
		msgs := h.Recent(ctx, fmt.Sprintf("s%d", s), 0)
		require.Len(t, msgs, 50)
		for i := 0; i < len(msgs); i += 2 {
			assert.Equal(t, models.RoleUser, msgs[i].Role)
			assert.Equal(t, models.RoleAssistant, msgs[i+1].Role)
		}
	}
}

func TestHistory_LastTurnSummary(t *testing.T) {
	h := NewHistory(10, 10, time.Hour, nil, logger.NewTestLogger(t))
	defer h.Close()
	ctx := context.Background()

	assert.Empty(t, h.LastTurnSummary(ctx, "s", 10))

	h.AppendTurn(ctx, "s", "게임 순위", "1위는 첫 영상이고 2위는 둘째 영상입니다")
	assert.Equal(t, "User: 게임 순위\nAssistant: 1위는 첫 영상이고...", h.LastTurnSummary(ctx, "s", 10))
	assert.Equal(t, "User: 게임 순위\nAssistant: 1위는 첫 영상이고 2위는 둘째 영상입니다", h.LastTurnSummary(ctx, "s", 0))
}

func TestHistory_RehydratesFromStore(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	first := NewHistory(10, 4, time.Hour, store, log)
	defer first.Close()
	first.AppendTurn(ctx, "s", "q1", "a1")
	first.AppendTurn(ctx, "s", "q2", "a2")
	first.AppendTurn(ctx, "s", "q3", "a3")

	// a fresh process sees the newest window only
	second := NewHistory(10, 4, time.Hour, store, log)
	defer second.Close()
	assert.Equal(t, []models.Message{
		models.UserMessage("q2"), models.AssistantMessage("a2"),
		models.UserMessage("q3"), models.AssistantMessage("a3"),
	}, second.Recent(ctx, "s", 0))

	second.Recent(ctx, "s", 0)
	assert.Equal(t, 2, store.loads)

	require.NoError(t, second.Clear(ctx, "s"))
	assert.Empty(t, store.sessions["s"])
	assert.Empty(t, second.Recent(ctx, "s", 0))
}

func TestHistory_StoreLoadErrorRetried(t *testing.T) {
	store := newMemoryStore()
	store.sessions["s"] = []models.Message{models.UserMessage("old"), models.AssistantMessage("reply")}
	store.loadErr = errors.New("connection reset")
	h := NewHistory(10, 10, time.Hour, store, logger.NewTestLogger(t))
	defer h.Close()
	ctx := context.Background()

	assert.Empty(t, h.Recent(ctx, "s", 0))

	store.mu.Lock()
	store.loadErr = nil
	store.mu.Unlock()

	assert.Len(t, h.Recent(ctx, "s", 0), 2)
}

// gatedStore blocks Load until release is closed.
type gatedStore struct {
	*memoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) Load(ctx context.Context, id string, limit int) ([]models.Message, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.memoryStore.Load(ctx, id, limit)
}

func TestHistory_TurnDuringLoadNotDuplicated(t *testing.T) {
	store := &gatedStore{memoryStore: newMemoryStore(), entered: make(chan struct{}), release: make(chan struct{})}
	store.sessions["s"] = []models.Message{models.UserMessage("old"), models.AssistantMessage("reply")}
	h := NewHistory(10, 10, time.Hour, store, logger.NewTestLogger(t))
	defer h.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		h.Recent(ctx, "s", 0)
	}()
	<-store.entered
	go func() {
		defer wg.Done()
		h.AppendTurn(ctx, "s", "new", "answer")
	}()
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	assert.Equal(t, []models.Message{
		models.UserMessage("old"), models.AssistantMessage("reply"),
		models.UserMessage("new"), models.AssistantMessage("answer"),
	}, h.Recent(ctx, "s", 0))
}

func TestHistory_RetriedLoadSkipsTurnsAlreadyInMemory(t *testing.T) {
	store := newMemoryStore()
	store.sessions["s"] = []models.Message{models.UserMessage("old"), models.AssistantMessage("reply")}
	store.loadErr = errors.New("connection reset")
	h := NewHistory(10, 10, time.Hour, store, logger.NewTestLogger(t))
	defer h.Close()
	ctx := context.Background()

	h.AppendTurn(ctx, "s", "new", "answer")

	store.mu.Lock()
	store.loadErr = nil
	store.mu.Unlock()

	assert.Equal(t, []models.Message{
		models.UserMessage("old"), models.AssistantMessage("reply"),
		models.UserMessage("new"), models.AssistantMessage("answer"),
	}, h.Recent(ctx, "s", 0))
}

func TestMergeHistory(t *testing.T) {
	q, a := models.UserMessage("q"), models.AssistantMessage("a")
	x, y := models.UserMessage("x"), models.AssistantMessage("y")

	tests := []struct {
		name           string
		stored, memory []models.Message
		want           []models.Message
	}{
		{"empty store", nil, []models.Message{q, a}, []models.Message{q, a}},
		{"empty memory", []models.Message{q, a}, nil, []models.Message{q, a}},
		{"disjoint", []models.Message{q, a}, []models.Message{x, y}, []models.Message{q, a, x, y}},
		{"overlap", []models.Message{x, y, q, a}, []models.Message{q, a, x, y}, []models.Message{x, y, q, a, x, y}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeHistory(tt.stored, tt.memory))
		})
	}
}

func TestPostgresHistoryStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresHistoryStore(db)
	ctx := context.Background()

	t.Run("load", func(t *testing.T) {
		mock.ExpectQuery(`SELECT role, content FROM \(`).
			WithArgs("s1", 4).
			WillReturnRows(sqlmock.NewRows([]string{"role", "content"}).
				AddRow("user", "q").
				AddRow("assistant", "a"))

		msgs, err := store.Load(ctx, "s1", 4)
		require.NoError(t, err)
		assert.Equal(t, []models.Message{models.UserMessage("q"), models.AssistantMessage("a")}, msgs)
	})

	t.Run("append in one transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO chat_history`).WithArgs("s1", "user", "q").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO chat_history`).WithArgs("s1", "assistant", "a").WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		require.NoError(t, store.Append(ctx, "s1", models.UserMessage("q"), models.AssistantMessage("a")))
	})

	t.Run("append rolls back on failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO chat_history`).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := store.Append(ctx, "s1", models.UserMessage("q"))
		assert.ErrorContains(t, err, "insert chat history")
	})

	t.Run("delete", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM chat_history`).WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 2))
		require.NoError(t, store.Delete(ctx, "s1"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
