package chatorchestrator

import (
	"context"
	"database/sql"
	"fmt"

	"analytics-chat/internal/models"
)

// PostgresHistoryStore keeps turns in the chat_history table.
type PostgresHistoryStore struct {
	db *sql.DB
}

// HistorySchema creates the chat_history table and its session index.
var HistorySchema = []string{
	`CREATE TABLE IF NOT EXISTS chat_history (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS chat_history_session_idx ON chat_history (session_id, id)`,
}

func NewPostgresHistoryStore(db *sql.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db}
}

const loadHistory = `SELECT role, content FROM (
	SELECT id, role, content FROM chat_history WHERE session_id = $1 ORDER BY id DESC LIMIT $2
) recent ORDER BY id ASC`

func (s *PostgresHistoryStore) Load(ctx context.Context, sessionID string, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, loadHistory, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, fmt.Errorf("scan chat history: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

const insertHistory = `INSERT INTO chat_history (session_id, role, content) VALUES ($1, $2, $3)`

func (s *PostgresHistoryStore) Append(ctx context.Context, sessionID string, messages ...models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chat history insert: %w", err)
	}
	for _, m := range messages {
		if _, err := tx.ExecContext(ctx, insertHistory, sessionID, string(m.Role), m.Content); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert chat history: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresHistoryStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_history WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete chat history: %w", err)
	}
	return nil
}
