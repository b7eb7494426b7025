package retrieveknowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/models"
)

// VectorStore finds knowledge chunks by embedding similarity.
type VectorStore interface {
	Match(ctx context.Context, embedding []float64, threshold float64, count int) ([]models.KnowledgeDocument, error)
	Insert(ctx context.Context, chunk Chunk, embedding []float64) error
}

// PostgresVectorStore uses the match_knowledge function over the
// knowledge_chunks table.
type PostgresVectorStore struct {
	db *sql.DB
}

func NewPostgresVectorStore(db *sql.DB) *PostgresVectorStore {
	return &PostgresVectorStore{db: db}
}

const matchQuery = `SELECT content, metadata, similarity FROM match_knowledge($1::vector, $2, $3)`

func (s *PostgresVectorStore) Match(ctx context.Context, embedding []float64, threshold float64, count int) ([]models.KnowledgeDocument, error) {
	rows, err := s.db.QueryContext(ctx, matchQuery, VectorLiteral(embedding), threshold, count)
	if err != nil {
		return nil, fmt.Errorf("%w: match_knowledge: %v", apperrors.ErrRetrievalFailure, err)
	}
	defer rows.Close()

	var docs []models.KnowledgeDocument
	for rows.Next() {
		var (
			content    string
			rawMeta    []byte
			similarity float64
		)
		if err := rows.Scan(&content, &rawMeta, &similarity); err != nil {
			return nil, fmt.Errorf("%w: scan knowledge row: %v", apperrors.ErrRetrievalFailure, err)
		}
		doc := models.KnowledgeDocument{
			Content:    content,
			Similarity: similarity,
			Source:     "vector",
		}
		if len(rawMeta) > 0 {
			_ = json.Unmarshal(rawMeta, &doc.Metadata)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrRetrievalFailure, err)
	}
	return docs, nil
}

const insertChunk = `INSERT INTO knowledge_chunks (id, content, metadata, embedding)
VALUES ($1, $2, $3, $4::vector)
ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`

func (s *PostgresVectorStore) Insert(ctx context.Context, chunk Chunk, embedding []float64) error {
	meta, err := json.Marshal(map[string]string{"heading": chunk.Heading, "source": chunk.Source})
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, insertChunk, chunk.ID, chunk.Content, meta, VectorLiteral(embedding)); err != nil {
		return fmt.Errorf("insert knowledge chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// VectorLiteral renders an embedding in pgvector text form, e.g. "[0.1,0.2]".
func VectorLiteral(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
