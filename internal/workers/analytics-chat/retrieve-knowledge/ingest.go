package retrieveknowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"analytics-chat/internal/common/llm"
	"analytics-chat/internal/common/logger"
)

// Ingester chunks documents and indexes them for text search and, when an
// embedder and vector store are configured, for similarity search.
type Ingester struct {
	config   *Config
	client   *elasticsearch.Client
	index    string
	embedder llm.Embedder
	vectors  VectorStore
	logger   logger.Logger
}

func NewIngester(config *Config, client *elasticsearch.Client, index string, embedder llm.Embedder, vectors VectorStore, log logger.Logger) *Ingester {
	return &Ingester{
		config:   config,
		client:   client,
		index:    index,
		embedder: embedder,
		vectors:  vectors,
		logger:   logger.ForComponent(log, "knowledge-ingest"),
	}
}

// Chunks splits a document the way Ingest would index it. Chunk ids are
// derived from the source and position, so re-ingesting replaces chunks.
func (i *Ingester) Chunks(doc Document) []Chunk {
	var chunks []Chunk
	add := func(n int, heading, content string) {
		chunks = append(chunks, Chunk{
			ID:      uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", doc.Source, n))).String(),
			Content: content,
			Heading: heading,
			Source:  doc.Source,
		})
	}

	if doc.Markdown {
		for n, s := range ChunkMarkdown(doc.Content, i.config.MarkdownChunk) {
			add(n, s.Heading, s.Content)
		}
		return chunks
	}
	for n, c := range ChunkText(doc.Content, i.config.ChunkSize, i.config.ChunkOverlap) {
		add(n, "", c)
	}
	return chunks
}

// Ingest indexes every chunk of doc and returns how many were written.
func (i *Ingester) Ingest(ctx context.Context, doc Document) (int, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return 0, fmt.Errorf("document %q is empty", doc.Source)
	}

	chunks := i.Chunks(doc)
	for n, chunk := range chunks {
		if err := i.indexChunk(ctx, chunk); err != nil {
			return n, err
		}
		if i.embedder == nil || i.vectors == nil {
			continue
		}
		embedding, err := i.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			i.logger.Warn("embedding failed, chunk is text-searchable only", map[string]interface{}{
				"chunk": chunk.ID,
				"error": err.Error(),
			})
			continue
		}
		if err := i.vectors.Insert(ctx, chunk, embedding); err != nil {
			return n, err
		}
	}

	i.logger.Info("document ingested", map[string]interface{}{"source": doc.Source, "chunks": len(chunks)})
	return len(chunks), nil
}

func (i *Ingester) indexChunk(ctx context.Context, chunk Chunk) error {
	body, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: chunk.ID,
		Body:       strings.NewReader(string(body)),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index chunk %s: status %d", chunk.ID, res.StatusCode)
	}
	return nil
}
