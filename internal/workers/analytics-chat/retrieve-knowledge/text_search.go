package retrieveknowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "analytics-chat/internal/common/errors"
	"analytics-chat/internal/models"
)

// TextSearcher finds knowledge chunks whose content or heading contains any
// keyword.
type TextSearcher interface {
	SearchText(ctx context.Context, keywords []string, limit int) ([]models.KnowledgeDocument, error)
}

type ElasticTextSearcher struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticTextSearcher(client *elasticsearch.Client, index string) *ElasticTextSearcher {
	return &ElasticTextSearcher{client: client, index: index}
}

func (s *ElasticTextSearcher) SearchText(ctx context.Context, keywords []string, limit int) ([]models.KnowledgeDocument, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	body, _ := json.Marshal(buildTextQuery(keywords, limit))
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: knowledge search: %v", apperrors.ErrRetrievalFailure, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: knowledge search status %d", apperrors.ErrRetrievalFailure, res.StatusCode)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source Chunk `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode knowledge hits: %v", apperrors.ErrRetrievalFailure, err)
	}

	docs := make([]models.KnowledgeDocument, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		docs = append(docs, models.KnowledgeDocument{
			Content:  hit.Source.Content,
			Metadata: map[string]interface{}{"heading": hit.Source.Heading, "source": hit.Source.Source},
			Source:   "text_search",
		})
	}
	return docs, nil
}

func buildTextQuery(keywords []string, limit int) map[string]interface{} {
	should := make([]interface{}, 0, len(keywords)*2)
	for _, kw := range keywords {
		pattern := "*" + escapeWildcard(kw) + "*"
		for _, field := range []string{"content", "heading"} {
			should = append(should, map[string]interface{}{
				"wildcard": map[string]interface{}{
					field: map[string]interface{}{"value": pattern, "case_insensitive": true},
				},
			})
		}
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"size": limit,
	}
}

func escapeWildcard(s string) string {
	return strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`).Replace(s)
}
