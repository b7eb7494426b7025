package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "analytics-chat/internal/common/errors"
	apphttp "analytics-chat/internal/common/http"
	"analytics-chat/internal/models"
)

// OllamaBackend talks to an Ollama server over its JSON HTTP API.
type OllamaBackend struct {
	baseURL    string
	model      string
	embedModel string
	client     *apphttp.Client
}

func NewOllamaBackend(baseURL, model, embedModel string, client *apphttp.Client) *OllamaBackend {
	if client == nil {
		client = apphttp.NewClient(0)
	}
	return &OllamaBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		embedModel: embedModel,
		client:     client,
	}
}

func (o *OllamaBackend) Name() string { return "ollama" }

type ollamaChatRequest struct {
	Model    string           `json:"model"`
	Messages []models.Message `json:"messages"`
	Stream   bool             `json:"stream"`
	Options  ollamaOptions    `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message models.Message `json:"message"`
}

func (o *OllamaBackend) Chat(ctx context.Context, req Request) (string, error) {
	var resp ollamaChatResponse
	err := o.client.DoJSON(ctx, http.MethodPost, o.baseURL+"/api/chat", ollamaChatRequest{
		Model:    o.model,
		Messages: req.Messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}, &resp)
	if err != nil {
		return "", classifyHTTPError(err)
	}
	return resp.Message.Content, nil
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

func (o *OllamaBackend) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp ollamaEmbedResponse
	err := o.client.DoJSON(ctx, http.MethodPost, o.baseURL+"/api/embed", ollamaEmbedRequest{
		Model: o.embedModel,
		Input: text,
	}, &resp)
	if err != nil {
		return nil, classifyHTTPError(err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", apperrors.ErrBackendError)
	}
	return resp.Embeddings[0], nil
}

func (o *OllamaBackend) Ping(ctx context.Context) error {
	if err := o.client.DoJSON(ctx, http.MethodGet, o.baseURL+"/api/tags", nil, nil); err != nil {
		return classifyHTTPError(err)
	}
	return nil
}

func classifyHTTPError(err error) error {
	var statusErr *apphttp.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: status %d", apperrors.ErrBackendError, statusErr.StatusCode)
	}
	if strings.HasPrefix(err.Error(), "decode response") {
		return fmt.Errorf("%w: %v", apperrors.ErrBackendError, err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrBackendUnavailable, err)
}
