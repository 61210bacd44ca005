package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/timmy/drawmatch/internal/config"
	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/logger"
)

const (
	jinaEndpoint          = "https://api.jina.ai/v1/embeddings"
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultEmbeddingLimit = 15 * time.Second
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// NewEmbedder creates the embedder for cfg.Provider, wrapped in an LRU when
// cfg.CacheSize is positive.
// Parameters:
//   - cfg: embedding configuration including provider, model, and API key.
//
// Returns:
//   - Embedder: ready to use embedder.
//   - error: non-nil if the provider is unknown or the cache cannot be built.
func NewEmbedder(cfg *config.EmbeddingConfig) (Embedder, error) {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultEmbeddingLimit
	}
	client.SetTimeout(timeout)

	var embedder Embedder
	switch cfg.Provider {
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOpenAIBaseURL
		}
		embedder = &OpenAIEmbedder{
			client:     client,
			endpoint:   strings.TrimSuffix(baseURL, "/") + "/embeddings",
			model:      cfg.Model,
			dimensions: cfg.Dimensions,
		}
	case "jina":
		endpoint := jinaEndpoint
		if cfg.BaseURL != "" && cfg.BaseURL != defaultOpenAIBaseURL {
			endpoint = strings.TrimSuffix(cfg.BaseURL, "/") + "/embeddings"
		}
		embedder = &JinaEmbedder{
			client:     client,
			endpoint:   endpoint,
			model:      cfg.Model,
			dimensions: cfg.Dimensions,
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(embedder, cfg.CacheSize)
	}
	return embedder, nil
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client     *resty.Client
	endpoint   string
	model      string
	dimensions int
}

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Model returns the model name being used.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp openAIEmbeddingResponse
	httpResp, err := e.client.R().
		SetContext(ctx).
		SetBody(openAIEmbeddingRequest{Model: e.model, Input: []string{text}}).
		SetResult(&resp).
		SetError(&resp).
		Post(e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call embedding API: %w", domain.ErrUpstreamUnavailable, err)
	}
	if httpResp.IsError() {
		msg := fmt.Sprintf("status %d", httpResp.StatusCode())
		if resp.Error != nil {
			msg += ": " + resp.Error.Message
		}
		return nil, fmt.Errorf("%w: embedding API error: %s", domain.ErrUpstreamUnavailable, msg)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", domain.ErrUpstreamUnavailable)
	}
	return checkDimensions(resp.Data[0].Embedding, e.dimensions)
}

// JinaEmbedder calls the Jina embeddings API.
type JinaEmbedder struct {
	client     *resty.Client
	endpoint   string
	model      string
	dimensions int
}

type jinaRequest struct {
	Model         string   `json:"model"`
	Task          string   `json:"task,omitempty"`
	Dimensions    int      `json:"dimensions,omitempty"`
	Input         []string `json:"input"`
	EmbeddingType string   `json:"embedding_type,omitempty"`
}

type jinaResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Detail string `json:"detail,omitempty"`
}

// Model returns the model name being used.
func (e *JinaEmbedder) Model() string {
	return e.model
}

// Embed implements Embedder. Labels and prompts are short symmetric texts,
// so the text-matching task is used for both sides.
func (e *JinaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := jinaRequest{
		Model:         e.model,
		Task:          "text-matching",
		Dimensions:    e.dimensions,
		Input:         []string{text},
		EmbeddingType: "float",
	}

	var resp jinaResponse
	httpResp, err := e.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(e.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to call Jina API: %w", domain.ErrUpstreamUnavailable, err)
	}
	if httpResp.StatusCode() != 200 {
		if resp.Detail != "" {
			return nil, fmt.Errorf("%w: Jina API error: %s", domain.ErrUpstreamUnavailable, resp.Detail)
		}
		return nil, fmt.Errorf("%w: Jina API error: status %d", domain.ErrUpstreamUnavailable, httpResp.StatusCode())
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", domain.ErrUpstreamUnavailable)
	}
	return checkDimensions(resp.Data[0].Embedding, e.dimensions)
}

func checkDimensions(vec []float32, want int) ([]float32, error) {
	if want > 0 && len(vec) != want {
		return nil, fmt.Errorf("%w: embedding has %d dimensions, expected %d", domain.ErrUpstreamUnavailable, len(vec), want)
	}
	return vec, nil
}

// CachedEmbedder memoizes embeddings by exact text.
type CachedEmbedder struct {
	next  Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps next with an LRU of the given size.
func NewCachedEmbedder(next Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &CachedEmbedder{next: next, cache: cache}, nil
}

// Model returns the wrapped embedder's model.
func (c *CachedEmbedder) Model() string {
	return c.next.Model()
}

// Embed implements Embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, vec)
	return vec, nil
}

// PromptEmbeddingStore persists a computed prompt embedding.
type PromptEmbeddingStore interface {
	SetEmbedding(ctx context.Context, id string, field domain.PromptField, vec domain.FloatVector) error
}

// PromptEmbeddingService attaches embeddings to prompts on first use.
type PromptEmbeddingService struct {
	embedder Embedder
	store    PromptEmbeddingStore
}

// NewPromptEmbeddingService creates a compute-if-absent prompt embedder.
func NewPromptEmbeddingService(embedder Embedder, store PromptEmbeddingStore) *PromptEmbeddingService {
	return &PromptEmbeddingService{embedder: embedder, store: store}
}

// EmbedPromptField returns the cached embedding of field or computes and
// persists it. Two concurrent callers may both compute; the last write wins
// and both results are equivalent.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - prompt: prompt to embed; updated in place when computed.
//   - field: which text field to embed.
//
// Returns:
//   - []float32: the embedding.
//   - error: upstream or persistence failure.
func (s *PromptEmbeddingService) EmbedPromptField(ctx context.Context, prompt *domain.Prompt, field domain.PromptField) ([]float32, error) {
	if cached := prompt.Embedding(field); len(cached) > 0 {
		return cached, nil
	}

	var text string
	switch field {
	case domain.PromptFieldName:
		text = prompt.Name
	case domain.PromptFieldDescription:
		text = prompt.Description
	default:
		return nil, fmt.Errorf("%w: unknown prompt field %q", domain.ErrInvalidInput, field)
	}

	start := time.Now()
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetEmbedding(ctx, prompt.ID, field, vec); err != nil {
		return nil, err
	}
	prompt.SetEmbedding(field, vec)

	logger.With(logger.Fields{
		logger.FieldPromptID: prompt.ID,
		"field":              string(field),
	}).WithDuration(start).Info(ctx, "Computed prompt embedding")
	return vec, nil
}
