package embed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/CloudAIX/healthcare-rag-system/internal/retry"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "text-embedding-004"

// maxGeminiBatch is the most contents the API accepts in one batch request.
const maxGeminiBatch = 100

// GeminiEmbedder calls the Gemini embedding API. Documents are embedded with
// the retrieval-document task type and queries with retrieval-query.
type GeminiEmbedder struct {
	client *genai.Client
	docs   *genai.EmbeddingModel
	query  *genai.EmbeddingModel
	model  string
}

// NewGemini creates a client for the named embedding model.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", ErrEmbeddingUnavailable)
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %w", ErrEmbeddingUnavailable, err)
	}

	docs := client.EmbeddingModel(model)
	docs.TaskType = genai.TaskTypeRetrievalDocument
	query := client.EmbeddingModel(model)
	query.TaskType = genai.TaskTypeRetrievalQuery

	return &GeminiEmbedder{client: client, docs: docs, query: query, model: model}, nil
}

// EmbedDocuments embeds texts in batches of at most 100 per request.
func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxGeminiBatch {
		end := min(start+maxGeminiBatch, len(texts))

		b := e.docs.NewBatch()
		for _, t := range texts[start:end] {
			b.AddContent(genai.Text(t))
		}
		resp, err := e.docs.BatchEmbedContents(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("%w: batch embed: %w", ErrEmbeddingUnavailable, classifyGeminiError(err))
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbeddingUnavailable, len(resp.Embeddings), end-start)
		}
		for _, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, fmt.Errorf("%w: empty embedding in batch response", ErrEmbeddingUnavailable)
			}
			out = append(out, emb.Values)
		}
	}
	return out, nil
}

// EmbedQuery embeds a single search query.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.query.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrEmbeddingUnavailable, classifyGeminiError(err))
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", ErrEmbeddingUnavailable)
	}
	return resp.Embedding.Values, nil
}

// classifyGeminiError marks API errors retryable by HTTP status. Errors
// without a status, such as network failures, are treated as transient.
func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if retry.RetryableStatus(apiErr.Code) {
			return &retry.RetryableError{StatusCode: apiErr.Code, Err: err}
		}
		return err
	}
	return retry.Transient(err)
}

func (e *GeminiEmbedder) ModelName() string { return e.model }

// Close releases the underlying client.
func (e *GeminiEmbedder) Close() error {
	if err := e.client.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
