package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// Embedder turns query text into the vector space the catalog embeddings
// live in.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// GeminiEmbedder calls the Gemini embedding model. Catalog embeddings are
// generated offline with the same model (see scripts/generate_embeddings.go),
// so query and document vectors are comparable.
type GeminiEmbedder struct {
	logger *slog.Logger
	client *genai.Client
	model  string
	dim    int
}

// NewGeminiEmbedder builds the embedding client. dim is the dimension the
// catalog's vector column was created with; responses of any other size are
// rejected so a misconfigured model surfaces on the first embed rather than
// as an insert failure. Zero disables the check.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dim int, logger *slog.Logger) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiEmbedder{
		logger: logger,
		client: client,
		model:  model,
		dim:    dim,
	}, nil
}

func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("Embedder").Start(ctx, "EmbedQuery", trace.WithAttributes(
		attribute.String("embedding.model", e.model),
		attribute.Int("text.length", len(text)),
	))
	defer span.End()

	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding request failed")
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		err := fmt.Errorf("embedding response for %q was empty", text)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty embedding response")
		return nil, err
	}

	values := resp.Embeddings[0].Values
	if err := validateDimension(values, e.dim); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding dimension mismatch")
		return nil, err
	}
	e.logger.DebugContext(ctx, "Embedded query",
		slog.Int("dimension", len(values)),
		slog.String("model", e.model))
	return values, nil
}

// validateDimension checks a model response against the expected vector
// dimension. want == 0 disables the check.
func validateDimension(values []float32, want int) error {
	if want > 0 && len(values) != want {
		return fmt.Errorf("embedding dimension mismatch: model returned %d values, expected %d", len(values), want)
	}
	return nil
}

// CachingEmbedder memoises query embeddings keyed by the exact query text.
// Queries are built from a small set of interests and date types, so the hit
// rate is high and repeated plans skip the network round trip.
type CachingEmbedder struct {
	inner Embedder
	cache *cache.Cache
}

func NewCachingEmbedder(inner Embedder, ttl time.Duration) *CachingEmbedder {
	return &CachingEmbedder{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (e *CachingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if cached, found := e.cache.Get(text); found {
		return cached.([]float32), nil
	}
	values, err := e.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, values, cache.DefaultExpiration)
	return values, nil
}
