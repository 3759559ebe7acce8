package retriever

import (
	"context"
	"fmt"

	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/llm"
	"github.com/Jai-Kumar786/YouTube-RAG-project/internal/store"
)

// Searcher is the slice of the vector store the retriever needs.
type Searcher interface {
	Search(ctx context.Context, embedding []float32, topK int, sourceID string) ([]store.SearchResult, error)
}

// Retriever embeds a query and ranks stored chunks against it.
type Retriever struct {
	provider llm.Provider
	store    Searcher
	dims     int
}

// New builds a retriever. dims is the deployment's embedding dimension and is
// validated against every query vector.
func New(provider llm.Provider, st Searcher, dims int) *Retriever {
	return &Retriever{provider: provider, store: st, dims: dims}
}

// Retrieve embeds the query (one provider call, no caching) and returns up to
// topK scored chunks. An empty store produces an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, sourceID string) ([]store.SearchResult, error) {
	vectors, err := r.provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}
	if r.dims > 0 && len(vectors[0]) != r.dims {
		return nil, fmt.Errorf("embed query: got %d dimensions, want %d", len(vectors[0]), r.dims)
	}
	results, err := r.store.Search(ctx, vectors[0], topK, sourceID)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return results, nil
}
