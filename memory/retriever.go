package memory

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Snippet is one ranked piece of recalled context.
type Snippet struct {
	Content string
	Score   float32
}

// Retriever is the memory/RAG capability consumed by the planner:
// retrieve(query, k) -> ranked text snippets. Implementations own
// embedding and storage; the engine only reads.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Snippet, error)
}

// VectorStoreRetriever adapts a langchaingo vector store to the
// Retriever capability.
type VectorStoreRetriever struct {
	store vectorstores.VectorStore
	opts  []vectorstores.Option
}

var _ Retriever = (*VectorStoreRetriever)(nil)

// NewVectorStoreRetriever wraps a vector store. Options (score
// threshold, filters) are applied on every search.
func NewVectorStoreRetriever(store vectorstores.VectorStore, opts ...vectorstores.Option) *VectorStoreRetriever {
	return &VectorStoreRetriever{store: store, opts: opts}
}

// Retrieve runs a similarity search and returns the top k snippets.
func (r *VectorStoreRetriever) Retrieve(ctx context.Context, query string, k int) ([]Snippet, error) {
	docs, err := r.store.SimilaritySearch(ctx, query, k, r.opts...)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return fromDocuments(docs), nil
}

func fromDocuments(docs []schema.Document) []Snippet {
	snippets := make([]Snippet, 0, len(docs))
	for _, d := range docs {
		snippets = append(snippets, Snippet{
			Content: d.PageContent,
			Score:   d.Score,
		})
	}
	return snippets
}
