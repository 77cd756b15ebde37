package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// fakeVectorStore returns canned documents.
type fakeVectorStore struct {
	docs     []schema.Document
	err      error
	gotQuery string
	gotK     int
}

func (f *fakeVectorStore) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeVectorStore) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	f.gotQuery = query
	f.gotK = numDocuments
	return f.docs, f.err
}

func TestVectorStoreRetriever(t *testing.T) {
	fake := &fakeVectorStore{docs: []schema.Document{
		{PageContent: "wallet 0xabc holds 1.2 ETH", Score: 0.92},
		{PageContent: "last transfer was yesterday", Score: 0.71},
	}}
	r := NewVectorStoreRetriever(fake)

	snippets, err := r.Retrieve(context.Background(), "balance of 0xabc", 2)
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "wallet 0xabc holds 1.2 ETH", snippets[0].Content)
	assert.Equal(t, float32(0.92), snippets[0].Score)
	assert.Equal(t, "balance of 0xabc", fake.gotQuery)
	assert.Equal(t, 2, fake.gotK)
}

func TestVectorStoreRetrieverError(t *testing.T) {
	fake := &fakeVectorStore{err: errors.New("store offline")}
	r := NewVectorStoreRetriever(fake)

	_, err := r.Retrieve(context.Background(), "q", 1)
	assert.Error(t, err)
}
