package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csmangum/insurance-rag/pkg/chunk"
	"github.com/csmangum/insurance-rag/pkg/config"
	"github.com/csmangum/insurance-rag/pkg/domain"
	autodom "github.com/csmangum/insurance-rag/pkg/domain/auto"
	medicaredom "github.com/csmangum/insurance-rag/pkg/domain/medicare"
	"github.com/csmangum/insurance-rag/pkg/vectorstore"
)

// fakeStore is a minimal vectorstore.Store stand-in for facade-level
// tests: count/dimension are fixed per collection, search returns the
// full corpus filtered and truncated, in corpus order.
type fakeStore struct {
	chunks map[string][]chunk.Chunk
	dim    int
}

func (f *fakeStore) SimilaritySearch(ctx context.Context, collection, queryText string, k int, filter map[string]any) ([]chunk.Chunk, error) {
	var out []chunk.Chunk
	for _, c := range f.chunks[collection] {
		if c.Matches(filter) {
			out = append(out, c)
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeStore) SimilaritySearchWithScore(ctx context.Context, collection, queryText string, k int, filter map[string]any) ([]vectorstore.ScoredChunk, error) {
	chunks, _ := f.SimilaritySearch(ctx, collection, queryText, k, filter)
	out := make([]vectorstore.ScoredChunk, len(chunks))
	for i, c := range chunks {
		out[i] = vectorstore.ScoredChunk{Chunk: c}
	}
	return out, nil
}

func (f *fakeStore) GetByIDs(ctx context.Context, collection string, ids []string) ([]chunk.Chunk, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []chunk.Chunk
	for _, c := range f.chunks[collection] {
		if want[c.DocID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) Count(ctx context.Context, collection string) (int, error) {
	return len(f.chunks[collection]), nil
}

func (f *fakeStore) SampleEmbeddingDim(ctx context.Context, collection string) (int, bool, error) {
	return f.dim, len(f.chunks[collection]) > 0, nil
}

func testCorpus() []chunk.Chunk {
	return []chunk.Chunk{
		{DocID: "d1", ChunkIndex: 0, Content: "Medicare Part A benefit policy manual", Metadata: map[string]any{"source": "iom"}},
		{DocID: "d2", ChunkIndex: 0, Content: "HCPCS code A1001 billing modifier guidance", Metadata: map[string]any{"source": "codes", "hcpcs_code": "A1001"}},
	}
}

// staticEmbed returns a fixed-dimension embedding function; the fake
// store never reads the vectors, only the probe measures their length.
func staticEmbed(dim int) vectorstore.EmbedFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return make([]float32, dim), nil
	}
}

func newTestRetriever(t *testing.T, chunks []chunk.Chunk, storeDim int) (*Retriever, *domain.Registry) {
	t.Helper()
	registry := domain.NewRegistry()
	require.NoError(t, registry.Register(medicaredom.Profile()))
	require.NoError(t, registry.Register(autodom.Profile()))

	store := &fakeStore{chunks: map[string][]chunk.Chunk{"medicare": chunks}, dim: storeDim}
	cfg := config.Config{EmbeddingModel: "all-MiniLM-L6-v2", DefaultDomain: "medicare"}
	r := New(store, staticEmbed(384), registry, cfg)
	r.SetCorpus("medicare", chunks)
	return r, registry
}

func TestRetrieveReturnsResultsForKnownDomain(t *testing.T) {
	r, _ := newTestRetriever(t, testCorpus(), 384)
	results, err := r.Retrieve(context.Background(), "HCPCS code A1001", 5, nil, "medicare")
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestRetrieveEmptyQueryReturnsEmptySlice(t *testing.T) {
	r, _ := newTestRetriever(t, testCorpus(), 384)
	results, err := r.Retrieve(context.Background(), "   ", 5, nil, "medicare")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveUnknownDomainFallsBackToDefault(t *testing.T) {
	r, _ := newTestRetriever(t, testCorpus(), 384)
	results, err := r.Retrieve(context.Background(), "HCPCS code A1001", 5, nil, "nonexistent-domain")
	require.NoError(t, err, "unknown domain should degrade to a warning, not an error")
	assert.NotEmpty(t, results)
}

func TestRetrieveEmptyCorpusReturnsEmptySlice(t *testing.T) {
	r, _ := newTestRetriever(t, nil, 384)
	results, err := r.Retrieve(context.Background(), "HCPCS code A1001", 5, nil, "medicare")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveEmbeddingDimensionMismatch(t *testing.T) {
	// Store holds 768-dim vectors, the probed model produces 384.
	r, _ := newTestRetriever(t, testCorpus(), 768)
	_, err := r.Retrieve(context.Background(), "HCPCS code A1001", 5, nil, "medicare")
	require.Error(t, err)
	var retErr *Error
	require.ErrorAs(t, err, &retErr)
	assert.Equal(t, KindEmbeddingDimensionMismatch, retErr.Kind)
	assert.Contains(t, retErr.Message, "expected dimension 768")
	assert.Contains(t, retErr.Message, "got 384")
}

func TestRetrieveNilEmbedFuncSkipsDimensionGuard(t *testing.T) {
	registry := domain.NewRegistry()
	require.NoError(t, registry.Register(medicaredom.Profile()))
	store := &fakeStore{chunks: map[string][]chunk.Chunk{"medicare": testCorpus()}, dim: 768}
	r := New(store, nil, registry, config.Config{DefaultDomain: "medicare"})
	r.SetCorpus("medicare", testCorpus())

	results, err := r.Retrieve(context.Background(), "HCPCS code A1001", 5, nil, "medicare")
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestRetrieveInvalidStateFilterRejectedEagerly(t *testing.T) {
	r, _ := newTestRetriever(t, testCorpus(), 384)
	_, err := r.Retrieve(context.Background(), "minimum liability limits", 5, map[string]any{"state": "ZZ"}, "auto")
	require.Error(t, err)
}

func TestRetrieveIsDeterministic(t *testing.T) {
	r, _ := newTestRetriever(t, testCorpus(), 384)
	r1, err := r.Retrieve(context.Background(), "HCPCS code A1001", 5, nil, "medicare")
	require.NoError(t, err)
	r2, err := r.Retrieve(context.Background(), "HCPCS code A1001", 5, nil, "medicare")
	require.NoError(t, err)
	require.Equal(t, len(r1), len(r2))
	for i := range r1 {
		assert.Equal(t, r1[i].Key(), r2[i].Key())
	}
}
