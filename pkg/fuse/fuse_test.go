package fuse

import (
	"context"
	"strings"
	"testing"

	"github.com/csmangum/insurance-rag/pkg/chunk"
	"github.com/csmangum/insurance-rag/pkg/domain"
	medicaredom "github.com/csmangum/insurance-rag/pkg/domain/medicare"
	"github.com/csmangum/insurance-rag/pkg/keyword"
	"github.com/csmangum/insurance-rag/pkg/vectorstore"
)

// fakeStore is an in-memory vectorstore.Store stand-in: it scores every
// chunk by naive token overlap with the query text rather than real
// embeddings, which is enough to exercise fusion, diversification, and
// injection deterministically in tests.
type fakeStore struct {
	chunks map[string][]chunk.Chunk
}

func newFakeStore(collection string, chunks []chunk.Chunk) *fakeStore {
	return &fakeStore{chunks: map[string][]chunk.Chunk{collection: chunks}}
}

func overlapScore(text string, content string) int {
	score := 0
	for _, tok := range keyword.Tokenize(text) {
		if strings.Contains(strings.ToLower(content), tok) {
			score++
		}
	}
	return score
}

func (f *fakeStore) SimilaritySearch(ctx context.Context, collection string, queryText string, k int, filter map[string]any) ([]chunk.Chunk, error) {
	var candidates []chunk.Chunk
	for _, c := range f.chunks[collection] {
		if c.Matches(filter) {
			candidates = append(candidates, c)
		}
	}
	sortByOverlap(candidates, queryText)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func sortByOverlap(chunks []chunk.Chunk, query string) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0; j-- {
			if overlapScore(query, chunks[j].Content) > overlapScore(query, chunks[j-1].Content) {
				chunks[j], chunks[j-1] = chunks[j-1], chunks[j]
			} else {
				break
			}
		}
	}
}

func (f *fakeStore) SimilaritySearchWithScore(ctx context.Context, collection string, queryText string, k int, filter map[string]any) ([]vectorstore.ScoredChunk, error) {
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
	return 384, len(f.chunks[collection]) > 0, nil
}

func medicareCorpus() []chunk.Chunk {
	return []chunk.Chunk{
		{DocID: "topic_hyperbaric", ChunkIndex: 0, Content: "Hyperbaric oxygen therapy topic summary",
			Metadata: map[string]any{"doc_type": chunk.DocTypeTopicSummary, "topic_cluster": "hyperbaric", "source": "mcd"}},
		{DocID: "d1", ChunkIndex: 0, Content: "Hyperbaric oxygen therapy coverage criteria wound healing",
			Metadata: map[string]any{"source": "mcd"}},
		{DocID: "d2", ChunkIndex: 0, Content: "Medicare Part A benefit policy manual",
			Metadata: map[string]any{"source": "iom"}},
		{DocID: "d3", ChunkIndex: 0, Content: "HCPCS code A1001 billing modifier guidance",
			Metadata: map[string]any{"source": "codes", "hcpcs_code": "A1001"}},
	}
}

func newMedicareFuser(chunks []chunk.Chunk) (*Fuser, domain.Profile) {
	p := medicaredom.Profile()
	store := newFakeStore(p.CollectionName, chunks)
	idx := keyword.NewIndex()
	f := New(store, idx, p.CollectionName, func() []chunk.Chunk { return chunks })
	return f, p
}

func TestRetrieveSpecializedPinsSourceAndInjectsTopicSummary(t *testing.T) {
	chunks := medicareCorpus()
	f, p := newMedicareFuser(chunks)

	results, err := f.Retrieve(context.Background(), "Is hyperbaric oxygen therapy covered?", 5, nil, p)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected non-empty results")
	}

	foundMCD := false
	foundSummary := false
	for _, c := range results {
		if c.MetaString("source") == "mcd" {
			foundMCD = true
		}
		if c.DocID == "topic_hyperbaric" {
			foundSummary = true
		}
	}
	if !foundMCD {
		t.Errorf("expected at least one mcd-sourced chunk, got %+v", results)
	}
	if !foundSummary {
		t.Errorf("expected topic_hyperbaric summary injected, got %+v", results)
	}
}

func TestRetrievePeaksCodesForHCPCSQuery(t *testing.T) {
	chunks := medicareCorpus()
	f, p := newMedicareFuser(chunks)

	results, err := f.Retrieve(context.Background(), "HCPCS code A1001", 5, nil, p)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) == 0 || results[0].MetaString("hcpcs_code") != "A1001" {
		t.Fatalf("expected top-1 to be the HCPCS chunk, got %+v", results)
	}
}

func TestRetrieveEmptyVariantDoesNotFailWholeQuery(t *testing.T) {
	chunks := medicareCorpus()
	f, p := newMedicareFuser(chunks)

	results, err := f.Retrieve(context.Background(), "zzz completely unrelated zzz", 3, nil, p)
	if err != nil {
		t.Fatalf("Retrieve should not error on low-relevance query: %v", err)
	}
	if results == nil {
		t.Fatal("expected a (possibly short) non-nil result slice")
	}
}

func TestDiversifyCapsSourceShare(t *testing.T) {
	chunks := []chunk.Chunk{
		{DocID: "a", Metadata: map[string]any{"source": "mcd"}},
		{DocID: "b", Metadata: map[string]any{"source": "mcd"}},
		{DocID: "c", Metadata: map[string]any{"source": "mcd"}},
		{DocID: "d", Metadata: map[string]any{"source": "iom"}},
	}
	out := diversify(chunks, 4)
	// cap = ceil(4/2) = 2, so the iom chunk must appear within the first
	// 3 slots even though RRF ranked it last.
	found := false
	for _, c := range out[:3] {
		if c.MetaString("source") == "iom" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected diversification to surface the iom chunk early, got %+v", out)
	}
}

func TestReciprocalRankFusionInvariantUnderListReordering(t *testing.T) {
	listA := []chunk.Chunk{{DocID: "x"}, {DocID: "y"}}
	listB := []chunk.Chunk{{DocID: "y"}, {DocID: "x"}}

	r1 := reciprocalRankFusion([][]chunk.Chunk{listA, listB})
	r2 := reciprocalRankFusion([][]chunk.Chunk{listB, listA})

	if len(r1) != len(r2) {
		t.Fatalf("different lengths: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i].chunk.DocID != r2[i].chunk.DocID {
			t.Fatalf("order differs at %d: %q vs %q", i, r1[i].chunk.DocID, r2[i].chunk.DocID)
		}
	}
}

func TestSpecializedBaselineVariantBypassesProfilePin(t *testing.T) {
	// Only the iom chunk mentions hyperbaric here; the mcd-pinned
	// expanded variants cannot see it, so its presence proves the
	// baseline variant ran without the profile's source pin.
	chunks := []chunk.Chunk{
		{DocID: "d1", ChunkIndex: 0, Content: "Hyperbaric oxygen therapy chamber operation manual",
			Metadata: map[string]any{"source": "iom"}},
		{DocID: "d2", ChunkIndex: 0, Content: "Coverage criteria for infusion services",
			Metadata: map[string]any{"source": "mcd"}},
	}
	f, p := newMedicareFuser(chunks)

	results, err := f.Retrieve(context.Background(), "Is hyperbaric oxygen therapy covered?", 5, nil, p)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	foundIOM := false
	for _, c := range results {
		if c.DocID == "d1" {
			foundIOM = true
		}
	}
	if !foundIOM {
		t.Fatalf("expected the iom chunk via the unpinned baseline variant, got %+v", results)
	}
}

func TestInjectedSummariesExemptFromCallerSourceFilter(t *testing.T) {
	chunks := medicareCorpus()
	f, p := newMedicareFuser(chunks)

	// Caller pins iom; the topic_hyperbaric summary carries source=mcd
	// but is injected by ID and must survive the filter anyway.
	results, err := f.Retrieve(context.Background(), "Is hyperbaric oxygen therapy covered?", 5,
		map[string]any{"source": "iom"}, p)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	foundSummary := false
	for _, c := range results {
		if c.DocID == "topic_hyperbaric" {
			foundSummary = true
			continue
		}
		if c.MetaString("source") != "iom" {
			t.Fatalf("non-summary chunk violates the caller filter: %+v", c)
		}
	}
	if !foundSummary {
		t.Fatalf("expected topic_hyperbaric injected despite source filter, got %+v", results)
	}
}
