// Package vectorstore defines the vector retriever facade: a thin,
// stateless wrapper over an opaque external vector store. This package
// only declares the interface contract and normalizes caller filters
// into the grammar the store understands; concrete adapters live in
// subpackages.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/csmangum/insurance-rag/pkg/chunk"
)

// EmbedFunc is the embedding-model contract consumed by the core: a
// pure function text -> fixed-dimension vector. Callers supply an
// implementation when constructing a Store adapter.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Store is the vector-store contract consumed by the fuser. A concrete
// adapter (e.g. package vectorstore/chromem) implements it against a
// specific embedded or networked store, embedding queryText via its
// configured EmbedFunc before searching.
type Store interface {
	// SimilaritySearch returns up to k chunks ordered by ascending
	// distance. metadataFilter follows the canonicalized grammar in
	// Normalize.
	SimilaritySearch(ctx context.Context, collection string, queryText string, k int, metadataFilter map[string]any) ([]chunk.Chunk, error)

	// SimilaritySearchWithScore is SimilaritySearch plus distance, for
	// diagnostic UIs; not used by the fuser.
	SimilaritySearchWithScore(ctx context.Context, collection string, queryText string, k int, metadataFilter map[string]any) ([]ScoredChunk, error)

	// GetByIDs looks up chunks by doc_id; missing IDs are silently
	// dropped. Topic-summary injection depends on this being a normal,
	// non-error case.
	GetByIDs(ctx context.Context, collection string, ids []string) ([]chunk.Chunk, error)

	// Count returns the number of chunks in collection.
	Count(ctx context.Context, collection string) (int, error)

	// SampleEmbeddingDim returns the dimension of a sampled stored
	// vector, or (0, false) if the collection is empty. Backs the
	// embedding-dimension mismatch guard.
	SampleEmbeddingDim(ctx context.Context, collection string) (int, bool, error)
}

// ScoredChunk pairs a chunk with its distance from the query vector.
type ScoredChunk struct {
	Chunk    chunk.Chunk
	Distance float32
}

// Normalize canonicalizes a caller-supplied filter into the grammar the
// store understands: flat equality keys are passed through; an explicit
// `$and` list combines sub-filters conjunctively. Any other key's value
// that is itself a map is rejected as an unknown comparator, before any
// store call is made.
func Normalize(filter map[string]any) (map[string]any, error) {
	if len(filter) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(filter))
	for k, v := range filter {
		if k == "$and" {
			subs, ok := v.([]map[string]any)
			if !ok {
				return nil, fmt.Errorf("vectorstore: $and value must be a list of filters")
			}
			normalizedSubs := make([]map[string]any, 0, len(subs))
			for _, sub := range subs {
				n, err := Normalize(sub)
				if err != nil {
					return nil, err
				}
				normalizedSubs = append(normalizedSubs, n)
			}
			out[k] = normalizedSubs
			continue
		}
		if _, isMap := v.(map[string]any); isMap {
			return nil, fmt.Errorf("vectorstore: unknown filter comparator for key %q", k)
		}
		out[k] = v
	}
	return out, nil
}

// Merge combines two filters as a conjunction. A nil/empty filter on
// either side is dropped rather than wrapped in $and.
func Merge(a, b map[string]any) map[string]any {
	switch {
	case len(a) == 0 && len(b) == 0:
		return nil
	case len(a) == 0:
		return b
	case len(b) == 0:
		return a
	}
	return map[string]any{"$and": []map[string]any{a, b}}
}
