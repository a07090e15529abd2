package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/csmangum/insurance-rag/pkg/chunk"
	"github.com/csmangum/insurance-rag/pkg/config"
	"github.com/csmangum/insurance-rag/pkg/domain"
	"github.com/csmangum/insurance-rag/pkg/fuse"
	"github.com/csmangum/insurance-rag/pkg/keyword"
	"github.com/csmangum/insurance-rag/pkg/query"
	"github.com/csmangum/insurance-rag/pkg/vectorstore"
)

// Retriever is the single public entry point used by answer generation
// and the search UI. It assembles the domain registry, query analyzer,
// topic engine, vector and keyword retrievers, and hybrid fuser.
type Retriever struct {
	store    vectorstore.Store
	embed    vectorstore.EmbedFunc
	registry *domain.Registry
	cfg      config.Config

	dimOnce  sync.Once
	modelDim int

	fusers  map[string]*fuse.Fuser
	indices map[string]*keyword.Index
	corpus  map[string][]chunk.Chunk
}

// New assembles a Retriever over store using registry for domain
// lookups. embed is the same embedding function the store adapter
// queries with; the retriever probes it once to learn the model's
// vector dimension for the mismatch guard. Pass domain.Default to use
// the process-wide registry populated by domain packages' init()
// functions.
func New(store vectorstore.Store, embed vectorstore.EmbedFunc, registry *domain.Registry, cfg config.Config) *Retriever {
	cfg.SetDefaults()
	return &Retriever{
		store:    store,
		embed:    embed,
		registry: registry,
		cfg:      cfg,
		fusers:   make(map[string]*fuse.Fuser),
		indices:  make(map[string]*keyword.Index),
		corpus:   make(map[string][]chunk.Chunk),
	}
}

// SetCorpus registers the in-memory chunk snapshot the BM25 index for
// collectionName builds and searches against. The vector store is
// populated independently by the ingest pipeline; this is only the
// keyword retriever's corpus view.
func (r *Retriever) SetCorpus(collectionName string, chunks []chunk.Chunk) {
	r.corpus[collectionName] = chunks
}

func (r *Retriever) fuserFor(p domain.Profile) *fuse.Fuser {
	if f, ok := r.fusers[p.CollectionName]; ok {
		return f
	}
	idx := keyword.NewIndex()
	r.indices[p.CollectionName] = idx
	f := fuse.New(r.store, idx, p.CollectionName, func() []chunk.Chunk {
		return r.corpus[p.CollectionName]
	})
	r.fusers[p.CollectionName] = f
	return f
}

// Retrieve returns up to k chunks ranked for q. domainName resolves
// through the registry, falling back to cfg.DefaultDomain with a
// logged warning if unknown.
func (r *Retriever) Retrieve(ctx context.Context, q string, k int, metadataFilter map[string]any, domainName string) ([]chunk.Chunk, error) {
	if k <= 0 {
		k = r.cfg.DefaultK
	}
	if k > r.cfg.MaxK {
		k = r.cfg.MaxK
	}

	if strings.TrimSpace(q) == "" {
		slog.Warn("empty query after trimming", "kind", KindEmptyQuery)
		return []chunk.Chunk{}, nil
	}

	normalizedFilter, err := vectorstore.Normalize(metadataFilter)
	if err != nil {
		return nil, newError(KindInvalidFilter, "retrieval", "Retrieve", err.Error(), err)
	}

	profile, err := r.registry.Resolve(domainName, r.cfg.DefaultDomain)
	if err != nil {
		return nil, newError(KindUnknownDomain, "domain", "Resolve", "default domain itself is unregistered", err)
	}

	if state, ok := normalizedFilter["state"].(string); ok && !profile.HasState(state) {
		return nil, NewInvalidFilterError("state=" + state)
	}

	count, err := r.store.Count(ctx, profile.CollectionName)
	if err != nil {
		return nil, NewStoreError("Count", err)
	}
	if count == 0 {
		slog.Warn("empty corpus", "collection", profile.CollectionName, "kind", KindEmptyCorpus)
		return []chunk.Chunk{}, nil
	}

	if stored, ok, err := r.store.SampleEmbeddingDim(ctx, profile.CollectionName); err == nil && ok {
		if got := r.embeddingDim(ctx); got > 0 && got != stored {
			return nil, NewEmbeddingDimensionMismatchError(stored, got)
		}
	}

	kFinal := k
	if query.IsSpecialized(q, profile) && r.cfg.LCDRetrievalK > kFinal {
		kFinal = r.cfg.LCDRetrievalK
	}

	f := r.fuserFor(profile)
	results, err := f.Retrieve(ctx, q, kFinal, normalizedFilter, profile)
	if err != nil {
		return nil, NewStoreError("Retrieve", err)
	}
	return results, nil
}

// embeddingDim probes the embedding function once to measure the live
// model's vector dimension. A nil function or a failing probe disables
// the mismatch guard rather than failing retrieval.
func (r *Retriever) embeddingDim(ctx context.Context) int {
	r.dimOnce.Do(func() {
		if r.embed == nil {
			return
		}
		vec, err := r.embed(ctx, "dimension probe")
		if err != nil {
			slog.Warn("embedding dimension probe failed", "model", r.cfg.EmbeddingModel, "error", err)
			return
		}
		r.modelDim = len(vec)
	})
	return r.modelDim
}
