// Package fuse implements the hybrid fuser: concurrent per-variant
// semantic and keyword retrieval, reciprocal-rank fusion, source
// diversification, and topic-summary injection/boost.
package fuse

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/csmangum/insurance-rag/pkg/chunk"
	"github.com/csmangum/insurance-rag/pkg/domain"
	"github.com/csmangum/insurance-rag/pkg/keyword"
	"github.com/csmangum/insurance-rag/pkg/query"
	"github.com/csmangum/insurance-rag/pkg/vectorstore"
)

// rrfK is the standard Reciprocal Rank Fusion constant.
const rrfK = 60

// maxConcurrentVariants bounds the per-variant fan-out.
const maxConcurrentVariants = 8

// Fuser runs the hybrid retrieval algorithm over a vector store and a
// BM25 keyword index for a single domain collection.
type Fuser struct {
	Store      vectorstore.Store
	Index      *keyword.Index
	Collection string

	// Chunks is the corpus the keyword index searches and lazily builds
	// against. It is read fresh on every call so a changed chunk count
	// triggers a rebuild.
	Chunks func() []chunk.Chunk
}

// New returns a Fuser over store/index for the given collection. chunks
// supplies the corpus snapshot the BM25 index builds and searches
// against.
func New(store vectorstore.Store, index *keyword.Index, collection string, chunks func() []chunk.Chunk) *Fuser {
	return &Fuser{Store: store, Index: index, Collection: collection, Chunks: chunks}
}

// variant is an internal query/filter/weight tuple. Weight is carried
// for diagnostic surfaces; RRF itself is unweighted.
type variant struct {
	text   string
	filter map[string]any
	weight float64
}

// candidate tracks everything needed to compute and explain an RRF
// score for one (doc_id, chunk_index) across all result lists.
type candidate struct {
	chunk        chunk.Chunk
	rrfScore     float64
	earliestRank int
}

// Retrieve runs the full hybrid algorithm, or the specialized variant
// when q matches profile.SpecializedQueryPatterns and the caller's
// filter doesn't pin a conflicting source.
func (f *Fuser) Retrieve(ctx context.Context, q string, kFinal int, callerFilter map[string]any, profile domain.Profile) ([]chunk.Chunk, error) {
	if query.IsSpecialized(q, profile) && !conflictsWithSpecializedFilter(callerFilter, profile) {
		return f.retrieveSpecialized(ctx, q, kFinal, callerFilter, profile)
	}
	return f.retrieveGeneric(ctx, q, kFinal, callerFilter, profile)
}

// conflictsWithSpecializedFilter reports whether the caller already
// pinned a `source` different from profile.SpecializedSourceFilter's.
// The caller's explicit filter wins over the profile's implicit one.
func conflictsWithSpecializedFilter(callerFilter map[string]any, profile domain.Profile) bool {
	if len(profile.SpecializedSourceFilter) == 0 {
		return false
	}
	wantSource, ok := profile.SpecializedSourceFilter["source"]
	if !ok {
		return false
	}
	gotSource, ok := callerFilter["source"]
	if !ok {
		return false
	}
	return gotSource != wantSource
}

func (f *Fuser) retrieveGeneric(ctx context.Context, q string, kFinal int, callerFilter map[string]any, profile domain.Profile) ([]chunk.Chunk, error) {
	crossVariants := query.ExpandCrossSource(q, profile)
	variants := make([]variant, 0, len(crossVariants)+1)
	// Baseline variant carries the caller's own filter unchanged.
	variants = append(variants, variant{text: q, filter: callerFilter, weight: 1.0})
	for _, v := range crossVariants[1:] {
		variants = append(variants, variant{
			text:   v.Text,
			filter: vectorstore.Merge(callerFilter, v.SourceFilter),
			weight: 1.0,
		})
	}

	nVariants := len(variants)
	kPerVariant := kPerVariantGeneric(kFinal, nVariants)

	return f.run(ctx, q, variants, kPerVariant, kFinal, callerFilter, profile)
}

func (f *Fuser) retrieveSpecialized(ctx context.Context, q string, kFinal int, callerFilter map[string]any, profile domain.Profile) ([]chunk.Chunk, error) {
	texts := query.ExpandSpecialized(q, profile)
	variants := make([]variant, 0, len(texts)+1)
	for _, t := range texts {
		variants = append(variants, variant{
			text:   t,
			filter: vectorstore.Merge(callerFilter, profile.SpecializedSourceFilter),
			weight: 1.0,
		})
	}
	// Plus one baseline variant outside the profile's pinned source.
	variants = append(variants, variant{text: q, filter: callerFilter, weight: 1.0})

	kPerVariant := kPerVariantSpecialized(kFinal)

	return f.run(ctx, q, variants, kPerVariant, kFinal, callerFilter, profile)
}

// kPerVariantGeneric is max(4, ceil(kFinal/nVariants) * 2).
func kPerVariantGeneric(kFinal, nVariants int) int {
	if nVariants < 1 {
		nVariants = 1
	}
	v := int(math.Ceil(float64(kFinal)/float64(nVariants))) * 2
	if v < 4 {
		v = 4
	}
	return v
}

// kPerVariantSpecialized is max(4, kFinal/3).
func kPerVariantSpecialized(kFinal int) int {
	v := kFinal / 3
	if v < 4 {
		v = 4
	}
	return v
}

// run executes the shared tail of the generic and specialized paths:
// fan-out search, RRF, diversification, topic-summary injection, boost,
// truncate.
func (f *Fuser) run(ctx context.Context, originalQuery string, variants []variant, kPerVariant, kFinal int, callerFilter map[string]any, profile domain.Profile) ([]chunk.Chunk, error) {
	lists, err := f.fanOut(ctx, variants, kPerVariant)
	if err != nil {
		return nil, err
	}

	fused := reciprocalRankFusion(lists)

	result := make([]chunk.Chunk, len(fused))
	for i, c := range fused {
		result[i] = c.chunk
	}

	singleSourcePinned := callerFilter["source"] != nil
	if !singleSourcePinned {
		result = diversify(result, kFinal)
	}

	topics := profile.TopicEngine.AssignTopics(originalQuery)
	if len(topics) > 0 {
		result, err = f.injectTopicSummaries(ctx, result, topics)
		if err != nil {
			return nil, err
		}
	}

	result = boostTopicSummaries(result, topics)

	if len(result) > kFinal {
		result = result[:kFinal]
	}
	return result, nil
}

// fanOut launches, for each variant, concurrent vector and keyword
// searches, bounded at maxConcurrentVariants in flight. A failing
// variant is logged and treated as an empty list so a single flaky
// variant cannot fail the whole query.
func (f *Fuser) fanOut(ctx context.Context, variants []variant, kPerVariant int) ([][]chunk.Chunk, error) {
	lists := make([][]chunk.Chunk, len(variants)*2)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentVariants)

	for i, v := range variants {
		i, v := i, v
		g.Go(func() error {
			chunks, err := f.Store.SimilaritySearch(gctx, f.Collection, v.text, kPerVariant, v.filter)
			if err != nil {
				slog.Warn("variant vector search failed, treating as empty", "variant", v.text, "error", err)
				return nil
			}
			lists[2*i] = chunks
			return nil
		})
		g.Go(func() error {
			results := f.Index.Search(f.Chunks(), v.text, kPerVariant, v.filter)
			chunks := make([]chunk.Chunk, len(results))
			for j, r := range results {
				chunks[j] = r.Chunk
			}
			lists[2*i+1] = chunks
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}

// reciprocalRankFusion scores each candidate as sum(1/(rrfK+rank))
// over every list it appears in, deduplicated by (doc_id, chunk_index).
// Ties break by lower earliest rank across lists, then lexicographic
// (doc_id, chunk_index), so the output is invariant under reordering of
// the input lists.
func reciprocalRankFusion(lists [][]chunk.Chunk) []candidate {
	byKey := make(map[chunk.Key]*candidate)
	order := make([]chunk.Key, 0)

	for _, list := range lists {
		for rank, c := range list {
			key := c.Key()
			cand, ok := byKey[key]
			if !ok {
				cand = &candidate{chunk: c, earliestRank: rank}
				byKey[key] = cand
				order = append(order, key)
			} else if rank < cand.earliestRank {
				cand.earliestRank = rank
			}
			cand.rrfScore += 1.0 / float64(rrfK+rank+1)
		}
	}

	out := make([]candidate, len(order))
	for i, key := range order {
		out[i] = *byKey[key]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].rrfScore != out[j].rrfScore {
			return out[i].rrfScore > out[j].rrfScore
		}
		if out[i].earliestRank != out[j].earliestRank {
			return out[i].earliestRank < out[j].earliestRank
		}
		ki, kj := out[i].chunk.Key(), out[j].chunk.Key()
		if ki.DocID != kj.DocID {
			return ki.DocID < kj.DocID
		}
		return ki.ChunkIndex < kj.ChunkIndex
	})
	return out
}

// diversify walks the RRF-sorted list and caps any one source at
// ceil(kFinal/2) of the top-kFinal slots, preserving each source's
// relative order.
func diversify(sorted []chunk.Chunk, kFinal int) []chunk.Chunk {
	perSourceCap := (kFinal + 1) / 2
	if perSourceCap < 1 {
		perSourceCap = 1
	}

	counts := make(map[string]int)
	var accepted, deferred []chunk.Chunk
	for _, c := range sorted {
		source := c.MetaString(chunk.MetaSource)
		if len(accepted) < kFinal && counts[source] < perSourceCap {
			accepted = append(accepted, c)
			counts[source]++
		} else {
			deferred = append(deferred, c)
		}
	}
	return append(accepted, deferred...)
}

// injectTopicSummaries looks up topic_<name> for every matched topic
// and prepends any not already present by doc_id. Injected summaries
// are exempt from the caller's source filter: they are addressed by
// deterministic ID, not by the filtered search path, and dropping them
// would defeat the anchor mechanism exactly when a query pins a source.
func (f *Fuser) injectTopicSummaries(ctx context.Context, result []chunk.Chunk, topics []string) ([]chunk.Chunk, error) {
	ids := make([]string, len(topics))
	for i, t := range topics {
		ids[i] = chunk.TopicSummaryDocID(t)
	}

	summaries, err := f.Store.GetByIDs(ctx, f.Collection, ids)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(result))
	for _, c := range result {
		present[c.DocID] = true
	}

	var toPrepend []chunk.Chunk
	for _, s := range summaries {
		if !present[s.DocID] {
			toPrepend = append(toPrepend, s)
			present[s.DocID] = true
		}
	}
	if len(toPrepend) == 0 {
		return result, nil
	}
	return append(toPrepend, result...), nil
}

// boostTopicSummaries stable-partitions result into (a) summaries whose
// topic set intersects topics, then (b) everything else.
func boostTopicSummaries(result []chunk.Chunk, topics []string) []chunk.Chunk {
	if len(topics) == 0 {
		return result
	}
	wanted := make(map[string]bool, len(topics))
	for _, t := range topics {
		wanted[t] = true
	}

	var boosted, rest []chunk.Chunk
	for _, c := range result {
		if c.IsSummary() && intersects(c.TopicClusters(), wanted) {
			boosted = append(boosted, c)
		} else {
			rest = append(rest, c)
		}
	}
	return append(boosted, rest...)
}

func intersects(topics []string, wanted map[string]bool) bool {
	for _, t := range topics {
		if wanted[t] {
			return true
		}
	}
	return false
}
