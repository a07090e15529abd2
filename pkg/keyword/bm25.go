// Package keyword implements the BM25 keyword retriever: an in-memory
// inverted index over the chunk corpus, built lazily and cached for the
// process lifetime, with metadata pre-filtering applied before scoring.
package keyword

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/csmangum/insurance-rag/pkg/chunk"
)

const (
	k1 = 1.5
	b  = 0.75
)

var tokenPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Tokenize lowercases text, splits on runs of non-alphanumeric
// characters, and drops tokens shorter than 2 characters. No stemming:
// the domain has acronyms ("PIP") whose stems would collide with
// unrelated words ("pipe").
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	parts := tokenPattern.Split(lower, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

type postingList struct {
	docIdx []int
	freq   []int
}

// Index is an in-memory BM25 inverted index over a fixed chunk corpus.
type Index struct {
	mu sync.RWMutex

	chunks   []chunk.Chunk
	docLen   []int
	avgLen   float64
	postings map[string]postingList

	once sync.Once
}

// NewIndex returns an empty Index. Call Build (or rely on Search's
// lazy, one-shot build) before issuing queries.
func NewIndex() *Index {
	return &Index{}
}

// Build indexes chunks. Idempotent: a call with the same chunk count as
// the currently indexed corpus is a no-op; a different count triggers a
// full rebuild.
func (idx *Index) Build(chunks []chunk.Chunk) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.chunks) == len(chunks) && idx.postings != nil {
		return
	}
	idx.buildLocked(chunks)
}

// ensureBuilt runs the first build exactly once, guarded by sync.Once
// so concurrent first-callers wait on a single completion signal, then
// rebuilds if the corpus size has since changed.
func (idx *Index) ensureBuilt(chunks []chunk.Chunk) {
	idx.once.Do(func() {
		idx.mu.Lock()
		defer idx.mu.Unlock()
		idx.buildLocked(chunks)
	})
	idx.mu.Lock()
	stale := len(idx.chunks) != len(chunks)
	idx.mu.Unlock()
	if stale {
		idx.Build(chunks)
	}
}

func (idx *Index) buildLocked(chunks []chunk.Chunk) {
	idx.chunks = append([]chunk.Chunk(nil), chunks...)
	idx.docLen = make([]int, len(chunks))
	idx.postings = make(map[string]postingList)

	termFreqByDoc := make([]map[string]int, len(chunks))
	var totalLen int
	for i, c := range chunks {
		tokens := Tokenize(c.Content)
		idx.docLen[i] = len(tokens)
		totalLen += len(tokens)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		termFreqByDoc[i] = tf
	}
	if len(chunks) > 0 {
		idx.avgLen = float64(totalLen) / float64(len(chunks))
	}

	for i, tf := range termFreqByDoc {
		for term, freq := range tf {
			pl := idx.postings[term]
			pl.docIdx = append(pl.docIdx, i)
			pl.freq = append(pl.freq, freq)
			idx.postings[term] = pl
		}
	}
}

// Result pairs a chunk with its BM25 score.
type Result struct {
	Chunk chunk.Chunk
	Score float64
}

// Search returns up to k chunks scoring highest against query. The
// metadata filter is applied to the candidate set before scoring;
// post-filtering would lose recall when k is small. Lazily builds the
// index against chunks on first call.
func (idx *Index) Search(chunks []chunk.Chunk, query string, k int, metadataFilter map[string]any) []Result {
	idx.ensureBuilt(chunks)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.chunks)
	if n == 0 {
		return nil
	}

	candidates := make([]int, 0, n)
	for i, c := range idx.chunks {
		if c.Matches(metadataFilter) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	allowed := make(map[int]bool, len(candidates))
	for _, i := range candidates {
		allowed[i] = true
	}

	terms := Tokenize(query)
	scores := make(map[int]float64, len(candidates))
	for _, term := range terms {
		pl, ok := idx.postings[term]
		if !ok {
			continue
		}
		df := len(pl.docIdx)
		idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
		for j, docIdx := range pl.docIdx {
			if !allowed[docIdx] {
				continue
			}
			freq := float64(pl.freq[j])
			dl := float64(idx.docLen[docIdx])
			denom := freq + k1*(1-b+b*dl/idx.avgLen)
			scores[docIdx] += idf * (freq * (k1 + 1) / denom)
		}
	}

	results := make([]Result, 0, len(scores))
	for docIdx, score := range scores {
		if score <= 0 {
			continue
		}
		results = append(results, Result{Chunk: idx.chunks[docIdx], Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		ki, kj := results[i].Chunk.Key(), results[j].Chunk.Key()
		if ki.DocID != kj.DocID {
			return ki.DocID < kj.DocID
		}
		return ki.ChunkIndex < kj.ChunkIndex
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
