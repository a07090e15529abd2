// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chromem adapts philippgille/chromem-go, an embeddable
// pure-Go vector database, to the vectorstore.Store contract. Vectors
// are always pre-computed by the caller's embedding model; chromem's
// own embedding hook is wired to an error sentinel so any accidental
// invocation surfaces immediately.
package chromem

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	chromemgo "github.com/philippgille/chromem-go"

	"github.com/csmangum/insurance-rag/pkg/chunk"
	"github.com/csmangum/insurance-rag/pkg/vectorstore"
)

// Config configures the chromem-backed store.
type Config struct {
	// PersistPath enables file persistence when set. Directory is
	// created if missing. Empty means in-memory only.
	PersistPath string `yaml:"persist_path,omitempty"`
	// Compress gzip-compresses the persisted data (only with PersistPath).
	Compress bool `yaml:"compress,omitempty"`
}

// Store implements vectorstore.Store against a chromem-go database.
type Store struct {
	db    *chromemgo.DB
	embed vectorstore.EmbedFunc

	mu          sync.RWMutex
	collections map[string]*chromemgo.Collection
	// sampleDim tracks the embedding dimension of the most recently
	// upserted vector per collection. chromem-go does not expose a
	// collection-wide dimension, so SampleEmbeddingDim reads this rather
	// than issuing a zero-vector query.
	sampleDim map[string]int
}

// New opens (or creates) a chromem-go database per cfg, embedding query
// text with embed.
func New(cfg Config, embed vectorstore.EmbedFunc) (*Store, error) {
	var db *chromemgo.DB
	var err error

	if cfg.PersistPath != "" {
		if err := os.MkdirAll(cfg.PersistPath, 0o755); err != nil {
			return nil, fmt.Errorf("chromem: create persist dir: %w", err)
		}
		dbPath := cfg.PersistPath + "/vectors.gob"
		if cfg.Compress {
			dbPath += ".gz"
		}
		db, err = chromemgo.NewPersistentDB(dbPath, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("chromem: load persisted db: %w", err)
		}
	} else {
		db = chromemgo.NewDB()
	}

	return &Store{
		db:          db,
		embed:       embed,
		collections: make(map[string]*chromemgo.Collection),
		sampleDim:   make(map[string]int),
	}, nil
}

// identityEmbed is passed to chromem-go's collection constructor
// because every stored or queried vector is already computed by the
// caller's embedding model; chromem must never invoke it.
func identityEmbed(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("chromem: embedding function invoked, vectors must be pre-computed")
}

func (s *Store) collection(name string) (*chromemgo.Collection, error) {
	s.mu.RLock()
	if c, ok := s.collections[name]; ok {
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c, err := s.db.GetOrCreateCollection(name, nil, identityEmbed)
	if err != nil {
		return nil, fmt.Errorf("chromem: get/create collection %q: %w", name, err)
	}
	s.collections[name] = c
	return c, nil
}

// Upsert stores or replaces a chunk's vector and metadata. Not part of
// the vectorstore.Store contract; exposed so tests and ingest tooling
// can populate a Store without a second adapter.
func (s *Store) Upsert(ctx context.Context, collection string, c chunk.Chunk) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	strMeta := make(map[string]string, len(c.Metadata)+1)
	for k, v := range c.Metadata {
		strMeta[k] = fmt.Sprint(v)
	}
	strMeta["doc_id"] = c.DocID
	strMeta["chunk_index"] = fmt.Sprint(c.ChunkIndex)

	doc := chromemgo.Document{
		ID:        chunkDocID(c),
		Content:   c.Content,
		Metadata:  strMeta,
		Embedding: c.Embedding,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return err
	}
	s.mu.Lock()
	s.sampleDim[collection] = len(c.Embedding)
	s.mu.Unlock()
	return nil
}

func chunkDocID(c chunk.Chunk) string {
	return fmt.Sprintf("%s#%d", c.DocID, c.ChunkIndex)
}

// toFilter flattens a canonicalized filter into chromem's flat
// map[string]string form. chromem ANDs all keys natively, so $and
// sub-filters collapse into the same flat map.
func toFilter(filter map[string]any) map[string]string {
	if len(filter) == 0 {
		return nil
	}
	out := make(map[string]string, len(filter))
	flattenFilter(filter, out)
	return out
}

func flattenFilter(filter map[string]any, out map[string]string) {
	for k, v := range filter {
		if k == "$and" {
			if subs, ok := v.([]map[string]any); ok {
				for _, sub := range subs {
					flattenFilter(sub, out)
				}
			}
			continue
		}
		out[k] = fmt.Sprint(v)
	}
}

func resultToChunk(r chromemgo.Result) chunk.Chunk {
	meta := make(map[string]any, len(r.Metadata))
	idx := 0
	docID := r.ID
	for k, v := range r.Metadata {
		if k == "chunk_index" {
			fmt.Sscanf(v, "%d", &idx)
			continue
		}
		if k == "doc_id" {
			docID = v
			continue
		}
		meta[k] = v
	}
	return chunk.Chunk{
		DocID:      docID,
		ChunkIndex: idx,
		Content:    r.Content,
		Embedding:  r.Embedding,
		Metadata:   meta,
	}
}

// SimilaritySearch implements vectorstore.Store.
func (s *Store) SimilaritySearch(ctx context.Context, collection string, queryText string, k int, metadataFilter map[string]any) ([]chunk.Chunk, error) {
	reqID := uuid.NewString()
	slog.Debug("chromem similarity search", "request_id", reqID, "collection", collection, "k", k)

	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	vec, err := s.embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("chromem: embed query: %w", err)
	}
	// chromem rejects nResults above the collection size.
	if n := col.Count(); k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}
	results, err := col.QueryEmbedding(ctx, vec, k, toFilter(metadataFilter), nil)
	if err != nil {
		slog.Warn("chromem query failed", "request_id", reqID, "error", err)
		return nil, fmt.Errorf("chromem: query: %w", err)
	}
	out := make([]chunk.Chunk, 0, len(results))
	for _, r := range results {
		out = append(out, resultToChunk(r))
	}
	return out, nil
}

// SimilaritySearchWithScore implements vectorstore.Store.
func (s *Store) SimilaritySearchWithScore(ctx context.Context, collection string, queryText string, k int, metadataFilter map[string]any) ([]vectorstore.ScoredChunk, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	vec, err := s.embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("chromem: embed query: %w", err)
	}
	if n := col.Count(); k > n {
		k = n
	}
	if k == 0 {
		return nil, nil
	}
	results, err := col.QueryEmbedding(ctx, vec, k, toFilter(metadataFilter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}
	out := make([]vectorstore.ScoredChunk, 0, len(results))
	for _, r := range results {
		out = append(out, vectorstore.ScoredChunk{Chunk: resultToChunk(r), Distance: 1 - r.Similarity})
	}
	return out, nil
}

// GetByIDs implements vectorstore.Store. Missing IDs are dropped, not
// errored.
func (s *Store) GetByIDs(ctx context.Context, collection string, ids []string) ([]chunk.Chunk, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	out := make([]chunk.Chunk, 0, len(ids))
	for _, id := range ids {
		// Stored IDs carry a #<chunk_index> suffix; a bare doc_id lookup
		// (topic summaries are single-chunk documents) resolves as #0.
		doc, err := col.GetByID(ctx, id)
		if err != nil {
			doc, err = col.GetByID(ctx, id+"#0")
			if err != nil {
				continue
			}
		}
		out = append(out, chunkFromDocument(doc))
	}
	return out, nil
}

func chunkFromDocument(doc chromemgo.Document) chunk.Chunk {
	meta := make(map[string]any, len(doc.Metadata))
	idx := 0
	docID := doc.ID
	for k, v := range doc.Metadata {
		if k == "chunk_index" {
			fmt.Sscanf(v, "%d", &idx)
			continue
		}
		if k == "doc_id" {
			docID = v
			continue
		}
		meta[k] = v
	}
	return chunk.Chunk{
		DocID:      docID,
		ChunkIndex: idx,
		Content:    doc.Content,
		Embedding:  doc.Embedding,
		Metadata:   meta,
	}
}

// Count implements vectorstore.Store.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	col, err := s.collection(collection)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// SampleEmbeddingDim implements vectorstore.Store, reporting the
// dimension of the most recently upserted vector for collection.
func (s *Store) SampleEmbeddingDim(ctx context.Context, collection string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dim, ok := s.sampleDim[collection]
	return dim, ok, nil
}

var _ vectorstore.Store = (*Store)(nil)
