// Package chunk defines the atomic unit of retrieval: a piece of a source
// document together with its metadata and embedding.
package chunk

import (
	"sort"
	"strings"
)

// Recognized metadata keys. Callers and domain profiles are free to set
// additional keys; these are the ones the core reads directly.
const (
	MetaSource         = "source"
	MetaManual         = "manual"
	MetaChapter        = "chapter"
	MetaJurisdiction   = "jurisdiction"
	MetaState          = "state"
	MetaTitle          = "title"
	MetaEffectiveDate  = "effective_date"
	MetaDocType        = "doc_type"
	MetaTopicCluster   = "topic_cluster"
	MetaTopicClusters  = "topic_clusters"
	MetaCollection     = "collection"
	MetaIngestedAtUnix = "ingested_at"
)

// Doc-type values for summary chunks (see Chunk.IsSummary).
const (
	DocTypeChunk           = "chunk"
	DocTypeDocumentSummary = "document_summary"
	DocTypeTopicSummary    = "topic_summary"
)

// Chunk is the atomic unit stored in the vector index. Immutable once
// written; all mutating helpers (e.g. WithTopicClusters) return a copy.
type Chunk struct {
	DocID      string
	ChunkIndex int
	Content    string
	Embedding  []float32
	Metadata   map[string]any
}

// ID returns the chunk's doc_id, which all chunks of one document share.
// Key returns the full (doc_id, chunk_index) primary key.
func (c Chunk) ID() string {
	return c.DocID
}

// Key returns the dedup/primary key used throughout the core:
// (doc_id, chunk_index).
func (c Chunk) Key() Key {
	return Key{DocID: c.DocID, ChunkIndex: c.ChunkIndex}
}

// Key is the (doc_id, chunk_index) primary key pair.
type Key struct {
	DocID      string
	ChunkIndex int
}

// MetaString reads a string metadata value, returning "" if absent or of
// the wrong type.
func (c Chunk) MetaString(key string) string {
	if c.Metadata == nil {
		return ""
	}
	if v, ok := c.Metadata[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// DocType returns the doc_type metadata value, defaulting to DocTypeChunk.
func (c Chunk) DocType() string {
	dt := c.MetaString(MetaDocType)
	if dt == "" {
		return DocTypeChunk
	}
	return dt
}

// IsSummary reports whether this chunk is a document or topic summary.
func (c Chunk) IsSummary() bool {
	dt := c.DocType()
	return dt == DocTypeDocumentSummary || dt == DocTypeTopicSummary
}

// TopicClusters parses the canonical comma-joined topic_clusters field.
// For summary chunks, topic_cluster (singular) is also consulted.
func (c Chunk) TopicClusters() []string {
	var topics []string
	if single := c.MetaString(MetaTopicCluster); single != "" {
		topics = append(topics, single)
	}
	if joined := c.MetaString(MetaTopicClusters); joined != "" {
		for _, t := range strings.Split(joined, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				topics = append(topics, t)
			}
		}
	}
	return topics
}

// WithTopicClusters returns a copy of c with topic_clusters set to the
// canonical, stable comma-join of the given topic names. An empty list
// leaves the chunk's metadata unchanged.
func (c Chunk) WithTopicClusters(topics []string) Chunk {
	if len(topics) == 0 {
		return c
	}
	meta := make(map[string]any, len(c.Metadata)+1)
	for k, v := range c.Metadata {
		meta[k] = v
	}
	meta[MetaTopicClusters] = strings.Join(topics, ",")
	out := c
	out.Metadata = meta
	return out
}

// MatchesSourceFilter reports whether the chunk's source metadata equals
// the given value. An empty want always matches.
func (c Chunk) MatchesSourceFilter(want string) bool {
	if want == "" {
		return true
	}
	return c.MetaString(MetaSource) == want
}

// Matches reports whether the chunk satisfies filter, a canonicalized
// metadata filter: equality for each key, conjunction across keys. A
// `$and` key holds a list of sub-filters, themselves combined with AND.
// A nil or empty filter always matches.
func (c Chunk) Matches(filter map[string]any) bool {
	for key, want := range filter {
		if key == "$and" {
			subFilters, ok := want.([]map[string]any)
			if !ok {
				return false
			}
			for _, sub := range subFilters {
				if !c.Matches(sub) {
					return false
				}
			}
			continue
		}
		if c.Metadata == nil {
			return false
		}
		got, ok := c.Metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// SortKeys returns a sorted copy of keys for deterministic iteration in tests
// and tie-break logic (lexicographic doc_id, then chunk_index).
func SortKeys(keys []Key) []Key {
	out := append([]Key(nil), keys...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocID != out[j].DocID {
			return out[i].DocID < out[j].DocID
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out
}

// TopicSummaryDocID returns the deterministic doc_id for a topic summary:
// "topic_<name>".
func TopicSummaryDocID(topic string) string {
	return "topic_" + topic
}
