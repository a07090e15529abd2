// Package domain implements the domain registry: a static, process-wide
// table of plug-in profiles. Profiles are declared and registered at
// init() time, not discovered dynamically; there is no runtime class
// loading.
package domain

import (
	"regexp"

	"github.com/csmangum/insurance-rag/pkg/topic"
)

// TopicPattern pairs a regex with the expansion text appended to a query
// that matches it on the specialized path.
type TopicPattern struct {
	Pattern   *regexp.Regexp
	Expansion string
}

// SynonymRule pairs a regex with a synonym expansion string appended to
// matching queries.
type SynonymRule struct {
	Pattern   *regexp.Regexp
	Expansion string
}

// Profile is an immutable domain plug-in profile. Once registered, none
// of its fields are mutated.
type Profile struct {
	Name           string
	DisplayName    string
	CollectionName string
	SourceKinds    []string

	SpecializedQueryPatterns []*regexp.Regexp
	SpecializedTopicPatterns []TopicPattern
	// SpecializedFallbackExpansion is appended when a query is
	// specialized but no SpecializedTopicPatterns entry matches.
	SpecializedFallbackExpansion string

	StripNoisePattern  *regexp.Regexp
	StripFillerPattern *regexp.Regexp

	SourcePatterns   map[string][]*regexp.Regexp
	SourceExpansions map[string]string
	SynonymMap       []SynonymRule

	// DefaultSourceRelevance is the fallback score map returned by
	// DetectSourceRelevance when every pattern-derived score is zero. If
	// nil/empty, GetDefaultSourceRelevance() computes round(1/n, 2) per
	// source kind.
	DefaultSourceRelevance map[string]float64

	SystemPrompt string

	TopicEngine *topic.Engine

	// SpecializedSourceFilter is the optional metadata filter pinned for
	// the specialized retrieval path, e.g. {"source": "mcd"} for
	// Medicare.
	SpecializedSourceFilter map[string]any

	ChunkOverrides map[string]ChunkOverride

	// States, if non-nil, is the set of valid `state` filter values for
	// this profile. A nil value means the profile is not
	// state-partitioned and any `state` filter value is accepted (the
	// filter is simply not meaningful to this profile).
	States []string

	QuickQuestions []string
}

// ChunkOverride carries a per-source-kind chunk-size override. The core
// never chunks documents itself; the profile only exposes the values an
// external chunker reads (LCD_CHUNK_SIZE / LCD_CHUNK_OVERLAP).
type ChunkOverride struct {
	ChunkSize    int
	ChunkOverlap int
}

// GetDefaultSourceRelevance returns p.DefaultSourceRelevance if set,
// otherwise a computed round(1/len(SourceKinds), 2) fallback for every
// source kind.
func (p Profile) GetDefaultSourceRelevance() map[string]float64 {
	if len(p.DefaultSourceRelevance) > 0 {
		return p.DefaultSourceRelevance
	}
	n := len(p.SourceKinds)
	if n == 0 {
		return map[string]float64{}
	}
	base := roundTo(1.0/float64(n), 2)
	out := make(map[string]float64, n)
	for _, sk := range p.SourceKinds {
		out[sk] = base
	}
	return out
}

// HasState reports whether state is a recognized value for this
// profile. Profiles with a nil States list are not state-partitioned and
// accept any value.
func (p Profile) HasState(state string) bool {
	if p.States == nil {
		return true
	}
	for _, s := range p.States {
		if s == state {
			return true
		}
	}
	return false
}

func roundTo(v float64, places int) float64 {
	pow := 1.0
	for i := 0; i < places; i++ {
		pow *= 10
	}
	return float64(int(v*pow+0.5)) / pow
}
