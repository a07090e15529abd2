// Package topic implements the topic engine: matching chunk content
// against domain-supplied topic pattern sets and resolving the
// deterministic topic-summary document IDs used as fragmentation
// anchors.
package topic

import (
	"fmt"
	"regexp"

	"github.com/csmangum/insurance-rag/pkg/chunk"
)

// Definition is an immutable topic definition: a name, a label, an
// ordered set of case-insensitive regex patterns, and the minimum number
// of distinct patterns that must match for a text to belong to the topic.
type Definition struct {
	Name              string
	Label             string
	Patterns          []*regexp.Regexp
	SummaryPrefix     string
	MinPatternMatches int
}

// rawDefinition is the YAML-serializable form loaded from a domain's
// topics.yaml resource.
type rawDefinition struct {
	Name              string   `yaml:"name"`
	Label             string   `yaml:"label"`
	Patterns          []string `yaml:"patterns"`
	SummaryPrefix     string   `yaml:"summary_prefix"`
	MinPatternMatches int      `yaml:"min_pattern_matches"`
}

// Compile turns a raw pattern list into a Definition, defaulting
// MinPatternMatches to 1.
func Compile(name, label string, patterns []string, summaryPrefix string, minPatternMatches int) (Definition, error) {
	if minPatternMatches < 1 {
		minPatternMatches = 1
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return Definition{}, fmt.Errorf("topic %q: compile pattern %q: %w", name, p, err)
		}
		compiled = append(compiled, re)
	}
	return Definition{
		Name:              name,
		Label:             label,
		Patterns:          compiled,
		SummaryPrefix:     summaryPrefix,
		MinPatternMatches: minPatternMatches,
	}, nil
}

// matches reports whether text matches this topic: at least
// MinPatternMatches distinct patterns match.
func (d Definition) matches(text string) bool {
	count := 0
	for _, p := range d.Patterns {
		if p.MatchString(text) {
			count++
			if count >= d.MinPatternMatches {
				return true
			}
		}
	}
	return false
}

// Engine matches text against an ordered set of topic definitions.
type Engine struct {
	defs []Definition
}

// NewEngine builds a topic Engine from definitions in declaration
// order. Order matters: AssignTopics returns names in this order.
func NewEngine(defs []Definition) *Engine {
	return &Engine{defs: append([]Definition(nil), defs...)}
}

// Definitions returns the engine's topic definitions in declaration order.
func (e *Engine) Definitions() []Definition {
	return append([]Definition(nil), e.defs...)
}

// AssignTopics returns the list of topic names whose pattern sets match
// text, in declaration order. Duplicates are impossible since each
// definition is visited at most once.
func (e *Engine) AssignTopics(text string) []string {
	var topics []string
	for _, d := range e.defs {
		if d.matches(text) {
			topics = append(topics, d.Name)
		}
	}
	return topics
}

// Cluster groups docs by every topic they match; a document may appear
// under multiple topics.
func (e *Engine) Cluster(docs []chunk.Chunk) map[string][]chunk.Chunk {
	out := make(map[string][]chunk.Chunk)
	for _, d := range docs {
		for _, topic := range e.AssignTopics(d.Content) {
			out[topic] = append(out[topic], d)
		}
	}
	return out
}

// TagWithTopics returns a copy of doc with topic_clusters set to the
// comma-join of AssignTopics(doc.Content); the chunk is returned
// unchanged when no topic applies.
func (e *Engine) TagWithTopics(doc chunk.Chunk) chunk.Chunk {
	topics := e.AssignTopics(doc.Content)
	return doc.WithTopicClusters(topics)
}

// Definition looks up a topic definition by name.
func (e *Engine) Definition(name string) (Definition, bool) {
	for _, d := range e.defs {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// SummaryIDs maps topic names to their deterministic topic-summary
// document IDs: t -> "topic_" + t.
func SummaryIDs(topics []string) []string {
	ids := make([]string, len(topics))
	for i, t := range topics {
		ids[i] = chunk.TopicSummaryDocID(t)
	}
	return ids
}
