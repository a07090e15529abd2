// Package query implements the query analyzer: specialized query
// detection, variant expansion, per-source relevance scoring, synonym
// expansion, and cross-source variant generation. All functions are
// pure over (query, profile).
package query

import (
	"strings"

	"github.com/csmangum/insurance-rag/pkg/domain"
)

// IsSpecialized reports whether any of profile.SpecializedQueryPatterns
// matches q.
func IsSpecialized(q string, profile domain.Profile) bool {
	for _, p := range profile.SpecializedQueryPatterns {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}

// ExpandSpecialized returns at most three variants of q: the original
// verbatim, a topic-or-fallback expansion, and a concept-only reduction.
// The concept variant is dropped when empty or case-insensitively equal
// to the original, so the output order is stable across runs.
func ExpandSpecialized(q string, profile domain.Profile) []string {
	variants := []string{q}

	var topicExpansion string
	for _, tp := range profile.SpecializedTopicPatterns {
		if tp.Pattern.MatchString(q) {
			topicExpansion += " " + tp.Expansion
		}
	}
	if topicExpansion == "" {
		topicExpansion = " " + profile.SpecializedFallbackExpansion
	}
	variants = append(variants, q+topicExpansion)

	concept := conceptOnly(q, profile)
	if concept != "" && !strings.EqualFold(concept, q) {
		variants = append(variants, concept)
	}

	return variants
}

// conceptOnly reduces q to a concept-only form: strip noise terms, strip
// filler terms, collapse parentheses and whitespace, trim trailing
// punctuation.
func conceptOnly(q string, profile domain.Profile) string {
	out := q
	if profile.StripNoisePattern != nil {
		out = profile.StripNoisePattern.ReplaceAllString(out, " ")
	}
	if profile.StripFillerPattern != nil {
		out = profile.StripFillerPattern.ReplaceAllString(out, " ")
	}
	out = strings.ReplaceAll(out, "(", " ")
	out = strings.ReplaceAll(out, ")", " ")
	out = strings.Join(strings.Fields(out), " ")
	out = strings.TrimRight(out, "?.,;: ")
	return out
}

// DetectSourceRelevance scores each source kind by how strongly q
// matches its pattern set: M is the count of distinct matching patterns,
// T = max(1, len(patterns)/3), score = min(1.0, M/T). If every score is
// zero, returns profile.GetDefaultSourceRelevance() verbatim so
// retrieval still casts a wide net.
func DetectSourceRelevance(q string, profile domain.Profile) map[string]float64 {
	scores := make(map[string]float64, len(profile.SourcePatterns))
	anyNonZero := false

	for kind, patterns := range profile.SourcePatterns {
		m := 0
		for _, p := range patterns {
			if p.MatchString(q) {
				m++
			}
		}
		t := len(patterns) / 3
		if t < 1 {
			t = 1
		}
		score := float64(m) / float64(t)
		if score > 1.0 {
			score = 1.0
		}
		scores[kind] = score
		if score > 0 {
			anyNonZero = true
		}
	}

	if !anyNonZero {
		return profile.GetDefaultSourceRelevance()
	}
	return scores
}

// ApplySynonyms appends, in declaration order, the expansion text of
// every synonym rule whose regex matches q. The original text is never
// edited, only augmented.
func ApplySynonyms(q string, profile domain.Profile) string {
	out := q
	for _, rule := range profile.SynonymMap {
		if rule.Pattern.MatchString(q) {
			out += " " + rule.Expansion
		}
	}
	return out
}

// Variant pairs expanded query text with an optional source filter.
type Variant struct {
	Text         string
	SourceFilter map[string]any
}

// ExpandCrossSource builds the cross-source variant list: the bare
// query first, then one variant per source kind with positive relevance
// and a source-expansion entry, then a synonym-expanded variant if
// ApplySynonyms changed the query.
func ExpandCrossSource(q string, profile domain.Profile) []Variant {
	variants := []Variant{{Text: q, SourceFilter: nil}}

	relevance := DetectSourceRelevance(q, profile)
	for _, kind := range profile.SourceKinds {
		if relevance[kind] <= 0 {
			continue
		}
		expansion, ok := profile.SourceExpansions[kind]
		if !ok {
			continue
		}
		variants = append(variants, Variant{
			Text:         q + " " + expansion,
			SourceFilter: map[string]any{"source": kind},
		})
	}

	if synExpanded := ApplySynonyms(q, profile); synExpanded != q {
		variants = append(variants, Variant{Text: synExpanded, SourceFilter: nil})
	}

	return variants
}
