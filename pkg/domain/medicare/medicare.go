package medicare

import (
	_ "embed"
	"regexp"

	"github.com/csmangum/insurance-rag/pkg/domain"
	"github.com/csmangum/insurance-rag/pkg/topic"
)

//go:embed topics.yaml
var topicsYAML []byte

func compile(patterns []string) []*regexp.Regexp {
	return mustCompileAll(patterns)
}

func sourcePatterns() map[string][]*regexp.Regexp {
	return map[string][]*regexp.Regexp{
		"iom":   compile(iomPatterns),
		"mcd":   compile(mcdPatterns),
		"codes": compile(codesPatterns),
	}
}

func topicPatterns() []domain.TopicPattern {
	out := make([]domain.TopicPattern, len(lcdTopicPatterns))
	for i, tp := range lcdTopicPatterns {
		out[i] = domain.TopicPattern{
			Pattern:   regexp.MustCompile("(?i)" + tp.pattern),
			Expansion: tp.expansion,
		}
	}
	return out
}

func synonyms() []domain.SynonymRule {
	out := make([]domain.SynonymRule, len(synonymMap))
	for i, s := range synonymMap {
		out[i] = domain.SynonymRule{
			Pattern:   regexp.MustCompile("(?i)" + s.pattern),
			Expansion: s.expansion,
		}
	}
	return out
}

// Profile builds the "medicare" domain.Profile. Exported so callers can
// inspect or wrap it without going through the registry, but the normal
// path is via the package's init()-time registration.
func Profile() domain.Profile {
	defs, err := topic.LoadYAML(topicsYAML)
	if err != nil {
		panic(err)
	}
	return domain.Profile{
		Name:                         "medicare",
		DisplayName:                  "Medicare",
		CollectionName:               "medicare",
		SourceKinds:                  []string{"iom", "mcd", "codes"},
		SpecializedQueryPatterns:     lcdQueryPatterns,
		SpecializedTopicPatterns:     topicPatterns(),
		SpecializedFallbackExpansion: lcdFallbackExpansion,
		StripNoisePattern:            stripLCDNoise,
		StripFillerPattern:           stripFiller,
		SourcePatterns:               sourcePatterns(),
		SourceExpansions:             sourceExpansions,
		SynonymMap:                   synonyms(),
		DefaultSourceRelevance:       defaultSourceRelevance,
		SystemPrompt:                 systemPrompt,
		TopicEngine:                  topic.NewEngine(defs),
		SpecializedSourceFilter:      map[string]any{"source": "mcd"},
		States:                       nil, // federal program, not state-partitioned
		QuickQuestions:               quickQuestions,
	}
}

func init() {
	if err := domain.Register(Profile()); err != nil {
		panic(err)
	}
}
