package auto

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
		"regulations": compile(regulationsPatterns),
		"forms":       compile(formsPatterns),
		"claims":      compile(claimsPatterns),
		"rates":       compile(ratesPatterns),
	}
}

func topicPatterns() []domain.TopicPattern {
	out := make([]domain.TopicPattern, len(coverageTopicPatterns))
	for i, tp := range coverageTopicPatterns {
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

// Profile builds the "auto" domain.Profile. Exported so callers can
// inspect or wrap it without going through the registry, but the normal
// path is via the package's init()-time registration.
func Profile() domain.Profile {
	defs, err := topic.LoadYAML(topicsYAML)
	if err != nil {
		panic(err)
	}
	return domain.Profile{
		Name:                         "auto",
		DisplayName:                  "Auto Insurance",
		CollectionName:               "auto",
		SourceKinds:                  []string{"regulations", "forms", "claims", "rates"},
		SpecializedQueryPatterns:     coverageQueryPatterns,
		SpecializedTopicPatterns:     topicPatterns(),
		SpecializedFallbackExpansion: coverageFallbackExpansion,
		StripNoisePattern:            stripCoverageNoise,
		StripFillerPattern:           stripFiller,
		SourcePatterns:               sourcePatterns(),
		SourceExpansions:             sourceExpansions,
		SynonymMap:                   synonyms(),
		DefaultSourceRelevance:       defaultSourceRelevance,
		SystemPrompt:                 systemPrompt,
		TopicEngine:                  topic.NewEngine(defs),
		// Auto has no LCD/NCD-style coverage-determination document type
		// to pin a specialized query to, so the specialized path widens
		// recall (topic expansion) without narrowing the source filter.
		SpecializedSourceFilter: nil,
		States:                  stateCodes(),
		QuickQuestions:          quickQuestions,
	}
}

func init() {
	if err := domain.Register(Profile()); err != nil {
		panic(err)
	}
}

// StateInfo returns the state-specific facts for code, and reports
// whether code was recognized.
func StateInfo(code string) (StateConfig, bool) {
	c, ok := stateConfigs[code]
	return c, ok
}
