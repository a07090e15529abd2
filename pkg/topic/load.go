package topic

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadYAML parses a topics.yaml resource (a list of topic definitions)
// into compiled Definitions. Domains embed or read this resource and
// pass the bytes here; the core never reaches into the filesystem
// itself.
func LoadYAML(data []byte) ([]Definition, error) {
	var raw []rawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse topic definitions: %w", err)
	}
	defs := make([]Definition, 0, len(raw))
	for _, r := range raw {
		d, err := Compile(r.Name, r.Label, r.Patterns, r.SummaryPrefix, r.MinPatternMatches)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// MustLoadYAML is LoadYAML that panics on error, for embedded topic
// resources evaluated at init() time, where a malformed resource is a
// programming error, not a runtime condition.
func MustLoadYAML(data []byte) []Definition {
	defs, err := LoadYAML(data)
	if err != nil {
		panic(err)
	}
	return defs
}
