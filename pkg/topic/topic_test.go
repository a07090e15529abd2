package topic

import (
	"testing"

	"github.com/csmangum/insurance-rag/pkg/chunk"
)

func mustDef(t *testing.T, name string, patterns []string, min int) Definition {
	t.Helper()
	d, err := Compile(name, name, patterns, "", min)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return d
}

func TestAssignTopicsRespectsMinPatternMatches(t *testing.T) {
	d := mustDef(t, "billing_codes", []string{`\bhcpcs\b`, `\bcpt\b`, `\bicd\b`}, 2)
	e := NewEngine([]Definition{d})

	if got := e.AssignTopics("just HCPCS here"); len(got) != 0 {
		t.Fatalf("expected no match with one pattern, got %v", got)
	}
	if got := e.AssignTopics("HCPCS and CPT codes"); len(got) != 1 || got[0] != "billing_codes" {
		t.Fatalf("expected billing_codes match, got %v", got)
	}
}

func TestAssignTopicsPreservesDeclarationOrder(t *testing.T) {
	d1 := mustDef(t, "wound_care", []string{`\bwound\b`}, 1)
	d2 := mustDef(t, "imaging", []string{`\bMRI\b`}, 1)
	e := NewEngine([]Definition{d1, d2})

	got := e.AssignTopics("wound care and MRI imaging")
	if len(got) != 2 || got[0] != "wound_care" || got[1] != "imaging" {
		t.Fatalf("got %v", got)
	}
}

func TestTagWithTopicsLeavesUnmatchedUnchanged(t *testing.T) {
	d := mustDef(t, "wound_care", []string{`\bwound\b`}, 1)
	e := NewEngine([]Definition{d})

	c := chunk.Chunk{DocID: "d1", Content: "unrelated text"}
	tagged := e.TagWithTopics(c)
	if tagged.MetaString(chunk.MetaTopicClusters) != "" {
		t.Fatalf("expected unchanged chunk, got %q", tagged.MetaString(chunk.MetaTopicClusters))
	}
}

func TestClusterGroupsMultiTopicDocs(t *testing.T) {
	d1 := mustDef(t, "wound_care", []string{`\bwound\b`}, 1)
	d2 := mustDef(t, "billing", []string{`\bhcpcs\b`}, 1)
	e := NewEngine([]Definition{d1, d2})

	docs := []chunk.Chunk{
		{DocID: "a", Content: "wound care and HCPCS billing"},
		{DocID: "b", Content: "just HCPCS"},
	}
	clusters := e.Cluster(docs)
	if len(clusters["wound_care"]) != 1 || len(clusters["billing"]) != 2 {
		t.Fatalf("got %v", clusters)
	}
}

func TestSummaryIDsDeterministic(t *testing.T) {
	ids := SummaryIDs([]string{"wound_care", "imaging"})
	want := []string{"topic_wound_care", "topic_imaging"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v want %v", ids, want)
		}
	}
}

func TestLoadYAMLRoundTrips(t *testing.T) {
	raw := []byte(`
- name: wound_care
  label: Wound Care
  min_pattern_matches: 1
  patterns:
    - "\\bwound\\b"
`)
	defs, err := LoadYAML(raw)
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "wound_care" || defs[0].MinPatternMatches != 1 {
		t.Fatalf("got %+v", defs)
	}
}
