package domain

import "testing"

func TestGetDefaultSourceRelevanceUsesExplicitMap(t *testing.T) {
	p := Profile{
		SourceKinds:            []string{"iom", "mcd", "codes"},
		DefaultSourceRelevance: map[string]float64{"iom": 0.4, "mcd": 0.3, "codes": 0.3},
	}
	got := p.GetDefaultSourceRelevance()
	if got["iom"] != 0.4 {
		t.Fatalf("got %v", got)
	}
}

func TestGetDefaultSourceRelevanceComputesEvenSplit(t *testing.T) {
	p := Profile{SourceKinds: []string{"a", "b", "c", "d"}}
	got := p.GetDefaultSourceRelevance()
	for _, k := range p.SourceKinds {
		if got[k] != 0.25 {
			t.Fatalf("source %q: got %v, want 0.25", k, got[k])
		}
	}
}

func TestHasStateNilAcceptsAnything(t *testing.T) {
	p := Profile{States: nil}
	if !p.HasState("ZZ") {
		t.Fatal("expected nil States to accept any value")
	}
}

func TestHasStateRejectsUnknown(t *testing.T) {
	p := Profile{States: []string{"CA", "TX"}}
	if !p.HasState("CA") {
		t.Fatal("expected CA to be recognized")
	}
	if p.HasState("ZZ") {
		t.Fatal("expected ZZ to be rejected")
	}
}
