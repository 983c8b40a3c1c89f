package knowledge

import (
	"testing"

	"github.com/cosmoscout/cosmoscout/internal/query"
)

func loadBase(t *testing.T) *Base {
	t.Helper()
	b, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return b
}

func TestLookupMatchesKeyInRawQuery(t *testing.T) {
	b := loadBase(t)
	got := b.Lookup(query.Analyze("tell me about black holes"))
	if len(got) == 0 {
		t.Fatal("expected a match")
	}
	if got[0].Title != "Black Holes" {
		t.Errorf("title = %q", got[0].Title)
	}
	if got[0].Relevance != 3 {
		t.Errorf("relevance = %d, want 3", got[0].Relevance)
	}
	if got[0].Source != SourceName {
		t.Errorf("source = %q", got[0].Source)
	}
}

func TestLookupMatchesByIntent(t *testing.T) {
	b := loadBase(t)
	// "falcon" classifies as spacex intent without the key in the text
	got := b.Lookup(query.Analyze("falcon booster landing"))
	found := false
	for _, a := range got {
		if a.Title == "SpaceX Missions" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected intent match for spacex, got %+v", got)
	}
}

func TestLookupMatchesByKeywordWord(t *testing.T) {
	b := loadBase(t)
	got := b.Lookup(query.Analyze("webb infrared observations"))
	found := false
	for _, a := range got {
		if a.Title == "James Webb Space Telescope" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected keyword-word match on 'webb', got %+v", got)
	}
}

func TestLookupNeverEmpty(t *testing.T) {
	b := loadBase(t)
	got := b.Lookup(query.Analyze("zzz unrelated gibberish"))
	if len(got) != 1 {
		t.Fatalf("expected the single default entry, got %d", len(got))
	}
	if got[0].Title != "Space Exploration" {
		t.Errorf("title = %q", got[0].Title)
	}
	if got[0].Relevance != 2 {
		t.Errorf("default relevance = %d, want 2", got[0].Relevance)
	}
}
