package query

import (
	"reflect"
	"testing"
)

func TestAnalyze_IntentTable(t *testing.T) {
	cases := []struct {
		query  string
		intent Intent
	}{
		{"Mars rover mission", IntentMars},
		{"SpaceX rocket launch", IntentSpaceX},
		{"NASA astronaut updates", IntentNASA},
		{"Hubble telescope discoveries", IntentHubble},
		{"life in the universe and black holes", IntentUniverse},
		{"asteroid and comet flybys", IntentAsteroid},
		{"asdkjasd qweqwe", IntentGeneral},
		{"moon landing missions", IntentMoon},
	}
	for _, tc := range cases {
		got := Analyze(tc.query)
		if got.Intent != tc.intent {
			t.Errorf("Analyze(%q).Intent = %q, want %q (keywords %v)",
				tc.query, got.Intent, tc.intent, got.Keywords)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := Analyze("Latest NASA missions to Mars")
	b := Analyze("Latest NASA missions to Mars")
	if a.Intent != b.Intent {
		t.Fatalf("intent differs across calls: %q vs %q", a.Intent, b.Intent)
	}
	if !reflect.DeepEqual(a.Keywords, b.Keywords) {
		t.Fatalf("keywords differ across calls: %v vs %v", a.Keywords, b.Keywords)
	}
}

func TestAnalyze_DropsStopWordsAndLemmatizes(t *testing.T) {
	got := Analyze("the missions of the rovers and galaxies")
	want := []string{"mission", "rover", "galaxy"}
	if !reflect.DeepEqual(got.Keywords, want) {
		t.Fatalf("keywords = %v, want %v", got.Keywords, want)
	}
}

func TestAnalyze_KeepsShortAndGuardedWords(t *testing.T) {
	got := Analyze("mars cosmos iss")
	want := []string{"mars", "cosmos", "iss"}
	if !reflect.DeepEqual(got.Keywords, want) {
		t.Fatalf("keywords = %v, want %v", got.Keywords, want)
	}
}

func TestAnalyze_DegradesToNaiveSplit(t *testing.T) {
	// No word-like tokens at all: fall back to a whitespace split rather
	// than returning nothing.
	got := Analyze("12345 67890")
	want := []string{"12345", "67890"}
	if !reflect.DeepEqual(got.Keywords, want) {
		t.Fatalf("keywords = %v, want %v", got.Keywords, want)
	}
	if got.Intent != IntentGeneral {
		t.Fatalf("intent = %q, want general", got.Intent)
	}
}

func TestAnalyze_PreservesOriginalText(t *testing.T) {
	raw := "  Webb telescope IMAGES  "
	if got := Analyze(raw); got.OriginalText != raw {
		t.Fatalf("OriginalText = %q, want %q", got.OriginalText, raw)
	}
}
