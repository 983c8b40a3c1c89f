// Package query turns free-text user queries into a normalized, intent-tagged
// representation consumed by the source adapters and the aggregation engine.
package query

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Intent is a coarse topic category assigned to a query. It decides which
// specialized adapters the engine invokes.
type Intent string

const (
	IntentNASA      Intent = "nasa"
	IntentMars      Intent = "mars"
	IntentMoon      Intent = "moon"
	IntentISS       Intent = "iss"
	IntentSpaceX    Intent = "spacex"
	IntentSatellite Intent = "satellite"
	IntentSolar     Intent = "solar"
	IntentAsteroid  Intent = "asteroid"
	IntentHubble    Intent = "hubble"
	IntentLaunch    Intent = "launch"
	IntentGalaxy    Intent = "galaxy"
	IntentUniverse  Intent = "universe"
	IntentGeneral   Intent = "general"
)

// Analyzed is the immutable result of analyzing one raw query.
type Analyzed struct {
	OriginalText string   `json:"original_text"`
	Keywords     []string `json:"normalized_keywords"`
	Intent       Intent   `json:"intent"`
}

// intentRules is the ordered classification table. The first category whose
// trigger set intersects the keyword list wins, so table order is the
// tie-break and classification stays deterministic when a query matches
// several categories.
var intentRules = []struct {
	intent   Intent
	triggers []string
}{
	{IntentNASA, []string{"nasa", "space", "astronaut"}},
	{IntentMars, []string{"mars", "red", "planet", "rover", "perseverance", "curiosity"}},
	{IntentMoon, []string{"moon", "lunar", "apollo", "artemis"}},
	{IntentISS, []string{"iss", "international", "station"}},
	{IntentSpaceX, []string{"spacex", "falcon", "dragon", "elon", "musk", "starship"}},
	{IntentSatellite, []string{"satellite", "orbit", "gps"}},
	{IntentSolar, []string{"solar", "sun", "system"}},
	{IntentAsteroid, []string{"asteroid", "meteor", "comet"}},
	{IntentHubble, []string{"hubble", "telescope", "image", "webb", "james"}},
	{IntentLaunch, []string{"launch", "rocket", "mission"}},
	{IntentGalaxy, []string{"galaxy", "milky", "way", "star"}},
	{IntentUniverse, []string{"universe", "cosmos", "big", "bang", "black", "hole", "quasar"}},
}

// stopWords are dropped during tokenization.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
		"by", "from", "up", "about", "into", "through", "during", "before",
		"after", "above", "below", "between", "among", "this", "that", "these",
		"those", "all", "any", "each", "few", "more", "most", "other", "some",
		"such", "only", "own", "same", "so", "than", "too", "very", "can",
		"will", "just", "should", "now", "get", "has", "had", "have", "been",
		"being", "was", "were", "are", "is", "am", "be", "do", "does", "did",
		"would", "could", "may", "might", "must", "a", "an", "it", "its",
		"what", "which", "who", "when", "where", "how", "latest", "new", "news",
	} {
		stopWords[w] = struct{}{}
	}
}

var wordRe = regexp.MustCompile(`[a-z]+`)

// Analyze tokenizes, normalizes, and classifies a raw query. It never fails:
// any problem in the token pipeline degrades to a naive whitespace split of
// the raw text rather than an error.
func Analyze(raw string) Analyzed {
	keywords := extractKeywords(raw)
	intent := classify(keywords)
	log.Debug().
		Str("query", raw).
		Strs("keywords", keywords).
		Str("intent", string(intent)).
		Msg("query analyzed")
	return Analyzed{OriginalText: raw, Keywords: keywords, Intent: intent}
}

func extractKeywords(raw string) (keywords []string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("tokenizer failed, using naive split")
			keywords = naiveSplit(raw)
		}
	}()

	lower := foldASCII(strings.ToLower(raw))
	tokens := wordRe.FindAllString(lower, -1)
	if len(tokens) == 0 {
		return naiveSplit(raw)
	}
	for _, tok := range tokens {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		keywords = append(keywords, lemmatize(tok))
	}
	if len(keywords) == 0 {
		return naiveSplit(raw)
	}
	return keywords
}

func naiveSplit(raw string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
}

// foldASCII strips combining marks so accented input still matches the
// ASCII trigger tables.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// lemmaExceptions are words a plural-stripping pass would mangle.
var lemmaExceptions = map[string]struct{}{
	"cosmos": {}, "atlas": {}, "physics": {}, "perseverance": {},
}

// lemmatize reduces a token to a base lexical form with a small English
// suffix pass. It is deliberately conservative: short words and known
// exceptions pass through untouched.
func lemmatize(word string) string {
	if len(word) <= 4 {
		return word
	}
	if _, ok := lemmaExceptions[word]; ok {
		return word
	}
	switch {
	case strings.HasSuffix(word, "ies") && len(word) > 4:
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "shes"), strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "xes"):
		return word[:len(word)-2]
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	}
	return word
}

func classify(keywords []string) Intent {
	if len(keywords) == 0 {
		return IntentGeneral
	}
	set := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		set[kw] = struct{}{}
	}
	for _, rule := range intentRules {
		for _, trig := range rule.triggers {
			if _, ok := set[trig]; ok {
				return rule.intent
			}
		}
	}
	return IntentGeneral
}
