// Package knowledge holds the static topic entries served when no live
// source produces results. The entries ship embedded in the binary so the
// service answers something useful even fully offline.
package knowledge

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cosmoscout/cosmoscout/internal/query"
	"github.com/cosmoscout/cosmoscout/internal/source"
)

//go:embed topics.yaml
var topicsYAML []byte

// SourceName labels knowledge-base articles in aggregated output.
const SourceName = "Static Knowledge"

type entry struct {
	Key         string `yaml:"key"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
}

type catalog struct {
	Topics  []entry `yaml:"topics"`
	Default entry   `yaml:"default"`
}

// Base is the loaded topic catalog.
type Base struct {
	topics []entry
	def    entry
}

// Load parses the embedded topic catalog.
func Load() (*Base, error) {
	var c catalog
	if err := yaml.Unmarshal(topicsYAML, &c); err != nil {
		return nil, fmt.Errorf("parse embedded topics: %w", err)
	}
	if c.Default.Title == "" {
		return nil, fmt.Errorf("embedded topics have no default entry")
	}
	return &Base{topics: c.Topics, def: c.Default}, nil
}

// Lookup returns the topic entries matching the analyzed query, or the
// generic default entry when nothing matches. It never returns an empty
// slice.
//
// A topic matches when its key appears in the raw query text, equals the
// classified intent, or shares a word with the keyword list. Matched topics
// score above the generic entry so they survive ranking against it.
func (b *Base) Lookup(q query.Analyzed) []source.Article {
	raw := strings.ToLower(q.OriginalText)
	kw := map[string]bool{}
	for _, k := range q.Keywords {
		kw[strings.ToLower(k)] = true
	}

	var out []source.Article
	for _, e := range b.topics {
		if b.matches(e.Key, raw, string(q.Intent), kw) {
			out = append(out, source.Article{
				Title:       e.Title,
				Link:        e.Link,
				Description: e.Description,
				Source:      SourceName,
				Relevance:   3,
			})
		}
	}
	if len(out) == 0 {
		out = append(out, source.Article{
			Title:       b.def.Title,
			Link:        b.def.Link,
			Description: b.def.Description,
			Source:      SourceName,
			Relevance:   2,
		})
	}
	return out
}

func (b *Base) matches(key, raw, intent string, kw map[string]bool) bool {
	if strings.Contains(raw, key) {
		return true
	}
	if key == intent {
		return true
	}
	for _, w := range strings.Fields(key) {
		if kw[w] {
			return true
		}
	}
	return false
}
