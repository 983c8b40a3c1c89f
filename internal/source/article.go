// Package source contains the article model, the adapter contract, and one
// adapter per external content site. Adapters share fetch, block-detection,
// extraction-layering, and scoring policy; only target URLs, selector
// ladders, base URLs, and canned fallback text differ per site.
package source

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/cosmoscout/cosmoscout/internal/query"
)

// Article is one candidate result produced by a source adapter or the
// fallback knowledge base. Articles are immutable once created; the engine
// ranks and filters them but never mutates them.
type Article struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Relevance   int    `json:"relevance"`
}

// Adapter retrieves candidate articles from one external content source.
// Implementations are total: they never return an error and never let a
// panic escape. Network failures, blocked responses, and markup anomalies
// all degrade to an empty slice.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, q query.Analyzed) []Article
}

// guard converts a panic inside an adapter into an empty result so one
// misbehaving source cannot take down an aggregation pass.
func guard(name string, fn func() []Article) (out []Article) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("source", name).Interface("panic", r).Msg("adapter panic suppressed")
			out = nil
		}
	}()
	return fn()
}
