// Package engine runs the full search pass: analyze the query, fan out to
// the scheduled source adapters, merge and rank what comes back, and fall
// back to the static knowledge base when every live source is empty.
package engine

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cosmoscout/cosmoscout/internal/fetch"
	"github.com/cosmoscout/cosmoscout/internal/knowledge"
	"github.com/cosmoscout/cosmoscout/internal/query"
	"github.com/cosmoscout/cosmoscout/internal/source"
)

// ErrEmptyQuery reports a blank search request.
var ErrEmptyQuery = errors.New("empty query")

// MaxResults caps the ranked result list in a response.
const MaxResults = 10

// Scheduled pairs an adapter with its run conditions. An adapter with no
// Intents runs for every query; otherwise it runs only when the classified
// intent is listed. MaxSoFar skips the adapter once that many results have
// been gathered when the run list is assembled.
type Scheduled struct {
	Adapter source.Adapter
	Intents []query.Intent
	// MaxSoFar is checked against the result count at list-build time,
	// which is before any adapter has run. The condition therefore always
	// holds and the adapter always runs; the knob is kept because dropping
	// it would silently change which sources broad queries reach, and
	// evaluating it live under the concurrent fan-out would make the run
	// list depend on adapter timing.
	MaxSoFar int
}

// DefaultSchedule is the production adapter lineup, in merge order.
// Precision sources come first; homepage fallbacks come last.
func DefaultSchedule(client *fetch.Client) []Scheduled {
	return []Scheduled{
		{Adapter: &source.Wikipedia{Client: client}},
		{Adapter: &source.Google{Client: client}},
		{Adapter: &source.NASA{Client: client}},
		{Adapter: &source.SpaceCom{Client: client}},
		{Adapter: &source.NASAScience{Client: client}, Intents: []query.Intent{query.IntentSolar, query.IntentGalaxy, query.IntentUniverse, query.IntentAsteroid}},
		{Adapter: &source.SpaceFacts{Client: client}, Intents: []query.Intent{query.IntentSolar, query.IntentMars, query.IntentMoon, query.IntentAsteroid}},
		{Adapter: &source.Astrogeology{Client: client}, Intents: []query.Intent{query.IntentMars, query.IntentMoon, query.IntentAsteroid}},
		{Adapter: &source.SpaceX{Client: client}, Intents: []query.Intent{query.IntentSpaceX, query.IntentLaunch}},
		{Adapter: &source.NASAHomepage{Client: client}, MaxSoFar: 3},
		{Adapter: &source.UniverseToday{Client: client}, MaxSoFar: 5},
	}
}

// SourcesInfo summarizes which sources participated in a search pass.
type SourcesInfo struct {
	Queried      []string       `json:"sources_queried"`
	WithResults  []string       `json:"sources_with_results"`
	ResultCounts map[string]int `json:"result_counts"`
}

// Response is the complete outcome of one search pass.
type Response struct {
	QueryInfo  query.Analyzed   `json:"query_info"`
	Results    []source.Article `json:"results"`
	TotalFound int              `json:"total_found"`
	Sources    SourcesInfo      `json:"sources_info"`
}

// Engine coordinates one search pass per Handle call. Safe for concurrent
// use.
type Engine struct {
	Schedule []Scheduled
	KB       *knowledge.Base
	// Timeout bounds the whole fan-out. Zero means 30s.
	Timeout time.Duration
}

func (e *Engine) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return 30 * time.Second
}

// Handle runs a search pass for raw. It returns ErrEmptyQuery for blank
// input; any other internal failure degrades to a minimal valid response
// rather than an error.
func (e *Engine) Handle(ctx context.Context, raw string) (resp *Response, err error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyQuery
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("query", raw).Msg("search pass panicked, serving degraded response")
			resp, err = degraded(raw), nil
		}
	}()

	q := query.Analyze(raw)
	log.Info().Str("query", raw).Str("intent", string(q.Intent)).Strs("keywords", q.Keywords).Msg("search pass")

	run := e.runList(q)

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	slots := make([][]source.Article, len(run))
	g, gctx := errgroup.WithContext(ctx)
	for i, ad := range run {
		g.Go(func() error {
			slots[i] = fetchGuarded(gctx, ad, q)
			return nil
		})
	}
	_ = g.Wait()

	counts := map[string]int{}
	var queried, withResults []string
	var merged []source.Article
	for i, ad := range run {
		queried = append(queried, ad.Name())
		if len(slots[i]) > 0 {
			counts[ad.Name()] = len(slots[i])
			withResults = append(withResults, ad.Name())
			merged = append(merged, slots[i]...)
		}
	}

	if len(merged) == 0 {
		log.Warn().Str("query", raw).Msg("no live results, using knowledge base")
		merged = e.KB.Lookup(q)
		queried = append(queried, knowledge.SourceName)
		withResults = append(withResults, knowledge.SourceName)
		counts[knowledge.SourceName] = len(merged)
	}

	ranked := rank(merged)
	total := len(ranked)
	if len(ranked) > MaxResults {
		ranked = ranked[:MaxResults]
	}

	return &Response{
		QueryInfo:  q,
		Results:    ranked,
		TotalFound: total,
		Sources: SourcesInfo{
			Queried:      queried,
			WithResults:  withResults,
			ResultCounts: counts,
		},
	}, nil
}

// fetchGuarded contains a panicking adapter inside its own goroutine so it
// contributes an empty slot instead of taking down the batch. The recover
// in Handle cannot catch this: it runs on the caller's goroutine.
func fetchGuarded(ctx context.Context, ad source.Adapter, q query.Analyzed) (out []source.Article) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("source", ad.Name()).Interface("panic", r).Msg("adapter panicked, dropping its results")
			out = nil
		}
	}()
	return ad.Fetch(ctx, q)
}

// runList assembles the adapters to invoke for this query. Gates are
// evaluated here, before any adapter runs.
func (e *Engine) runList(q query.Analyzed) []source.Adapter {
	// nothing has run yet, so MaxSoFar compares against zero
	const gathered = 0
	var run []source.Adapter
	for _, s := range e.Schedule {
		if len(s.Intents) > 0 && !intentListed(q.Intent, s.Intents) {
			continue
		}
		if s.MaxSoFar > 0 && gathered >= s.MaxSoFar {
			continue
		}
		run = append(run, s.Adapter)
	}
	return run
}

func intentListed(intent query.Intent, list []query.Intent) bool {
	for _, i := range list {
		if i == intent {
			return true
		}
	}
	return false
}

// rank orders articles by relevance, highest first, then removes duplicate
// titles. The sort is stable, so among equal-relevance articles the merge
// order of the schedule decides, and the surviving copy of a duplicated
// title is its highest-relevance occurrence.
func rank(items []source.Article) []source.Article {
	ranked := make([]source.Article, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})

	// exact-title dedup: titles differing in case are distinct results
	seen := map[string]bool{}
	out := ranked[:0]
	for _, a := range ranked {
		if seen[a.Title] {
			continue
		}
		seen[a.Title] = true
		out = append(out, a)
	}
	return out
}

// degraded is the response of last resort when the pass itself fails.
func degraded(raw string) *Response {
	q := query.Analyzed{
		OriginalText: raw,
		Keywords:     strings.Fields(strings.ToLower(raw)),
		Intent:       query.IntentGeneral,
	}
	art := source.Article{
		Title:       "Cosmic Explorer Information",
		Link:        "#",
		Description: "We are experiencing technical difficulties. Please try again later.",
		Source:      "System",
		Relevance:   1,
	}
	return &Response{
		QueryInfo:  q,
		Results:    []source.Article{art},
		TotalFound: 1,
		Sources: SourcesInfo{
			Queried:      []string{"System"},
			WithResults:  []string{"System"},
			ResultCounts: map[string]int{"System": 1},
		},
	}
}
