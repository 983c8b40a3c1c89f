package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/cosmoscout/cosmoscout/internal/fetch"
	"github.com/cosmoscout/cosmoscout/internal/query"
	"github.com/cosmoscout/cosmoscout/internal/score"
)

// celestialTerms are topics whose Wikipedia articles exist under the plain
// name, so the query only needs a disambiguating suffix.
var celestialTerms = []string{
	"galaxy", "nebula", "supernova", "pulsar", "exoplanet",
	"constellation", "comet", "asteroid",
}

// bonusTopics get a relevance boost because their encyclopedia articles are
// reliably the best answer for the matching queries.
var bonusTopics = []string{"black hole", "mars rover", "quasar", "galaxy"}

// Wikipedia searches en.wikipedia.org. A search that lands directly on an
// article page is scored far above ordinary search hits.
type Wikipedia struct {
	Client  *fetch.Client
	BaseURL string
}

func (w *Wikipedia) Name() string { return "Wikipedia" }

func (w *Wikipedia) base() string {
	if w.BaseURL != "" {
		return w.BaseURL
	}
	return "https://en.wikipedia.org"
}

// searchTerm reshapes the raw query so Wikipedia's search lands on space
// topics instead of same-named films, bands, and towns.
func (w *Wikipedia) searchTerm(q query.Analyzed) string {
	raw := strings.ToLower(strings.TrimSpace(q.OriginalText))
	switch {
	case strings.Contains(raw, "black hole"):
		return "black hole"
	case strings.Contains(raw, "mars rover"):
		return "Mars rover"
	case strings.Contains(raw, "quasar"):
		return "quasar"
	}
	term := joinKeywords(q)
	for _, c := range celestialTerms {
		if strings.Contains(raw, c) {
			return term + " astronomy astrophysics"
		}
	}
	if !strings.Contains(raw, "space") && !strings.Contains(raw, "astronomy") {
		return term + " space astronomy"
	}
	return term
}

func (w *Wikipedia) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(w.Name(), func() []Article {
		term := w.searchTerm(q)
		searchURL := fmt.Sprintf("%s/w/index.php?search=%s", w.base(), url.QueryEscape(term))
		resp, err := w.Client.Get(ctx, searchURL)
		if err != nil {
			log.Debug().Str("source", w.Name()).Err(err).Msg("search fetch failed")
			return nil
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return nil
		}

		// an exact title match redirects straight to the article
		if strings.Contains(resp.FinalURL, "/wiki/") && !strings.Contains(strings.ToLower(resp.FinalURL), "search") {
			if art, ok := w.directArticle(doc, resp.FinalURL); ok {
				return []Article{art}
			}
		}
		return w.searchResults(ctx, doc, q)
	})
}

func (w *Wikipedia) directArticle(doc *goquery.Document, pageURL string) (Article, bool) {
	title := strings.TrimSpace(doc.Find("h1#firstHeading").First().Text())
	if title == "" {
		return Article{}, false
	}
	var paras []string
	doc.Find("div#mw-content-text p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		t := strings.TrimSpace(p.Text())
		if len(t) > 50 {
			paras = append(paras, t)
		}
		return len(paras) < 3
	})
	desc := strings.Join(paras, " ")
	if desc == "" {
		desc = "Read the full article on Wikipedia."
	}
	return Article{
		Title:       title,
		Link:        pageURL,
		Description: truncate(desc, 500),
		Source:      "Wikipedia",
		Relevance:   9 + w.topicBonus(title),
	}, true
}

func (w *Wikipedia) searchResults(ctx context.Context, doc *goquery.Document, q query.Analyzed) []Article {
	var out []Article
	doc.Find("div.mw-search-result-heading").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		a := h.Find("a").First()
		title := strings.TrimSpace(a.Text())
		href := a.AttrOr("href", "")
		if title == "" || href == "" {
			return true
		}
		link := resolveLink(w.base(), href)
		desc, rel := w.articleSummary(ctx, link, q)
		out = append(out, Article{
			Title:       title,
			Link:        link,
			Description: desc,
			Source:      "Wikipedia",
			Relevance:   rel + w.topicBonus(title),
		})
		return len(out) < 3
	})
	sortByRelevance(out)
	return out
}

// articleSummary fetches the linked article and pulls its lead paragraphs.
// A failed secondary fetch degrades to a canned description, not a miss.
func (w *Wikipedia) articleSummary(ctx context.Context, link string, q query.Analyzed) (string, int) {
	resp, err := w.Client.Get(ctx, link)
	if err != nil {
		return "Read the full article on Wikipedia.", 5
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return "Read the full article on Wikipedia.", 5
	}
	var b strings.Builder
	doc.Find(".mw-parser-output > p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		t := strings.TrimSpace(p.Text())
		if t != "" {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(t)
		}
		return b.Len() < 200
	})
	desc := b.String()
	if desc == "" {
		return "Read the full article on Wikipedia.", 5
	}
	return truncate(desc, 300), score.Score(desc, q.Keywords) + 5
}

func (w *Wikipedia) topicBonus(title string) int {
	lower := strings.ToLower(title)
	for _, t := range bonusTopics {
		if strings.Contains(lower, t) {
			return 3
		}
	}
	return 0
}
