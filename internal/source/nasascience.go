package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/cosmoscout/cosmoscout/internal/fetch"
	"github.com/cosmoscout/cosmoscout/internal/query"
	"github.com/cosmoscout/cosmoscout/internal/score"
)

var nasaScienceSelectors = []string{
	"article",
	".search-result",
	".result-item",
}

// NASAScience scrapes science.nasa.gov, which covers astrophysics and
// planetary science topics the main portal treats lightly.
type NASAScience struct {
	Client  *fetch.Client
	BaseURL string
}

func (n *NASAScience) Name() string { return "NASA Science" }

func (n *NASAScience) base() string {
	if n.BaseURL != "" {
		return n.BaseURL
	}
	return "https://science.nasa.gov"
}

func (n *NASAScience) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(n.Name(), func() []Article {
		term := joinKeywords(q)
		candidates := []string{
			fmt.Sprintf("%s/search/%s/", n.base(), url.PathEscape(term)),
			fmt.Sprintf("%s/?s=%s", n.base(), url.QueryEscape(term)),
		}
		for _, u := range candidates {
			resp, err := n.Client.Get(ctx, u)
			if err != nil {
				log.Debug().Str("source", n.Name()).Str("url", u).Err(err).Msg("candidate url failed")
				continue
			}
			doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
			if err != nil {
				continue
			}
			if out := n.extract(doc, u, q); len(out) > 0 {
				return out
			}
		}
		return n.homepageFallback(ctx)
	})
}

func (n *NASAScience) extract(doc *goquery.Document, pageURL string, q query.Analyzed) []Article {
	var out []Article
	for _, b := range selectCandidates(doc, nasaScienceSelectors, 5) {
		title := candidateTitle(b)
		if title == "" {
			continue
		}
		link := resolveLink(n.base(), candidateLink(b))
		if link == "" {
			link = pageURL
		}
		desc := candidateDescription(b)
		if desc == "" {
			desc = "Explore this topic on NASA Science."
		}
		out = append(out, Article{
			Title:       truncate(title, 200),
			Link:        link,
			Description: truncate(desc, 300),
			Source:      "NASA Science",
			Relevance:   score.Score(title+" "+desc, q.Keywords),
		})
	}
	sortByRelevance(out)
	return out
}

func (n *NASAScience) homepageFallback(ctx context.Context) []Article {
	resp, err := n.Client.Get(ctx, n.base())
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil
	}
	var out []Article
	for _, b := range selectCandidates(doc, []string{".featured-content", ".nasa-card"}, 3) {
		title := candidateTitle(b)
		if title == "" {
			continue
		}
		link := resolveLink(n.base(), candidateLink(b))
		if link == "" {
			link = n.base()
		}
		out = append(out, Article{
			Title:       truncate(title, 200),
			Link:        link,
			Description: "Explore this topic on NASA Science.",
			Source:      "NASA Science",
			Relevance:   2,
		})
	}
	return out
}
