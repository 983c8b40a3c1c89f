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

var astrogeologySelectors = []string{
	".item",
	".product-item",
	".result-item",
}

// Astrogeology scrapes the USGS Astrogeology Science Center, which carries
// planetary surface maps and mission data products.
type Astrogeology struct {
	Client  *fetch.Client
	BaseURL string
}

func (a *Astrogeology) Name() string { return "USGS Astrogeology" }

func (a *Astrogeology) base() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return "https://astrogeology.usgs.gov"
}

func (a *Astrogeology) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(a.Name(), func() []Article {
		searchURL := fmt.Sprintf("%s/search/results?q=%s", a.base(), url.QueryEscape(joinKeywords(q)))
		resp, err := a.Client.Get(ctx, searchURL)
		if err != nil {
			log.Debug().Str("source", a.Name()).Err(err).Msg("search fetch failed")
			return a.homepageFallback(ctx)
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return a.homepageFallback(ctx)
		}

		var out []Article
		for _, b := range selectCandidates(doc, astrogeologySelectors, 5) {
			title := firstHeading(b, []string{"h2", "h3", "h4", "h5"})
			if title == "" {
				title = strings.TrimSpace(b.Find(".title").First().Text())
			}
			if title == "" {
				continue
			}
			link := resolveLink(a.base(), candidateLink(b))
			if link == "" {
				link = searchURL
			}
			desc := candidateDescription(b)
			if desc == "" {
				desc = "View planetary mapping data from USGS Astrogeology."
			}
			out = append(out, Article{
				Title:       truncate(title, 200),
				Link:        link,
				Description: truncate(desc, 300),
				Source:      "USGS Astrogeology",
				Relevance:   score.Score(title+" "+desc, q.Keywords),
			})
		}
		if len(out) == 0 {
			return a.homepageFallback(ctx)
		}
		sortByRelevance(out)
		return out
	})
}

func (a *Astrogeology) homepageFallback(ctx context.Context) []Article {
	resp, err := a.Client.Get(ctx, a.base())
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil
	}
	var out []Article
	for _, b := range selectCandidates(doc, []string{".featured", ".highlight", ".carousel-item"}, 3) {
		title := candidateTitle(b)
		if title == "" {
			continue
		}
		link := resolveLink(a.base(), candidateLink(b))
		if link == "" {
			link = a.base()
		}
		out = append(out, Article{
			Title:       truncate(title, 200),
			Link:        link,
			Description: "View planetary mapping data from USGS Astrogeology.",
			Source:      "USGS Astrogeology",
			Relevance:   2,
		})
	}
	return out
}
