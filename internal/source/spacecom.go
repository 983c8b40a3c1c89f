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

const spaceComDescription = "Visit Space.com for more information on this space-related topic."

var spaceComSelectors = []string{
	"article",
	".search-result",
	".result-item",
	".listingResult",
}

// SpaceCom scrapes space.com search results, falling back to the featured
// articles on the homepage when the search page yields nothing usable.
type SpaceCom struct {
	Client  *fetch.Client
	BaseURL string
}

func (s *SpaceCom) Name() string { return "Space.com" }

func (s *SpaceCom) base() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return "https://www.space.com"
}

func (s *SpaceCom) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(s.Name(), func() []Article {
		searchURL := fmt.Sprintf("%s/search?q=%s", s.base(), url.QueryEscape(joinKeywords(q)))
		resp, err := s.Client.Get(ctx, searchURL)
		if err != nil {
			log.Debug().Str("source", s.Name()).Err(err).Msg("search fetch failed")
			return s.homepageFallback(ctx, q)
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return s.homepageFallback(ctx, q)
		}

		var out []Article
		for _, b := range selectCandidates(doc, spaceComSelectors, 5) {
			title := candidateTitle(b)
			if title == "" || strings.EqualFold(strings.TrimSpace(title), "Search") {
				continue
			}
			desc := candidateDescription(b)
			if desc == "" || strings.Contains(strings.ToLower(desc), "enter your search term") {
				desc = spaceComDescription
			}
			link := resolveLink(s.base(), candidateLink(b))
			if link == "" {
				link = searchURL
			}
			rel := score.Score(title+" "+desc, q.Keywords)
			// the search page often echoes chrome blocks with zero overlap;
			// keep them only when nothing better has turned up
			if rel > 0 || len(out) == 0 {
				out = append(out, Article{
					Title:       truncate(title, 200),
					Link:        link,
					Description: truncate(desc, 300),
					Source:      "Space.com",
					Relevance:   rel,
				})
			}
		}
		if len(out) == 0 {
			return s.homepageFallback(ctx, q)
		}
		sortByRelevance(out)
		return out
	})
}

func (s *SpaceCom) homepageFallback(ctx context.Context, q query.Analyzed) []Article {
	resp, err := s.Client.Get(ctx, s.base())
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil
	}
	blocks := selectCandidates(doc, []string{"article", ".featured-article", ".list-item"}, 3)
	if len(blocks) == 0 {
		blocks = headingCandidates(doc, 3)
	}
	var out []Article
	for _, b := range blocks {
		title := candidateTitle(b)
		if title == "" {
			continue
		}
		link := resolveLink(s.base(), candidateLink(b))
		if link == "" {
			link = s.base()
		}
		out = append(out, Article{
			Title:       truncate(title, 200),
			Link:        link,
			Description: spaceComDescription,
			Source:      "Space.com",
			Relevance:   1,
		})
	}
	return out
}
