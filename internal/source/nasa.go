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

const nasaDescription = "View this NASA article for more information."

// nasaResultSelectors is the layered extraction ladder for nasa.gov result
// and listing pages, most specific first.
var nasaResultSelectors = []string{
	"article",
	"div.search-result, div.search-item, div.news-item, div.article-card",
	".news-content",
	".search-results .item",
	".list-items .item",
	".articles-listing article",
	".grid-item",
}

// NASA scrapes www.nasa.gov search and listing pages.
type NASA struct {
	Client  *fetch.Client
	BaseURL string
}

func (n *NASA) Name() string { return "NASA" }

func (n *NASA) base() string {
	if n.BaseURL != "" {
		return n.BaseURL
	}
	return "https://www.nasa.gov"
}

func (n *NASA) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(n.Name(), func() []Article {
		term := joinKeywords(q)
		candidates := []string{
			fmt.Sprintf("%s/search/%s/", n.base(), url.PathEscape(term)),
			fmt.Sprintf("%s/search/?q=%s", n.base(), url.QueryEscape(term)),
			fmt.Sprintf("%s/?s=%s", n.base(), url.QueryEscape(term)),
			n.base(),
		}

		var doc *goquery.Document
		var pageURL string
		for _, u := range candidates {
			resp, err := n.Client.Get(ctx, u)
			if err != nil {
				log.Debug().Str("source", n.Name()).Str("url", u).Err(err).Msg("candidate url failed")
				continue
			}
			d, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
			if err != nil {
				continue
			}
			doc, pageURL = d, u
			break
		}
		if doc == nil {
			return nil
		}

		blocks := selectCandidates(doc, nasaResultSelectors, 5)
		if len(blocks) == 0 {
			blocks = headingCandidates(doc, 5)
		}

		var out []Article
		for _, b := range blocks {
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
				desc = nasaDescription
			}
			out = append(out, Article{
				Title:       truncate(title, 200),
				Link:        link,
				Description: truncate(desc, 300),
				Source:      "NASA",
				Relevance:   score.Score(title+" "+desc, q.Keywords),
			})
		}
		sortByRelevance(out)
		return out
	})
}
