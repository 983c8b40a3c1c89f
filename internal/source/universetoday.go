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

// UniverseToday scrapes universetoday.com, a WordPress site whose search
// results come back as standard post articles.
type UniverseToday struct {
	Client  *fetch.Client
	BaseURL string
}

func (u *UniverseToday) Name() string { return "Universe Today" }

func (u *UniverseToday) base() string {
	if u.BaseURL != "" {
		return u.BaseURL
	}
	return "https://www.universetoday.com"
}

func (u *UniverseToday) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(u.Name(), func() []Article {
		searchURL := fmt.Sprintf("%s/?s=%s", u.base(), url.QueryEscape(joinKeywords(q)))
		resp, err := u.Client.Get(ctx, searchURL)
		if err != nil {
			log.Debug().Str("source", u.Name()).Err(err).Msg("search fetch failed")
			return nil
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return nil
		}

		blocks := selectCandidates(doc, []string{"article.post", "article"}, 5)
		var out []Article
		for _, b := range blocks {
			title := candidateTitle(b)
			if title == "" {
				continue
			}
			desc := strings.TrimSpace(b.Find("p.excerpt").First().Text())
			if desc == "" {
				desc = candidateDescription(b)
			}
			if desc == "" {
				desc = "Read the full story on Universe Today."
			}
			link := resolveLink(u.base(), candidateLink(b))
			if link == "" {
				link = searchURL
			}
			out = append(out, Article{
				Title:       truncate(title, 200),
				Link:        link,
				Description: truncate(desc, 300),
				Source:      "Universe Today",
				Relevance:   score.Score(title+" "+desc, q.Keywords),
			})
		}
		sortByRelevance(out)
		return out
	})
}
