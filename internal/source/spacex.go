package source

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/cosmoscout/cosmoscout/internal/fetch"
	"github.com/cosmoscout/cosmoscout/internal/query"
	"github.com/cosmoscout/cosmoscout/internal/score"
)

// SpaceX scrapes the spacex.com homepage. The site has no search, so the
// top marketing sections stand in for results.
type SpaceX struct {
	Client  *fetch.Client
	BaseURL string
}

func (s *SpaceX) Name() string { return "SpaceX" }

func (s *SpaceX) base() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return "https://www.spacex.com"
}

func (s *SpaceX) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(s.Name(), func() []Article {
		resp, err := s.Client.Get(ctx, s.base())
		if err != nil {
			log.Debug().Str("source", s.Name()).Err(err).Msg("homepage fetch failed")
			return nil
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return nil
		}

		var out []Article
		doc.Find("section").EachWithBreak(func(_ int, sec *goquery.Selection) bool {
			title := firstHeading(sec, []string{"h1", "h2", "h3"})
			if len(title) <= 5 {
				return true
			}
			desc := candidateDescription(sec)
			if desc == "" {
				desc = "See the latest missions and vehicles on SpaceX.com."
			}
			out = append(out, Article{
				Title:       truncate(title, 200),
				Link:        s.base(),
				Description: truncate(desc, 300),
				Source:      "SpaceX",
				Relevance:   score.Score(title+" "+desc, q.Keywords) + 1,
			})
			return len(out) < 3
		})
		return out
	})
}
