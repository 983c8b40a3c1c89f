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

const nasaHomeDescription = "Visit NASA for the latest space news and information."

// NASAHomepage pulls whatever is featured on www.nasa.gov right now. It is
// a low-precision fallback that keeps broad queries from coming back empty.
type NASAHomepage struct {
	Client  *fetch.Client
	BaseURL string
}

func (n *NASAHomepage) Name() string { return "NASA Homepage" }

func (n *NASAHomepage) base() string {
	if n.BaseURL != "" {
		return n.BaseURL
	}
	return "https://www.nasa.gov"
}

func (n *NASAHomepage) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(n.Name(), func() []Article {
		resp, err := n.Client.Get(ctx, n.base())
		if err != nil {
			log.Debug().Str("source", n.Name()).Err(err).Msg("homepage fetch failed")
			return nil
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return nil
		}

		blocks := selectCandidates(doc, []string{"article", ".ubernode", ".grid-item"}, 3)
		if len(blocks) == 0 {
			blocks = headingCandidates(doc, 3)
		}
		var out []Article
		for _, b := range blocks {
			title := candidateTitle(b)
			if title == "" {
				continue
			}
			link := resolveLink(n.base(), candidateLink(b))
			if link == "" {
				link = n.base()
			}
			desc := candidateDescription(b)
			if desc == "" {
				desc = nasaHomeDescription
			}
			out = append(out, Article{
				Title:       truncate(title, 200),
				Link:        link,
				Description: truncate(desc, 300),
				Source:      "NASA",
				Relevance:   score.Score(title+" "+desc, q.Keywords),
			})
		}
		return out
	})
}
