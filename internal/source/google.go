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

var googleResultSelectors = []string{
	"div.g",
	"div.rc",
	"div.yuRUbf",
	"div.jtfYYd",
}

// Google scrapes the plain HTML results page. Result links pointing back at
// Google's own properties are dropped, except Scholar and Books which host
// real content.
type Google struct {
	Client  *fetch.Client
	BaseURL string
}

func (g *Google) Name() string { return "Google" }

func (g *Google) base() string {
	if g.BaseURL != "" {
		return g.BaseURL
	}
	return "https://www.google.com"
}

func (g *Google) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(g.Name(), func() []Article {
		term := joinKeywords(q)
		raw := strings.ToLower(q.OriginalText)
		if !strings.Contains(raw, "space") && !strings.Contains(raw, "astronomy") && !strings.Contains(raw, "nasa") {
			term += " space astronomy"
		}
		searchURL := fmt.Sprintf("%s/search?q=%s", g.base(), url.QueryEscape(term))
		resp, err := g.Client.Get(ctx, searchURL)
		if err != nil {
			log.Debug().Str("source", g.Name()).Err(err).Msg("search fetch failed")
			return nil
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return nil
		}

		var out []Article
		for _, b := range selectCandidates(doc, googleResultSelectors, 8) {
			title := strings.TrimSpace(b.Find("h3").First().Text())
			if title == "" {
				continue
			}
			link := unwrapGoogleLink(b.Find("a").First().AttrOr("href", ""))
			if link == "" || skipGoogleHost(link) {
				continue
			}
			desc := googleSnippet(b)
			out = append(out, Article{
				Title:       truncate(title, 200),
				Link:        link,
				Description: truncate(desc, 300),
				Source:      fmt.Sprintf("Google (%s)", hostLabel(link)),
				Relevance:   score.Score(title+" "+desc, q.Keywords),
			})
			if len(out) >= 5 {
				break
			}
		}
		sortByRelevance(out)
		return out
	})
}

// unwrapGoogleLink strips the /url?q=... redirect wrapper around result
// links on the no-JS page.
func unwrapGoogleLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("q")
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	return href
}

func skipGoogleHost(link string) bool {
	host := hostLabel(link)
	if !strings.Contains(host, "google.") {
		return false
	}
	return !strings.HasPrefix(host, "scholar.") && !strings.HasPrefix(host, "books.")
}

func googleSnippet(b *goquery.Selection) string {
	for _, sel := range []string{".VwiC3b", ".st", ".aCOpRe"} {
		if t := strings.TrimSpace(b.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return "Find more information on Google."
}
