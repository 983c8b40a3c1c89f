package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cosmoscout/cosmoscout/internal/fetch"
	"github.com/cosmoscout/cosmoscout/internal/query"
	"github.com/cosmoscout/cosmoscout/internal/score"
)

// spaceFactsTopics maps topic phrases to their page path on space-facts.com.
// Ordered so that more specific topics are checked first when match counts
// tie.
var spaceFactsTopics = []struct {
	topic string
	path  string
}{
	{"mars", "/mars/"},
	{"earth", "/earth/"},
	{"moon", "/the-moon/"},
	{"sun", "/the-sun/"},
	{"mercury", "/mercury/"},
	{"venus", "/venus/"},
	{"jupiter", "/jupiter/"},
	{"saturn", "/saturn/"},
	{"uranus", "/uranus/"},
	{"neptune", "/neptune/"},
	{"pluto", "/pluto/"},
	{"planet", "/planets/"},
	{"solar system", "/solar-system/"},
	{"space", "/"},
}

var titleCaser = cases.Title(language.English)

// SpaceFacts scrapes space-facts.com reference pages. Instead of search it
// routes the query to the best-matching topic page and condenses that
// page's fact table into a single article.
type SpaceFacts struct {
	Client  *fetch.Client
	BaseURL string
}

func (s *SpaceFacts) Name() string { return "Space Facts" }

func (s *SpaceFacts) base() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return "https://space-facts.com"
}

// topicPath picks the topic whose constituent words overlap the keyword
// list the most.
func (s *SpaceFacts) topicPath(q query.Analyzed) (string, string) {
	kw := map[string]bool{}
	for _, k := range q.Keywords {
		kw[strings.ToLower(k)] = true
	}
	bestTopic, bestPath, bestScore := "", "", 0
	for _, t := range spaceFactsTopics {
		n := 0
		for _, w := range strings.Fields(t.topic) {
			if kw[w] {
				n++
			}
		}
		if n > bestScore {
			bestTopic, bestPath, bestScore = t.topic, t.path, n
		}
	}
	if bestScore == 0 {
		return "space", "/"
	}
	return bestTopic, bestPath
}

func (s *SpaceFacts) Fetch(ctx context.Context, q query.Analyzed) []Article {
	return guard(s.Name(), func() []Article {
		topic, path := s.topicPath(q)
		pageURL := s.base() + path
		resp, err := s.Client.Get(ctx, pageURL)
		if err != nil {
			log.Debug().Str("source", s.Name()).Str("url", pageURL).Err(err).Msg("topic page fetch failed")
			return nil
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		if err != nil {
			return nil
		}

		pageTitle := strings.TrimSpace(doc.Find("h1").First().Text())
		if pageTitle == "" {
			pageTitle = titleCaser.String(topic)
		}

		var out []Article
		if facts := collectFacts(doc); len(facts) > 0 {
			out = append(out, Article{
				Title:       fmt.Sprintf("%s Facts", pageTitle),
				Link:        pageURL,
				Description: truncate("Facts: "+strings.Join(facts, " | "), 400),
				Source:      "Space Facts",
				Relevance:   score.Score(pageTitle+" "+strings.Join(facts, " "), q.Keywords) + 1,
			})
		}

		// individual page sections get their own entries with anchor links
		doc.Find("div, section").EachWithBreak(func(_ int, sec *goquery.Selection) bool {
			class := strings.ToLower(sec.AttrOr("class", ""))
			if !strings.Contains(class, "post") && !strings.Contains(class, "entry") && !strings.Contains(class, "content") {
				return true
			}
			sec.Find("h2, h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
				title := strings.TrimSpace(h.Text())
				if title == "" {
					return true
				}
				slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
				out = append(out, Article{
					Title:       truncate(title, 200),
					Link:        pageURL + "#" + slug,
					Description: fmt.Sprintf("Details about %s on the %s page.", strings.ToLower(title), pageTitle),
					Source:      "Space Facts",
					Relevance:   score.Score(title, q.Keywords),
				})
				return len(out) < 3
			})
			return len(out) < 3
		})

		sortByRelevance(out)
		return out
	})
}

// collectFacts reads "name: value" pairs from the page's fact table, then
// longer list items, returning the first five.
func collectFacts(doc *goquery.Document) []string {
	var facts []string
	doc.Find("table tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		name := strings.TrimSpace(tr.Find("th").First().Text())
		val := strings.TrimSpace(tr.Find("td").First().Text())
		if name != "" && val != "" {
			facts = append(facts, name+": "+val)
		}
		return len(facts) < 5
	})
	if len(facts) >= 5 {
		return facts[:5]
	}
	doc.Find("ul li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		t := strings.TrimSpace(li.Text())
		if len(t) > 10 {
			facts = append(facts, t)
		}
		return len(facts) < 5
	})
	if len(facts) > 5 {
		facts = facts[:5]
	}
	return facts
}
