package source

import (
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/cosmoscout/cosmoscout/internal/query"
)

// joinKeywords renders the analyzed query back into a search term. Falls
// back to the raw text for queries that produced no keywords.
func joinKeywords(q query.Analyzed) string {
	if len(q.Keywords) == 0 {
		return strings.TrimSpace(q.OriginalText)
	}
	return strings.Join(q.Keywords, " ")
}

// defaultHeadings are the tags tried, in order, when pulling a candidate
// block's title.
var defaultHeadings = []string{"h1", "h2", "h3", "h4"}

// selectCandidates tries each selector in order and returns the blocks
// matched by the first selector that yields anything, capped at max.
// External sites restructure their markup without notice, so adapters carry
// a ladder of known layouts rather than a single selector.
func selectCandidates(doc *goquery.Document, selectors []string, max int) []*goquery.Selection {
	for _, sel := range selectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return splitSelection(found, max)
		}
	}
	return nil
}

// headingCandidates is the universal last-resort strategy: scan heading
// elements and climb at most three ancestor levels looking for a container
// element that also holds a link. It trades precision for resilience when
// every known selector has gone stale.
func headingCandidates(doc *goquery.Document, max int) []*goquery.Selection {
	seen := map[*html.Node]struct{}{}
	var out []*goquery.Selection
	doc.Find("h1, h2, h3, h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		parent := h.Parent()
		for depth := 0; depth < 3 && parent.Length() > 0; depth++ {
			switch goquery.NodeName(parent) {
			case "div", "article", "section":
				if parent.Find("a").Length() > 0 {
					node := parent.Get(0)
					if _, dup := seen[node]; !dup {
						seen[node] = struct{}{}
						out = append(out, parent)
					}
				}
			default:
				parent = parent.Parent()
				continue
			}
			break
		}
		return len(out) < max
	})
	return out
}

func splitSelection(sel *goquery.Selection, max int) []*goquery.Selection {
	var out []*goquery.Selection
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = append(out, s)
		return len(out) < max
	})
	return out
}

// firstHeading returns the text of the first heading-like element present
// in the block, trying tags in the given order.
func firstHeading(s *goquery.Selection, tags []string) string {
	for _, tag := range tags {
		if t := strings.TrimSpace(s.Find(tag).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// candidateTitle extracts a block's title: first heading element, then any
// element whose class hints at a title.
func candidateTitle(s *goquery.Selection) string {
	if t := firstHeading(s, defaultHeadings); t != "" {
		return t
	}
	return textByClassHint(s, []string{"title", "heading", "header"})
}

// candidateLink returns the block's most relevant href: the first anchor
// with one, unless a later anchor wraps a heading, which wins outright.
func candidateLink(s *goquery.Selection) string {
	best := ""
	s.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return true
		}
		if best == "" {
			best = href
		}
		if a.Find("h1, h2, h3").Length() > 0 {
			best = href
			return false
		}
		return true
	})
	return best
}

// candidateDescription extracts a block's description: first paragraph,
// then any element whose class hints at summary content.
func candidateDescription(s *goquery.Selection) string {
	if d := strings.TrimSpace(s.Find("p").First().Text()); d != "" {
		return d
	}
	return textByClassHint(s, []string{"desc", "summary", "content", "excerpt"})
}

func textByClassHint(s *goquery.Selection, hints []string) string {
	found := ""
	s.Find("div, span").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		class := strings.ToLower(el.AttrOr("class", ""))
		for _, hint := range hints {
			if strings.Contains(class, hint) {
				if t := strings.TrimSpace(el.Text()); t != "" {
					found = t
					return false
				}
			}
		}
		return true
	})
	return found
}

// resolveLink normalizes href to an absolute URL against the source's base.
func resolveLink(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	hu, err := url.Parse(href)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
	}
	return bu.ResolveReference(hu).String()
}

// hostLabel extracts a bare domain name for source attribution.
func hostLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "website"
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

func sortByRelevance(items []Article) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Relevance > items[j].Relevance
	})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	// drop any partial rune left at the cut point
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size > 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
