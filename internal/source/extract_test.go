package source

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestSelectCandidatesPrefersEarlierSelectors(t *testing.T) {
	doc := docFrom(t, `
		<div class="search-result"><h2>First</h2></div>
		<div class="grid-item"><h2>Ignored</h2></div>`)
	got := selectCandidates(doc, []string{"article", "div.search-result", ".grid-item"}, 5)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if title := candidateTitle(got[0]); title != "First" {
		t.Fatalf("expected the first matching selector's block, got title %q", title)
	}
}

func TestSelectCandidatesCapsAtMax(t *testing.T) {
	doc := docFrom(t, `<article><h2>a</h2></article><article><h2>b</h2></article><article><h2>c</h2></article>`)
	got := selectCandidates(doc, []string{"article"}, 2)
	if len(got) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(got))
	}
}

func TestHeadingCandidatesFindsContainersWithLinks(t *testing.T) {
	doc := docFrom(t, `
		<div class="promo"><h2>Linked Story</h2><a href="/story">read</a></div>
		<div class="bare"><h2>No Link Here</h2></div>
		<article><span><h3>Nested Story</h3></span><a href="/nested">go</a></article>`)
	got := headingCandidates(doc, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates with links, got %d", len(got))
	}
}

func TestHeadingCandidatesDeduplicatesContainers(t *testing.T) {
	doc := docFrom(t, `<div><h2>One</h2><h3>Two</h3><a href="/x">x</a></div>`)
	got := headingCandidates(doc, 5)
	if len(got) != 1 {
		t.Fatalf("same container reached from two headings should appear once, got %d", len(got))
	}
}

func TestCandidateTitleFallsBackToClassHint(t *testing.T) {
	doc := docFrom(t, `<div class="item"><span class="entry-title">Hinted</span></div>`)
	sel := doc.Find("div.item")
	if title := candidateTitle(sel); title != "Hinted" {
		t.Fatalf("got %q", title)
	}
}

func TestCandidateLinkPrefersAnchorWrappingHeading(t *testing.T) {
	doc := docFrom(t, `<div><a href="/plain">x</a><a href="/headline"><h2>T</h2></a></div>`)
	if link := candidateLink(doc.Find("div").First()); link != "/headline" {
		t.Fatalf("got %q", link)
	}
}

func TestCandidateDescriptionClassHint(t *testing.T) {
	doc := docFrom(t, `<div><span class="post-summary">A short summary.</span></div>`)
	if d := candidateDescription(doc.Find("div").First()); d != "A short summary." {
		t.Fatalf("got %q", d)
	}
}

func TestResolveLink(t *testing.T) {
	cases := []struct {
		base, href, want string
	}{
		{"https://www.nasa.gov", "/news/item", "https://www.nasa.gov/news/item"},
		{"https://www.nasa.gov", "https://other.example/x", "https://other.example/x"},
		{"https://www.nasa.gov/search/", "item", "https://www.nasa.gov/search/item"},
		{"https://www.nasa.gov", "", ""},
	}
	for _, c := range cases {
		if got := resolveLink(c.base, c.href); got != c.want {
			t.Errorf("resolveLink(%q, %q) = %q, want %q", c.base, c.href, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcde..." {
		t.Fatalf("got %q", got)
	}
	// must not cut inside a multi-byte rune
	if got := truncate("ééééé", 5); !strings.HasSuffix(got, "...") || !strings.HasPrefix(got, "éé") {
		t.Fatalf("got %q", got)
	}
	// a cut landing right after a rune's lead byte must drop the whole rune
	if got := truncate("aé", 2); got != "a..." {
		t.Fatalf("got %q", got)
	}
	for cut := 1; cut < len("héliosphère"); cut++ {
		if got := truncate("héliosphère", cut); !utf8.ValidString(got) {
			t.Fatalf("truncate at %d produced invalid UTF-8: %q", cut, got)
		}
	}
}

func TestSortByRelevanceStableDescending(t *testing.T) {
	items := []Article{
		{Title: "low", Relevance: 1},
		{Title: "high-a", Relevance: 5},
		{Title: "high-b", Relevance: 5},
	}
	sortByRelevance(items)
	if items[0].Title != "high-a" || items[1].Title != "high-b" || items[2].Title != "low" {
		t.Fatalf("unexpected order: %v", items)
	}
}
