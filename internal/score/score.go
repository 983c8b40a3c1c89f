// Package score implements the keyword relevance scorer shared by every
// source adapter and the fallback knowledge base.
package score

import "strings"

// Score counts how many of the given keywords occur at least once in text,
// case-insensitively. It is pure and deterministic; empty text or an empty
// keyword list scores zero. Repeated occurrences of the same keyword do not
// increase the score. Source-specific bonuses (such as a flat boost for a
// strong topical title match) are adapter policy and live with the adapters.
func Score(text string, keywords []string) int {
	if text == "" || len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
