package textutil

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// stopwords are filtered out of keyword extraction.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "must": true, "shall": true, "can": true, "need": true,
	"dare": true, "ought": true, "used": true, "to": true, "of": true,
	"in": true, "for": true, "on": true, "with": true, "at": true, "by": true,
	"from": true, "as": true, "into": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true,
	"between": true, "under": true, "again": true, "further": true,
	"then": true, "once": true, "here": true, "there": true, "when": true,
	"where": true, "why": true, "how": true, "all": true, "each": true,
	"few": true, "more": true, "most": true, "other": true, "some": true,
	"such": true, "no": true, "nor": true, "not": true, "only": true,
	"own": true, "same": true, "so": true, "than": true, "too": true,
	"very": true, "just": true, "and": true, "but": true, "if": true,
	"or": true, "because": true, "until": true, "while": true, "it": true,
	"this": true, "that": true, "these": true, "those": true, "i": true,
	"we": true, "you": true, "he": true, "she": true, "they": true,
	"what": true, "which": true, "who": true, "whom": true, "am": true,
}

var wordPattern = regexp.MustCompile(`\b[a-zA-Z_][a-zA-Z0-9_]{2,}\b`)

// ExtractKeywords pulls identifier-shaped words out of text, filters
// stopwords, and returns up to max keywords ranked by frequency. Ties
// break alphabetically so the result is deterministic.
func ExtractKeywords(text string, max int) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	for _, w := range words {
		if !stopwords[w] {
			counts[w]++
		}
	}

	keywords := make([]string, 0, len(counts))
	for w := range counts {
		keywords = append(keywords, w)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if counts[keywords[i]] != counts[keywords[j]] {
			return counts[keywords[i]] > counts[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > max {
		keywords = keywords[:max]
	}
	return keywords
}

// FormatCodeContext renders content as a numbered listing under a file
// header, marking highlight lines with ">>>".
func FormatCodeContext(path, content string, startLine int, highlights []int) string {
	marked := make(map[int]bool, len(highlights))
	for _, h := range highlights {
		marked[h] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n```\n", path)
	for i, line := range strings.Split(content, "\n") {
		n := startLine + i
		marker := "    "
		if marked[n] {
			marker = ">>> "
		}
		fmt.Fprintf(&b, "%s%4d | %s\n", marker, n, line)
	}
	b.WriteString("```")
	return b.String()
}
