package search

import (
	"fmt"
	"sort"

	"scout/internal/model"
)

const (
	snippetLeadLines  = 5
	snippetTrailLines = 10
	snippetMaxLines   = 100
	maxSymbolsPerHit  = 10
)

// Aggregate groups raw search results by file, ranks files by match count
// descending (ties keep first-seen order), and returns up to topK hits with
// a bounded context window around the matched lines as the snippet.
func (s *Searcher) Aggregate(results []Result, topK int) []model.CodeHit {
	type fileGroup struct {
		path  string
		lines []int
		order int
	}

	groups := make(map[string]*fileGroup)
	var ordered []*fileGroup
	for _, r := range results {
		g, ok := groups[r.FilePath]
		if !ok {
			g = &fileGroup{path: r.FilePath, order: len(ordered)}
			groups[r.FilePath] = g
			ordered = append(ordered, g)
		}
		g.lines = append(g.lines, r.LineNumber)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].lines) > len(ordered[j].lines)
	})
	if topK > 0 && len(ordered) > topK {
		ordered = ordered[:topK]
	}

	hits := make([]model.CodeHit, 0, len(ordered))
	for _, g := range ordered {
		first, last := g.lines[0], g.lines[0]
		for _, n := range g.lines {
			if n < first {
				first = n
			}
			if n > last {
				last = n
			}
		}

		start := first - snippetLeadLines
		if start < 1 {
			start = 1
		}

		symbols := s.Symbols(g.path)
		if len(symbols) > maxSymbolsPerHit {
			symbols = symbols[:maxSymbolsPerHit]
		}

		hits = append(hits, model.CodeHit{
			Path:        g.path,
			Symbols:     symbols,
			Snippet:     s.FileContent(g.path, start, last+snippetTrailLines, snippetMaxLines),
			WhyRelevant: fmt.Sprintf("Contains %d matches for search terms", len(g.lines)),
		})
	}
	return hits
}
