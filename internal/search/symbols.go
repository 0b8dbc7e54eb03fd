package search

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// symbolPatterns maps file extensions to regex heuristics for function,
// class, and type names. This is intentionally a best-effort signal, not a
// parser; it trades precision for zero setup across languages.
var symbolPatterns = map[string][]*regexp.Regexp{
	".py": {
		regexp.MustCompile(`def\s+(\w+)\s*\(`),
		regexp.MustCompile(`class\s+(\w+)\s*[:\(]`),
	},
	".js": jsPatterns,
	".ts": jsPatterns,
	".jsx": jsPatterns,
	".tsx": jsPatterns,
	".java": javaPatterns,
	".cs":   javaPatterns,
	".go": {
		regexp.MustCompile(`func\s+(?:\([^)]+\)\s+)?(\w+)\s*\(`),
		regexp.MustCompile(`type\s+(\w+)\s+(?:struct|interface)`),
	},
	".rs": {
		regexp.MustCompile(`fn\s+(\w+)\s*[<\(]`),
		regexp.MustCompile(`(?:struct|enum|trait|impl)\s+(\w+)\s*[<{]`),
	},
}

var jsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:function|const|let|var)\s+(\w+)\s*[\(=]`),
	regexp.MustCompile(`class\s+(\w+)\s*[{\(]`),
}

var javaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:public|private|protected)?\s*(?:static)?\s*(?:class|interface|void|int|String|bool)\s+(\w+)\s*[\({]`),
}

// Symbols extracts a sorted, de-duplicated set of identifiers from a file.
// Unrecognized extensions and unreadable files yield an empty set, never an
// error.
func (s *Searcher) Symbols(relPath string) []string {
	patterns, ok := symbolPatterns[strings.ToLower(filepath.Ext(relPath))]
	if !ok {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(s.repoPath, relPath))
	if err != nil {
		return nil
	}
	content := string(data)

	seen := make(map[string]bool)
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			seen[m[1]] = true
		}
	}

	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}
