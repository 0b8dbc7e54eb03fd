package search

import (
	"os"
	"path/filepath"
	"strings"
)

// FileContent returns lines [startLine, endLine] of a file, 1-indexed and
// inclusive, clipped to maxLines. endLine <= 0 means to the end of the file.
// Missing files and read failures yield an empty string; malformed encoding
// is substituted, never an error.
func (s *Searcher) FileContent(relPath string, startLine, endLine, maxLines int) string {
	data, err := os.ReadFile(filepath.Join(s.repoPath, relPath))
	if err != nil {
		return ""
	}

	lines := strings.Split(strings.ToValidUTF8(string(data), "�"), "\n")

	start := startLine - 1
	if start < 0 {
		start = 0
	}
	if start >= len(lines) {
		return ""
	}

	end := len(lines)
	if endLine > 0 && endLine < end {
		end = endLine
	}
	if maxLines > 0 && end > start+maxLines {
		end = start + maxLines
	}

	return strings.Join(lines[start:end], "\n")
}
