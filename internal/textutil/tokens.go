// Package textutil provides token estimation, truncation, chunking, and
// keyword extraction for building LLM prompts from issue and code text.
package textutil

import "strings"

// charsPerToken is the rough heuristic for English text and source code.
const charsPerToken = 4

// EstimateTokens returns an approximate token count for s.
func EstimateTokens(s string) int {
	return len(s) / charsPerToken
}

// TruncateToTokens truncates s so it fits within maxTokens, preferring a
// clean break at a paragraph or sentence boundary when one falls past 80%
// of the limit. Truncated text ends with a marker.
func TruncateToTokens(s string, maxTokens int) string {
	maxChars := maxTokens * charsPerToken
	if len(s) <= maxChars {
		return s
	}

	truncated := s[:maxChars]

	if i := strings.LastIndex(truncated, "\n\n"); i > maxChars*8/10 {
		return truncated[:i] + "\n\n[... truncated]"
	}
	if i := strings.LastIndex(truncated, ". "); i > maxChars*8/10 {
		return truncated[:i+1] + "\n\n[... truncated]"
	}
	return truncated + "\n\n[... truncated]"
}

// ChunkText splits text into overlapping chunks of at most maxTokens,
// preferring paragraph breaks, then sentence breaks, then word breaks.
func ChunkText(text string, maxTokens, overlapTokens int) []string {
	maxChars := maxTokens * charsPerToken
	overlapChars := overlapTokens * charsPerToken

	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + maxChars
		if end < len(text) {
			window := text[start:end]
			if i := strings.LastIndex(window, "\n\n"); i > maxChars/2 {
				end = start + i + 2
			} else if i := strings.LastIndex(window, ". "); i > maxChars/2 {
				end = start + i + 2
			} else if i := strings.LastIndex(window, " "); i > 0 {
				end = start + i + 1
			}
		} else {
			end = len(text)
		}

		chunks = append(chunks, strings.TrimSpace(text[start:end]))
		if end >= len(text) {
			break
		}
		start = end - overlapChars
	}
	return chunks
}

// ChunkCode splits source code into chunks of at most maxLines with
// overlapLines of overlap between consecutive chunks.
func ChunkCode(code string, maxLines, overlapLines int) []string {
	lines := strings.Split(code, "\n")
	if len(lines) <= maxLines {
		return []string{code}
	}

	var chunks []string
	start := 0
	for start < len(lines) {
		end := start + maxLines
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, strings.Join(lines[start:end], "\n"))
		if end >= len(lines) {
			break
		}
		start = end - overlapLines
	}
	return chunks
}
