package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeywords(t *testing.T) {
	text := "The user cannot login because of invalid auth token"
	keywords := ExtractKeywords(text, 5)

	assert.LessOrEqual(t, len(keywords), 5)
	assert.Contains(t, keywords, "login")
	assert.Contains(t, keywords, "auth")
	assert.Contains(t, keywords, "token")
	assert.NotContains(t, keywords, "the")
	assert.NotContains(t, keywords, "of")
}

func TestExtractKeywordsFrequencyOrder(t *testing.T) {
	text := "parser parser parser tokenizer tokenizer lexer"
	keywords := ExtractKeywords(text, 3)
	assert.Equal(t, []string{"parser", "tokenizer", "lexer"}, keywords)
}

func TestExtractKeywordsDeterministicTies(t *testing.T) {
	text := "zebra alpha middle"
	first := ExtractKeywords(text, 10)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ExtractKeywords(text, 10))
	}
	// All appear once; ties break alphabetically.
	assert.Equal(t, []string{"alpha", "middle", "zebra"}, first)
}

func TestExtractKeywordsNoDuplicates(t *testing.T) {
	keywords := ExtractKeywords("cache cache Cache CACHE caching", 10)
	seen := make(map[string]bool)
	for _, k := range keywords {
		assert.False(t, seen[k], "duplicate keyword %q", k)
		seen[k] = true
	}
}

func TestExtractKeywordsSkipsShortWords(t *testing.T) {
	keywords := ExtractKeywords("db io fn handler", 10)
	assert.NotContains(t, keywords, "db")
	assert.NotContains(t, keywords, "io")
	assert.Contains(t, keywords, "handler")
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("a", 100)))
}

func TestTruncateToTokensShortTextUnchanged(t *testing.T) {
	s := "short text"
	assert.Equal(t, s, TruncateToTokens(s, 100))
}

func TestTruncateToTokensAddsMarker(t *testing.T) {
	s := strings.Repeat("word ", 1000)
	out := TruncateToTokens(s, 50)
	assert.True(t, strings.HasSuffix(out, "[... truncated]"))
	assert.Less(t, len(out), len(s))
}

func TestTruncateToTokensPrefersSentenceBreak(t *testing.T) {
	// A sentence boundary lands past 80% of the 200-char window.
	s := strings.Repeat("x", 180) + ". " + strings.Repeat("y", 200)
	out := TruncateToTokens(s, 50)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("x", 180)+"."))
	assert.NotContains(t, out, "y")
}

func TestChunkTextSingleChunk(t *testing.T) {
	chunks := ChunkText("small", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "small", chunks[0])
}

func TestChunkTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 200)
	chunks := ChunkText(text, 50, 10)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50*4)
		assert.NotEmpty(t, c)
	}
	// The last chunk reaches the end of the input.
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), chunks[len(chunks)-1]))
}

func TestChunkCode(t *testing.T) {
	var lines []string
	for i := 0; i < 25; i++ {
		lines = append(lines, "line")
	}
	code := strings.Join(lines, "\n")

	chunks := ChunkCode(code, 10, 2)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(strings.Split(c, "\n")), 10)
	}

	single := ChunkCode("one\ntwo", 10, 2)
	assert.Equal(t, []string{"one\ntwo"}, single)
}

func TestFormatCodeContext(t *testing.T) {
	out := FormatCodeContext("pkg/file.go", "first\nsecond\nthird", 10, []int{11})

	assert.Contains(t, out, "## pkg/file.go")
	assert.Contains(t, out, ">>>   11 | second")
	assert.Contains(t, out, "  10 | first")
	assert.True(t, strings.HasSuffix(out, "```"))
}
