package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo lays out a small checkout and returns a scanner-only Searcher
// so tests do not depend on a ripgrep binary.
func newTestRepo(t *testing.T, files map[string]string) *Searcher {
	t.Helper()
	root := t.TempDir()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	s := New(root, nil)
	s.disableRipgrep()
	return s
}

func TestSearchScannerFindsMatches(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"auth.py": "import os\n\ndef validate_token(token):\n    return token is not None\n",
	})

	results := s.Search(context.Background(), "token", Options{})
	require.NotEmpty(t, results)
	assert.Equal(t, "auth.py", results[0].FilePath)
	assert.Equal(t, 3, results[0].LineNumber)
	assert.Contains(t, results[0].LineContent, "validate_token")
}

func TestSearchScannerSingleHitExactLine(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"notes.txt": "alpha\nbeta\nFoo bar\ngamma\n",
	})

	results := s.Search(context.Background(), "foo", Options{})
	require.Len(t, results, 1)
	assert.Equal(t, 3, results[0].LineNumber)
	assert.Equal(t, "notes.txt", results[0].FilePath)
}

func TestSearchCaseInsensitiveByDefault(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"main.go": "func HandleLogin() {}\n",
	})

	assert.NotEmpty(t, s.Search(context.Background(), "handlelogin", Options{}))
	assert.Empty(t, s.Search(context.Background(), "handlelogin", Options{CaseSensitive: true}))
}

func TestSearchInvalidRegexFallsBackToLiteral(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"parse.go": "match := re.find(x[1)\n",
	})

	results := s.Search(context.Background(), "x[1", Options{})
	require.Len(t, results, 1)
	assert.Equal(t, "parse.go", results[0].FilePath)
}

func TestSearchSkipsExcludedDirs(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"src/app.js":            "const secret = 1\n",
		"node_modules/dep.js":   "const secret = 2\n",
		".git/objects/blob.txt": "secret\n",
	})

	results := s.Search(context.Background(), "secret", Options{})
	require.Len(t, results, 1)
	assert.Equal(t, "src/app.js", results[0].FilePath)
}

func TestSearchRespectsFilePatterns(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"a.py": "needle\n",
		"b.go": "needle\n",
	})

	results := s.Search(context.Background(), "needle", Options{FilePatterns: []string{"*.py"}})
	require.Len(t, results, 1)
	assert.Equal(t, "a.py", results[0].FilePath)
}

func TestSearchCapsResults(t *testing.T) {
	content := ""
	for i := 0; i < 20; i++ {
		content += "needle\n"
	}
	s := newTestRepo(t, map[string]string{"big.txt": content})

	results := s.Search(context.Background(), "needle", Options{MaxResults: 5})
	assert.Len(t, results, 5)
}

func TestSearchMultiple(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"f.go": "alpha\nbeta\n",
	})

	out := s.SearchMultiple(context.Background(), []string{"alpha", "beta", "missing"}, Options{})
	assert.Len(t, out["alpha"], 1)
	assert.Len(t, out["beta"], 1)
	assert.Empty(t, out["missing"])
}

func TestFileContentClipping(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"f.txt": "one\ntwo\nthree\nfour\nfive",
	})

	assert.Equal(t, "two\nthree", s.FileContent("f.txt", 2, 3, 0))
	assert.Equal(t, "one\ntwo\nthree\nfour\nfive", s.FileContent("f.txt", 1, 0, 0))
	assert.Equal(t, "one\ntwo", s.FileContent("f.txt", 0, 0, 2))
	assert.Equal(t, "", s.FileContent("f.txt", 99, 0, 0))
	assert.Equal(t, "", s.FileContent("missing.txt", 1, 10, 0))
}

func TestSymbolsPython(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"app.py": "class UserManager:\n    def create_user(self):\n        pass\n\ndef main():\n    pass\n",
	})

	assert.Equal(t, []string{"UserManager", "create_user", "main"}, s.Symbols("app.py"))
}

func TestSymbolsGo(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"svc.go": "type Server struct{}\n\nfunc (s *Server) Start() error { return nil }\n\nfunc NewServer() *Server { return nil }\n",
	})

	assert.Equal(t, []string{"NewServer", "Server", "Start"}, s.Symbols("svc.go"))
}

func TestSymbolsUnknownExtension(t *testing.T) {
	s := newTestRepo(t, map[string]string{"data.csv": "a,b,c\n"})
	assert.Empty(t, s.Symbols("data.csv"))
	assert.Empty(t, s.Symbols("missing.py"))
}

func TestAggregateRanksByMatchCount(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"hot.py":  "def a():\n    pass\ndef b():\n    pass\ndef c():\n    pass\n",
		"cold.py": "def d():\n    pass\n",
	})

	results := []Result{
		{FilePath: "cold.py", LineNumber: 1},
		{FilePath: "hot.py", LineNumber: 1},
		{FilePath: "hot.py", LineNumber: 3},
		{FilePath: "hot.py", LineNumber: 5},
	}

	hits := s.Aggregate(results, 10)
	require.Len(t, hits, 2)
	assert.Equal(t, "hot.py", hits[0].Path)
	assert.Contains(t, hits[0].WhyRelevant, "3 matches")
	assert.Contains(t, hits[0].Symbols, "a")
	assert.NotEmpty(t, hits[0].Snippet)
	assert.Equal(t, "cold.py", hits[1].Path)
}

func TestAggregateTiesKeepFirstSeenOrder(t *testing.T) {
	s := newTestRepo(t, map[string]string{
		"first.txt":  "x\n",
		"second.txt": "x\n",
	})

	results := []Result{
		{FilePath: "first.txt", LineNumber: 1},
		{FilePath: "second.txt", LineNumber: 1},
	}
	hits := s.Aggregate(results, 10)
	require.Len(t, hits, 2)
	assert.Equal(t, "first.txt", hits[0].Path)
	assert.Equal(t, "second.txt", hits[1].Path)
}

func TestAggregateTopK(t *testing.T) {
	s := newTestRepo(t, nil)
	results := []Result{
		{FilePath: "a", LineNumber: 1},
		{FilePath: "b", LineNumber: 1},
		{FilePath: "c", LineNumber: 1},
	}
	assert.Len(t, s.Aggregate(results, 2), 2)
	assert.Empty(t, s.Aggregate(nil, 5))
}
