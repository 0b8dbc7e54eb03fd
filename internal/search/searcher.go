// Package search finds code relevant to an issue. It prefers ripgrep when
// the binary is available and falls back to an in-process line scanner on
// any runtime failure, so a search never errors out because of the backend.
package search

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result is a single matching line.
type Result struct {
	FilePath    string
	LineNumber  int
	LineContent string
	MatchText   string
}

// Options control a search. The zero value means case-insensitive, no glob
// filter, and the default result cap.
type Options struct {
	FilePatterns  []string
	MaxResults    int
	CaseSensitive bool
}

const (
	defaultMaxResults = 50
	ripgrepTimeout    = 30 * time.Second
	// maxScanLine guards the scanner against minified single-line files.
	maxScanLine = 1 << 20
)

// excludedDirs are never searched: VCS metadata and build artifacts.
var excludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	".venv":        true,
	"venv":         true,
}

// Searcher searches a single repository checkout. The ripgrep binary is
// detected once at construction.
type Searcher struct {
	repoPath string
	rgPath   string
	logger   *zap.Logger
}

// New creates a Searcher rooted at repoPath.
func New(repoPath string, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		repoPath: repoPath,
		rgPath:   detectRipgrep(),
		logger:   logger,
	}
}

// HasRipgrep reports whether the fast strategy is available.
func (s *Searcher) HasRipgrep() bool { return s.rgPath != "" }

// disableRipgrep forces the scanner strategy; used by tests.
func (s *Searcher) disableRipgrep() { s.rgPath = "" }

func detectRipgrep() string {
	path, err := exec.LookPath("rg")
	if err != nil {
		return ""
	}
	if err := exec.Command(path, "--version").Run(); err != nil {
		return ""
	}
	return path
}

// Search returns matching lines for query, capped at opts.MaxResults.
// Ripgrep failures of any kind fall back to the scanner; they never
// propagate to the caller.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) []Result {
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}

	if s.rgPath != "" {
		results, err := s.searchRipgrep(ctx, query, opts)
		if err == nil {
			return results
		}
		s.logger.Warn("ripgrep search failed, falling back to scanner",
			zap.String("query", query), zap.Error(err))
	}
	return s.searchScanner(query, opts)
}

// SearchMultiple runs each query with a per-query result cap and returns
// results keyed by query.
func (s *Searcher) SearchMultiple(ctx context.Context, queries []string, opts Options) map[string][]Result {
	out := make(map[string][]Result, len(queries))
	for _, q := range queries {
		out[q] = s.Search(ctx, q, opts)
	}
	return out
}

func (s *Searcher) searchRipgrep(ctx context.Context, query string, opts Options) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, ripgrepTimeout)
	defer cancel()

	args := []string{"--json", "-n"}
	if !opts.CaseSensitive {
		args = append(args, "-i")
	}
	args = append(args, "-m", strconv.Itoa(opts.MaxResults))
	for _, p := range opts.FilePatterns {
		args = append(args, "-g", p)
	}
	for dir := range excludedDirs {
		args = append(args, "--glob", "!"+dir)
	}
	args = append(args, "--", query, s.repoPath)

	out, err := exec.CommandContext(ctx, s.rgPath, args...).Output()
	if err != nil {
		// Exit status 1 means no matches, which is a valid empty result.
		if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 && ctx.Err() == nil {
			return nil, nil
		}
		return nil, err
	}

	var results []Result
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var event rgEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		if event.Type != "match" {
			continue
		}
		path := event.Data.Path.Text
		if rel, err := filepath.Rel(s.repoPath, path); err == nil {
			path = filepath.ToSlash(rel)
		}
		results = append(results, Result{
			FilePath:    path,
			LineNumber:  event.Data.LineNumber,
			LineContent: strings.TrimSpace(event.Data.Lines.Text),
			MatchText:   query,
		})
		if len(results) >= opts.MaxResults {
			break
		}
	}
	return results, nil
}

// rgEvent is the subset of ripgrep's --json stream we consume.
type rgEvent struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		LineNumber int `json:"line_number"`
		Lines      struct {
			Text string `json:"text"`
		} `json:"lines"`
	} `json:"data"`
}

func (s *Searcher) searchScanner(query string, opts Options) []Result {
	pattern := compileQuery(query, opts.CaseSensitive)

	var results []Result
	filepath.WalkDir(s.repoPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] && path != s.repoPath {
				return filepath.SkipDir
			}
			return nil
		}
		if len(results) >= opts.MaxResults {
			return filepath.SkipAll
		}
		if !matchesPatterns(d.Name(), opts.FilePatterns) {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return nil
		}
		defer f.Close()

		rel, err := filepath.Rel(s.repoPath, path)
		if err != nil {
			rel = path
		}

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 64*1024), maxScanLine)
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			line := scanner.Text()
			if !pattern.MatchString(line) {
				continue
			}
			results = append(results, Result{
				FilePath:    filepath.ToSlash(rel),
				LineNumber:  lineNum,
				LineContent: strings.TrimSpace(line),
				MatchText:   query,
			})
			if len(results) >= opts.MaxResults {
				break
			}
		}
		return nil
	})
	return results
}

// compileQuery compiles the query as a regular expression. Invalid pattern
// syntax is escaped and matched as a literal substring instead of failing.
func compileQuery(query string, caseSensitive bool) *regexp.Regexp {
	prefix := "(?i)"
	if caseSensitive {
		prefix = ""
	}
	if re, err := regexp.Compile(prefix + query); err == nil {
		return re
	}
	return regexp.MustCompile(prefix + regexp.QuoteMeta(query))
}

func matchesPatterns(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

