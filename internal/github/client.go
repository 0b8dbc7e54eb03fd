// Package github implements the repository/issue provider: metadata lookup,
// issue listing with a beginner-label filter, shallow clones into the
// content cache, and file-tree listing.
package github

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"scout/internal/model"
)

// beginnerLabels is the fixed vocabulary used when filtering for
// beginner-friendly issues.
var beginnerLabels = []string{
	"good first issue",
	"good-first-issue",
	"help wanted",
	"help-wanted",
	"beginner",
	"easy",
	"starter",
	"first-timers-only",
}

var repoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`github\.com[/:]([^/]+)/([^/?\s]+)`),
	regexp.MustCompile(`^([^/\s]+)/([^/\s]+)$`),
}

// Client talks to the GitHub API and manages cached clones.
type Client struct {
	api      *gh.Client
	cacheDir string
	logger   *zap.Logger
}

// NewClient creates a provider. token may be empty for anonymous access;
// cacheDir is where shallow clones live.
func NewClient(token, cacheDir string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := gh.NewClient(nil)
	if token != "" {
		api = api.WithAuthToken(token)
	}
	return &Client{api: api, cacheDir: cacheDir, logger: logger}
}

// ParseRepoURL extracts owner and name from a GitHub URL or "owner/repo".
func ParseRepoURL(url string) (owner, name string, err error) {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	for _, p := range repoURLPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], strings.TrimSuffix(m[2], ".git"), nil
		}
	}
	return "", "", fmt.Errorf("invalid GitHub repository URL: %q", url)
}

// Repo fetches repository metadata, including the language breakdown.
func (c *Client) Repo(ctx context.Context, url string) (model.Repo, error) {
	owner, name, err := ParseRepoURL(url)
	if err != nil {
		return model.Repo{}, err
	}

	repo, _, err := c.api.Repositories.Get(ctx, owner, name)
	if err != nil {
		return model.Repo{}, fmt.Errorf("fetch repository %s/%s: %w", owner, name, err)
	}

	// Language breakdown is best-effort; the primary language still comes
	// from the repository record.
	languages, _, err := c.api.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		languages = nil
	}

	return model.Repo{
		FullName:      repo.GetFullName(),
		Description:   repo.GetDescription(),
		DefaultBranch: defaultBranch(repo),
		HTMLURL:       repo.GetHTMLURL(),
		CloneURL:      repo.GetCloneURL(),
		Language:      repo.GetLanguage(),
		Languages:     languages,
		Stars:         repo.GetStargazersCount(),
		OpenIssues:    repo.GetOpenIssuesCount(),
	}, nil
}

func defaultBranch(repo *gh.Repository) string {
	if b := repo.GetDefaultBranch(); b != "" {
		return b
	}
	return "main"
}

// Issues lists open issues. With beginnerOnly, each beginner label is
// queried in turn and results are deduplicated; pull requests are always
// skipped.
func (c *Client) Issues(ctx context.Context, url string, beginnerOnly bool, max int) ([]model.Issue, error) {
	owner, name, err := ParseRepoURL(url)
	if err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 30
	}

	if !beginnerOnly {
		opts := &gh.IssueListByRepoOptions{
			State:       "open",
			Sort:        "updated",
			Direction:   "desc",
			ListOptions: gh.ListOptions{PerPage: max},
		}
		items, _, err := c.api.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("list issues for %s/%s: %w", owner, name, err)
		}
		return convertIssues(items, max), nil
	}

	var all []model.Issue
	seen := make(map[int]bool)
	for _, label := range beginnerLabels {
		if len(all) >= max {
			break
		}
		perPage := max - len(all)
		if perPage > 10 {
			perPage = 10
		}
		opts := &gh.IssueListByRepoOptions{
			State:       "open",
			Labels:      []string{label},
			Sort:        "updated",
			Direction:   "desc",
			ListOptions: gh.ListOptions{PerPage: perPage},
		}
		items, _, err := c.api.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			// One label failing should not sink the whole listing.
			c.logger.Warn("issue listing failed for label",
				zap.String("label", label), zap.Error(err))
			continue
		}
		for _, issue := range convertIssues(items, max-len(all)) {
			if !seen[issue.Number] {
				seen[issue.Number] = true
				all = append(all, issue)
			}
		}
	}
	if len(all) > max {
		all = all[:max]
	}
	return all, nil
}

// Issue fetches one issue by number. Pull requests are rejected.
func (c *Client) Issue(ctx context.Context, url string, number int) (model.Issue, error) {
	owner, name, err := ParseRepoURL(url)
	if err != nil {
		return model.Issue{}, err
	}
	item, _, err := c.api.Issues.Get(ctx, owner, name, number)
	if err != nil {
		return model.Issue{}, fmt.Errorf("fetch issue %s/%s#%d: %w", owner, name, number, err)
	}
	issues := convertIssues([]*gh.Issue{item}, 1)
	if len(issues) == 0 {
		return model.Issue{}, fmt.Errorf("%s/%s#%d is a pull request, not an issue", owner, name, number)
	}
	return issues[0], nil
}

func convertIssues(items []*gh.Issue, max int) []model.Issue {
	var issues []model.Issue
	for _, item := range items {
		if item.IsPullRequest() {
			continue
		}
		labels := make([]string, 0, len(item.Labels))
		for _, l := range item.Labels {
			labels = append(labels, l.GetName())
		}
		issues = append(issues, model.Issue{
			Number:    item.GetNumber(),
			Title:     item.GetTitle(),
			Body:      item.GetBody(),
			URL:       item.GetURL(),
			HTMLURL:   item.GetHTMLURL(),
			Labels:    labels,
			State:     item.GetState(),
			CreatedAt: item.GetCreatedAt().Format(time.RFC3339),
			UpdatedAt: item.GetUpdatedAt().Format(time.RFC3339),
			Comments:  item.GetComments(),
			User:      item.GetUser().GetLogin(),
		})
		if len(issues) >= max {
			break
		}
	}
	return issues
}
