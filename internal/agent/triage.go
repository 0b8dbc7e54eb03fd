// Package agent holds the three pipeline stages: triage (rank issues),
// locator (find relevant code), and briefing (produce the contribution
// guide). Every stage degrades gracefully when a gateway call fails; a
// deterministic fallback always produces usable output.
package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"scout/internal/llm"
	"scout/internal/model"
	"scout/internal/scoring"
)

const triageSystemPrompt = `You are an expert at evaluating GitHub issues for beginner contributors.

Your role is to:
1. Analyze issue titles, descriptions, and labels
2. Identify issues suitable for first-time contributors
3. Provide clear, actionable reasons why each issue is good for beginners

Be encouraging but honest about difficulty levels.`

var reasonsSchema = llm.Schema{
	Name: "triage_reasons",
	Fields: []llm.Field{
		{Name: "reasons", Kind: llm.StringList, Required: true,
			Description: "3-4 short, specific bullet points, one sentence each"},
	},
}

// Triage ranks issues with the deterministic scorer and asks the model for
// better selection justifications.
type Triage struct {
	client llm.Client
	model  string
	scorer *scoring.Scorer
	logger *zap.Logger
}

// NewTriage creates the triage stage. model defaults to the fast model.
func NewTriage(client llm.Client, modelName string, logger *zap.Logger) *Triage {
	if modelName == "" {
		modelName = llm.DefaultFastModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Triage{
		client: client,
		model:  modelName,
		scorer: &scoring.Scorer{},
		logger: logger,
	}
}

// Run scores and ranks the issues, enhancing each top issue's reasons via
// the gateway. A per-issue gateway failure falls back to the scorer's own
// reason strings.
func (t *Triage) Run(ctx context.Context, repo model.Repo, issues []model.Issue, topN int) model.TriageOutput {
	info := repoInfo(repo)
	if len(issues) == 0 {
		return model.TriageOutput{Repo: info}
	}

	ranked := t.scorer.Rank(issues, topN)

	out := model.TriageOutput{Repo: info}
	for _, r := range ranked {
		out.RankedIssues = append(out.RankedIssues, model.RankedIssue{
			Number:         r.Issue.Number,
			Title:          r.Issue.Title,
			URL:            r.Issue.HTMLURL,
			Labels:         r.Issue.Labels,
			ScoreTotal:     r.Score.Total,
			ScoreBreakdown: r.Score.Breakdown,
			Why:            t.enhanceReasons(ctx, r.Issue, r.Score.Reasons),
		})
	}
	if len(out.RankedIssues) > 0 {
		out.SelectedIssueNumber = out.RankedIssues[0].Number
		t.logger.Info("triage selected issue",
			zap.Int("number", out.SelectedIssueNumber),
			zap.Int("score", out.RankedIssues[0].ScoreTotal))
	}
	return out
}

func (t *Triage) enhanceReasons(ctx context.Context, issue model.Issue, base []string) []string {
	prompt := fmt.Sprintf(`Given this GitHub issue, provide 3-4 concise bullet points explaining why it's suitable for a beginner contributor.

Issue #%d: %s

Description:
%s

Labels: %s

Base analysis notes:
%s

Focus on actionability and encouragement.`,
		issue.Number, issue.Title,
		firstChars(orDefault(issue.Body, "No description"), 1000),
		orDefault(strings.Join(issue.Labels, ", "), "None"),
		"- "+strings.Join(base, "\n- "))

	decoded, err := t.client.CompleteStructured(ctx, llm.Request{
		Prompt:      prompt,
		Model:       t.model,
		System:      triageSystemPrompt,
		Temperature: 0.5,
		MaxTokens:   500,
	}, reasonsSchema)
	if err != nil {
		t.logger.Warn("reason enhancement failed, using scorer reasons",
			zap.Int("issue", issue.Number), zap.Error(err))
		return capStrings(base, 4)
	}

	reasons := llm.GetStringList(decoded, "reasons")
	if len(reasons) == 0 {
		return capStrings(base, 4)
	}
	return capStrings(reasons, 4)
}

// repoInfo summarizes a repository, listing up to five languages by byte
// count descending.
func repoInfo(repo model.Repo) model.RepoInfo {
	langs := make([]string, 0, len(repo.Languages))
	for l := range repo.Languages {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if repo.Languages[langs[i]] != repo.Languages[langs[j]] {
			return repo.Languages[langs[i]] > repo.Languages[langs[j]]
		}
		return langs[i] < langs[j]
	})
	if len(langs) > 5 {
		langs = langs[:5]
	}
	return model.RepoInfo{
		URL:           repo.HTMLURL,
		DefaultBranch: repo.DefaultBranch,
		Description:   repo.Description,
		Languages:     langs,
	}
}

func capStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstChars(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
