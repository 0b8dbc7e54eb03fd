package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"scout/internal/llm"
	"scout/internal/model"
)

const briefingSystemPrompt = `You are a senior developer writing contribution briefings for newcomers.

Your role is to:
1. Explain the issue and its context clearly
2. Describe the relevant code and how it fits together
3. Propose a concrete, step-by-step implementation plan
4. Warn about pitfalls and testing requirements

Write in clear markdown. Be specific, reference actual file paths, and
assume the reader has never seen this codebase before.`

var prDraftSchema = llm.Schema{
	Name: "pr_draft",
	Fields: []llm.Field{
		{Name: "commit_message", Kind: llm.String, Required: true,
			Description: "conventional commit message, one line"},
		{Name: "pr_title", Kind: llm.String, Required: true},
		{Name: "pr_body", Kind: llm.String, Required: true,
			Description: "markdown body referencing the issue"},
	},
}

// Briefing writes the contribution guide for the selected issue. The
// markdown and PR draft each come from the model with deterministic
// fallbacks; test commands and risk notes are always deterministic.
type Briefing struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// NewBriefing creates the briefing stage. model defaults to the powerful
// model since this stage writes the longest prose.
func NewBriefing(client llm.Client, modelName string, logger *zap.Logger) *Briefing {
	if modelName == "" {
		modelName = llm.DefaultPowerfulModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Briefing{client: client, model: modelName, logger: logger}
}

// briefingContext is the JSON document handed to the model as grounding.
type briefingContext struct {
	Issue     briefIssue      `json:"issue"`
	Repo      model.RepoInfo  `json:"repo"`
	Locations []briefLocation `json:"code_locations"`
	CallTrace []string        `json:"call_trace_hint,omitempty"`
}

type briefIssue struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels"`
	URL    string   `json:"url"`
}

type briefLocation struct {
	Path        string   `json:"path"`
	Symbols     []string `json:"symbols"`
	WhyRelevant string   `json:"why_relevant"`
	Snippet     string   `json:"snippet"`
}

// Run produces the full briefing for the issue using the locate output.
func (b *Briefing) Run(ctx context.Context, repo model.RepoInfo, issue model.Issue, located model.LocateOutput) model.BriefingOutput {
	bctx := briefingContext{
		Issue: briefIssue{
			Number: issue.Number,
			Title:  issue.Title,
			Body:   firstChars(orDefault(issue.Body, "No description"), 2000),
			Labels: issue.Labels,
			URL:    issue.HTMLURL,
		},
		Repo:      repo,
		CallTrace: located.CallTraceHint,
	}
	for _, hit := range located.Hits {
		bctx.Locations = append(bctx.Locations, briefLocation{
			Path:        hit.Path,
			Symbols:     capStrings(hit.Symbols, 5),
			WhyRelevant: hit.WhyRelevant,
			Snippet:     firstChars(hit.Snippet, 1200),
		})
	}

	return model.BriefingOutput{
		BriefingMarkdown: b.writeBriefing(ctx, bctx, issue),
		PRDraft:          b.draftPR(ctx, issue),
		TestCommands:     TestCommands(repo.Languages),
		RiskNotes:        RiskNotes(issue, located.Confidence),
	}
}

func (b *Briefing) writeBriefing(ctx context.Context, bctx briefingContext, issue model.Issue) string {
	contextJSON, err := json.MarshalIndent(bctx, "", "  ")
	if err != nil {
		b.logger.Warn("marshal briefing context failed", zap.Error(err))
		return fallbackBriefing(issue, bctx.Locations)
	}

	prompt := fmt.Sprintf(`Write a contribution briefing for a first-time contributor tackling this issue.

Context:
%s

Structure the briefing as markdown with these sections:
## The Issue
## Where the Code Lives
## Suggested Approach
## Things to Watch Out For
## How to Verify Your Change

Reference actual file paths from the context. Keep it under 800 words.`, contextJSON)

	markdown, err := b.client.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Model:       b.model,
		System:      briefingSystemPrompt,
		Temperature: 0.4,
		MaxTokens:   4096,
	})
	if err != nil || strings.TrimSpace(markdown) == "" {
		b.logger.Warn("briefing generation failed, using minimal briefing",
			zap.Int("issue", issue.Number), zap.Error(err))
		return fallbackBriefing(issue, bctx.Locations)
	}
	return markdown
}

// fallbackBriefing is the deterministic minimal briefing used when the
// gateway is unavailable.
func fallbackBriefing(issue model.Issue, locations []briefLocation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## The Issue\n\nIssue #%d: %s\n\n%s\n\n",
		issue.Number, issue.Title, orDefault(issue.Body, "No description provided."))
	sb.WriteString("## Where the Code Lives\n\n")
	if len(locations) == 0 {
		sb.WriteString("No code locations were identified. Start from the repository README and entry points.\n")
	} else {
		for _, loc := range locations {
			fmt.Fprintf(&sb, "- `%s` - %s\n", loc.Path, orDefault(loc.WhyRelevant, "matched search terms"))
		}
	}
	sb.WriteString("\n## Suggested Approach\n\nRead the files above, reproduce the issue locally, then make the smallest change that fixes it.\n")
	return sb.String()
}

func (b *Briefing) draftPR(ctx context.Context, issue model.Issue) model.PRDraft {
	draft := model.PRDraft{
		BranchName:    BranchName(issue),
		CommitMessage: fmt.Sprintf("fix: resolve issue #%d", issue.Number),
		PRTitle:       "Fix: " + issue.Title,
		PRBody: fmt.Sprintf("Fixes #%d\n\n## Changes\n\n- TBD\n\n## Testing\n\n- TBD",
			issue.Number),
	}

	prompt := fmt.Sprintf(`Draft pull-request content for fixing this issue.

Issue #%d: %s

Description:
%s

The commit message should follow conventional commits. The PR body should
reference the issue with "Fixes #%d" and have Changes and Testing sections.`,
		issue.Number, issue.Title,
		firstChars(orDefault(issue.Body, "No description"), 600),
		issue.Number)

	decoded, err := b.client.CompleteStructured(ctx, llm.Request{
		Prompt:      prompt,
		Model:       b.model,
		System:      briefingSystemPrompt,
		Temperature: 0.3,
		MaxTokens:   600,
	}, prDraftSchema)
	if err != nil {
		b.logger.Warn("pr draft generation failed, using defaults",
			zap.Int("issue", issue.Number), zap.Error(err))
		return draft
	}

	if msg := llm.GetString(decoded, "commit_message", ""); msg != "" {
		draft.CommitMessage = msg
	}
	if title := llm.GetString(decoded, "pr_title", ""); title != "" {
		draft.PRTitle = title
	}
	if body := llm.GetString(decoded, "pr_body", ""); body != "" {
		draft.PRBody = body
	}
	return draft
}

var branchSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// BranchName builds a deterministic branch name from the issue number and
// the first five title words, capped at 50 characters.
func BranchName(issue model.Issue) string {
	words := strings.Fields(strings.ToLower(issue.Title))
	if len(words) > 5 {
		words = words[:5]
	}
	slug := branchSlugPattern.ReplaceAllString(strings.Join(words, "-"), "-")
	slug = strings.Trim(slug, "-")
	name := fmt.Sprintf("fix/%d-%s", issue.Number, slug)
	if len(name) > 50 {
		name = strings.TrimRight(name[:50], "-")
	}
	return name
}

// TestCommands infers how to run the project's tests from its language
// list. The first matching language wins; at most five commands.
func TestCommands(languages []string) []string {
	var commands []string
	for _, lang := range languages {
		switch strings.ToLower(lang) {
		case "python":
			commands = append(commands, "pytest", "pytest -v", "python -m pytest tests/")
		case "javascript", "typescript":
			commands = append(commands, "npm test", "npm run test", "yarn test")
		case "go":
			commands = append(commands, "go test ./...")
		case "rust":
			commands = append(commands, "cargo test")
		case "java":
			commands = append(commands, "mvn test", "gradle test")
		}
		if len(commands) > 0 {
			break
		}
	}
	if len(commands) == 0 {
		commands = []string{"# Check project README for test commands"}
	}
	if len(commands) > 5 {
		commands = commands[:5]
	}
	return commands
}

// RiskNotes derives risk warnings from the locate confidence and issue
// text. The vocabulary is fixed so runs are comparable.
func RiskNotes(issue model.Issue, confidence string) []string {
	var notes []string
	if confidence == "Low" {
		notes = append(notes, "Code location confidence is low - verify the identified files are actually relevant before starting")
	}

	text := strings.ToLower(issue.Title + " " + issue.Body)
	if containsAny(text, "breaking", "deprecate", "migration") {
		notes = append(notes, "May involve breaking changes - check for version compatibility requirements")
	}
	if containsAny(text, "security", "auth", "password", "token") {
		notes = append(notes, "Touches security-sensitive code - extra review will be required")
	}
	if containsAny(text, "database", "schema", "migration") {
		notes = append(notes, "May require database changes - check for migration procedures")
	}

	if len(notes) == 0 {
		notes = []string{"No major risks identified - proceed with standard care"}
	}
	return notes
}

func containsAny(text string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
