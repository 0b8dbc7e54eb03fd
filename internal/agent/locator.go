package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"scout/internal/llm"
	"scout/internal/model"
	"scout/internal/search"
	"scout/internal/textutil"
)

const locatorSystemPrompt = `You are an expert at navigating and understanding codebases.

Your role is to:
1. Extract relevant keywords and patterns from issue descriptions
2. Identify which files, functions, and classes need modification
3. Trace code paths and dependencies
4. Provide confidence levels for your findings

Be thorough but focused. Prioritize precision over recall.
When uncertain, indicate lower confidence rather than guessing.`

const (
	maxKeywords        = 10
	maxQueries         = 10
	maxExecutedQueries = 5
	resultsPerQuery    = 10
	maxHitFiles        = 10
	snippetTokenLimit  = 400
)

var queriesSchema = llm.Schema{
	Name: "search_queries",
	Fields: []llm.Field{
		{Name: "queries", Kind: llm.StringList, Required: true,
			Description: "search terms and patterns that locate the relevant code"},
	},
}

var analysisSchema = llm.Schema{
	Name: "code_analysis",
	Fields: []llm.Field{
		{Name: "enhanced_hits", Kind: llm.ObjectList,
			Description: "objects with path and why_relevant"},
		{Name: "call_trace_hint", Kind: llm.StringList},
		{Name: "confidence", Kind: llm.String, Required: true,
			Description: "High, Medium, or Low"},
		{Name: "next_files", Kind: llm.StringList},
	},
}

// Locator finds code relevant to an issue by combining keyword extraction,
// model-suggested queries, and the search engine.
type Locator struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// NewLocator creates the code-location stage.
func NewLocator(client llm.Client, modelName string, logger *zap.Logger) *Locator {
	if modelName == "" {
		modelName = llm.DefaultFastModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{client: client, model: modelName, logger: logger}
}

// Run locates code for the issue in the checkout behind searcher. Gateway
// failures degrade: query suggestions fall back to extracted keywords, and
// the analysis falls back to raw aggregated hits with Medium confidence.
func (l *Locator) Run(ctx context.Context, issue model.Issue, searcher *search.Searcher, fileTree []string) model.LocateOutput {
	keywords := textutil.ExtractKeywords(issue.Title+"\n"+issue.Body, maxKeywords)
	l.logger.Info("extracted keywords", zap.Int("issue", issue.Number), zap.Strings("keywords", keywords))

	strategies := l.suggestQueries(ctx, issue, keywords, fileTree)

	var all []search.Result
	executed := make(map[string]bool)
	for _, query := range strategies {
		if len(executed) >= maxExecutedQueries {
			break
		}
		if query == "" || executed[query] {
			continue
		}
		executed[query] = true
		all = append(all, searcher.Search(ctx, query, search.Options{MaxResults: resultsPerQuery})...)
	}

	hits := searcher.Aggregate(all, maxHitFiles)
	for i := range hits {
		hits[i].Snippet = textutil.TruncateToTokens(hits[i].Snippet, snippetTokenLimit)
	}

	return l.analyze(ctx, issue, hits, keywords, strategies)
}

// suggestQueries asks the model for search queries, always appending the
// extracted keywords so a gateway failure still leaves a usable set.
func (l *Locator) suggestQueries(ctx context.Context, issue model.Issue, keywords, fileTree []string) []string {
	sample := fileTree
	if len(sample) > 30 {
		sample = sample[:30]
	}

	prompt := fmt.Sprintf(`Given this GitHub issue and repository structure, suggest 5-8 specific search queries to find relevant code.

Issue #%d: %s

Description:
%s

Keywords extracted: %s

Sample files in repo:
%s

Include function/class names mentioned or implied, error messages or specific strings, variable/constant names, and file names or patterns.`,
		issue.Number, issue.Title,
		firstChars(orDefault(issue.Body, "No description"), 800),
		strings.Join(keywords, ", "),
		strings.Join(sample, "\n"))

	queries := keywords
	decoded, err := l.client.CompleteStructured(ctx, llm.Request{
		Prompt:      prompt,
		Model:       l.model,
		System:      locatorSystemPrompt,
		Temperature: 0.3,
		MaxTokens:   300,
	}, queriesSchema)
	if err != nil {
		l.logger.Warn("query suggestion failed, using extracted keywords", zap.Error(err))
	} else if suggested := llm.GetStringList(decoded, "queries"); len(suggested) > 0 {
		queries = append(suggested, keywords...)
	}

	return capStrings(queries, maxQueries)
}

// analyze asks the model to rewrite relevance explanations and infer a call
// trace. On failure the raw hits are returned with Medium confidence.
func (l *Locator) analyze(ctx context.Context, issue model.Issue, hits []model.CodeHit, keywords, strategies []string) model.LocateOutput {
	out := model.LocateOutput{
		IssueNumber:    issue.Number,
		Keywords:       keywords,
		SearchStrategy: strategies,
		Hits:           hits,
		Confidence:     "Medium",
	}
	if len(hits) == 0 {
		return out
	}

	var summary strings.Builder
	for i, hit := range hits {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&summary, "\n%d. %s\n   Symbols: %s\n   Snippet preview:\n```\n%s\n```\n",
			i+1, hit.Path, strings.Join(capStrings(hit.Symbols, 5), ", "), firstChars(hit.Snippet, 300))
	}

	prompt := fmt.Sprintf(`Analyze these code search results for issue #%d: %q

Issue description:
%s

Code locations found:
%s

Provide:
1. For each file hit, a specific explanation of WHY it's relevant (enhanced_hits, in the same order)
2. A call trace if you can infer one (call_trace_hint)
3. Your confidence: High (clear match), Medium (likely relevant), or Low (uncertain)
4. 2-3 additional files to check (next_files)`,
		issue.Number, issue.Title,
		firstChars(orDefault(issue.Body, "No description"), 600),
		summary.String())

	decoded, err := l.client.CompleteStructured(ctx, llm.Request{
		Prompt:      prompt,
		Model:       l.model,
		System:      locatorSystemPrompt,
		Temperature: 0.3,
		MaxTokens:   800,
	}, analysisSchema)
	if err != nil {
		l.logger.Warn("hit analysis failed, keeping raw hits",
			zap.Int("issue", issue.Number), zap.Error(err))
		return out
	}

	for i, enhanced := range llm.GetObjectList(decoded, "enhanced_hits") {
		if i >= len(out.Hits) {
			break
		}
		if why := llm.GetString(enhanced, "why_relevant", ""); why != "" {
			out.Hits[i].WhyRelevant = why
		}
	}
	out.CallTraceHint = llm.GetStringList(decoded, "call_trace_hint")
	out.NextFilesToCheck = llm.GetStringList(decoded, "next_files")
	if conf := llm.GetString(decoded, "confidence", ""); conf == "High" || conf == "Medium" || conf == "Low" {
		out.Confidence = conf
	}
	return out
}
