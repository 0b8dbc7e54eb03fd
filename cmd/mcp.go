package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scout/internal/github"
	"scout/internal/pipeline"
	"scout/internal/search"
	"scout/internal/store"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing issue-ranking and code-location tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	defer logger.Sync()

	orch, err := newOrchestrator(logger)
	if err != nil {
		return err
	}

	provider := github.NewClient(os.Getenv("GITHUB_TOKEN"), store.RepoCacheDir(cacheDir()), logger)

	s := mcpserver.NewMCPServer("scout", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(rankIssuesTool(), makeRankHandler(orch))
	s.AddTool(locateCodeTool(), makeLocateHandler(orch))
	s.AddTool(searchCodeTool(), makeSearchCodeHandler(provider, logger))

	return mcpserver.ServeStdio(s)
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(false),
	OpenWorldHint:   mcp.ToBoolPtr(true),
}

func rankIssuesTool() mcp.Tool {
	return mcp.NewTool("rank_issues",
		mcp.WithDescription("Rank a GitHub repository's open issues for beginner-friendliness. Returns scored issues with per-component breakdowns and selection reasons."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("GitHub repository URL or owner/name"),
		),
		mcp.WithNumber("top",
			mcp.Description("Number of ranked issues to return (default 5)"),
		),
		mcp.WithBoolean("beginner_only",
			mcp.Description("Only consider issues carrying beginner-friendly labels"),
		),
	)
}

func locateCodeTool() mcp.Tool {
	return mcp.NewTool("locate_code",
		mcp.WithDescription("Locate the code behind a GitHub issue. Clones the repository, searches it, and returns ranked file hits with snippets and a confidence level."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("GitHub repository URL or owner/name"),
		),
		mcp.WithNumber("issue",
			mcp.Required(),
			mcp.Description("Issue number to locate code for"),
		),
	)
}

func searchCodeTool() mcp.Tool {
	return mcp.NewTool("search_code",
		mcp.WithDescription("Search a GitHub repository's code for a query string. Clones the repository if needed and returns matching lines with file paths."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("GitHub repository URL or owner/name"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search term, identifier, or pattern"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum matching lines to return (default 50)"),
		),
	)
}

// --- Handler factories ---

func makeRankHandler(orch *pipeline.Orchestrator) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repo := req.GetString("repo", "")
		if repo == "" {
			return mcp.NewToolResultError("repo is required"), nil
		}

		result := orch.RunRank(ctx, repo, pipeline.Options{
			TopN:         req.GetInt("top", 5),
			BeginnerOnly: req.GetBool("beginner_only", false),
		})
		if !result.Success {
			return mcp.NewToolResultError(result.Error), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Ranked issues for %s\n\n", result.Repo.FullName)
		for i, r := range result.Triage.RankedIssues {
			fmt.Fprintf(&sb, "### %d. #%d %s (score %d)\n\n", i+1, r.Number, r.Title, r.ScoreTotal)
			fmt.Fprintf(&sb, "Labels: %s  \nBreakdown: labels %d, clarity %d, activity %d, size %d, risk %d\n\n",
				strings.Join(r.Labels, ", "),
				r.ScoreBreakdown.Labels, r.ScoreBreakdown.Clarity, r.ScoreBreakdown.Activity,
				r.ScoreBreakdown.SizeEstimate, r.ScoreBreakdown.RiskPenalty)
			for _, why := range r.Why {
				fmt.Fprintf(&sb, "- %s\n", why)
			}
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeLocateHandler(orch *pipeline.Orchestrator) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repo := req.GetString("repo", "")
		if repo == "" {
			return mcp.NewToolResultError("repo is required"), nil
		}
		issue := req.GetInt("issue", 0)
		if issue <= 0 {
			return mcp.NewToolResultError("issue is required"), nil
		}

		result := orch.RunLocate(ctx, repo, issue)
		if !result.Success {
			return mcp.NewToolResultError(result.Error), nil
		}

		located := result.Locate
		var sb strings.Builder
		fmt.Fprintf(&sb, "## Code locations for issue #%d (confidence: %s)\n\n", located.IssueNumber, located.Confidence)
		if len(located.Hits) == 0 {
			sb.WriteString("No matching code found. Keywords tried: " + strings.Join(located.Keywords, ", ") + "\n")
		}
		for i, hit := range located.Hits {
			fmt.Fprintf(&sb, "### %d. `%s`\n\n%s\n\n", i+1, hit.Path, hit.WhyRelevant)
			if len(hit.Symbols) > 0 {
				fmt.Fprintf(&sb, "Symbols: %s\n\n", strings.Join(hit.Symbols, ", "))
			}
			fmt.Fprintf(&sb, "```\n%s\n```\n\n", hit.Snippet)
		}
		if len(located.CallTraceHint) > 0 {
			fmt.Fprintf(&sb, "Call trace hint: %s\n", strings.Join(located.CallTraceHint, " -> "))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeSearchCodeHandler(provider *github.Client, logger *zap.Logger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		repo := req.GetString("repo", "")
		query := req.GetString("query", "")
		if repo == "" || query == "" {
			return mcp.NewToolResultError("repo and query are required"), nil
		}
		max := req.GetInt("max_results", 50)

		checkout, err := provider.Clone(ctx, repo)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("clone failed: %v", err)), nil
		}

		results := search.New(checkout, logger).Search(ctx, query, search.Options{MaxResults: max})
		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No results found for query: %q", query)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Search results for %q (%d lines)\n\n", query, len(results))
		for _, r := range results {
			fmt.Fprintf(&sb, "- `%s:%d` %s\n", r.FilePath, r.LineNumber, strings.TrimSpace(r.LineContent))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
