package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"scout/internal/model"
	"scout/internal/pipeline"
)

const timeRound = 100 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	scoreStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("111"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func printProgress(state pipeline.State, detail string) {
	switch state {
	case pipeline.Completed:
		return
	case pipeline.Failed:
		fmt.Println(errorStyle.Render("✗ " + detail))
	default:
		line := state.String()
		if detail != "" {
			line += " (" + detail + ")"
		}
		fmt.Println(dimStyle.Render("• " + line))
	}
}

func renderTriage(t model.TriageOutput) string {
	var sb strings.Builder
	sb.WriteString("\n" + titleStyle.Render("Ranked issues") + "\n")
	if t.Repo.Description != "" {
		sb.WriteString(subtitleStyle.Render(t.Repo.Description) + "\n")
	}
	sb.WriteString("\n")

	for i, r := range t.RankedIssues {
		marker := "  "
		if r.Number == t.SelectedIssueNumber {
			marker = successStyle.Render("▶ ")
		}
		fmt.Fprintf(&sb, "%s%s #%d %s\n", marker,
			scoreStyle.Render(fmt.Sprintf("[%3d]", r.ScoreTotal)), r.Number, r.Title)
		if len(r.Labels) > 0 {
			sb.WriteString("       " + dimStyle.Render(strings.Join(r.Labels, ", ")) + "\n")
		}
		for _, why := range r.Why {
			sb.WriteString("       - " + why + "\n")
		}
		if i < len(t.RankedIssues)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func renderLocate(l model.LocateOutput) string {
	var sb strings.Builder
	sb.WriteString("\n" + titleStyle.Render(fmt.Sprintf("Code locations for #%d", l.IssueNumber)) + "\n")
	sb.WriteString(subtitleStyle.Render("Confidence: "+l.Confidence) + "\n\n")

	if len(l.Hits) == 0 {
		sb.WriteString(warnStyle.Render("No matching code found.") + "\n")
		sb.WriteString(dimStyle.Render("Keywords tried: "+strings.Join(l.Keywords, ", ")) + "\n")
		return sb.String()
	}

	for i, hit := range l.Hits {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, pathStyle.Render(hit.Path))
		sb.WriteString("   " + hit.WhyRelevant + "\n")
		if len(hit.Symbols) > 0 {
			sb.WriteString("   " + dimStyle.Render("Symbols: "+strings.Join(hit.Symbols, ", ")) + "\n")
		}
	}
	if len(l.CallTraceHint) > 0 {
		sb.WriteString("\n" + dimStyle.Render("Call trace: "+strings.Join(l.CallTraceHint, " -> ")) + "\n")
	}
	if len(l.NextFilesToCheck) > 0 {
		sb.WriteString(dimStyle.Render("Also check: "+strings.Join(l.NextFilesToCheck, ", ")) + "\n")
	}
	return sb.String()
}

func renderBriefing(b model.BriefingOutput) string {
	var sb strings.Builder
	sb.WriteString("\n" + titleStyle.Render("Contribution briefing") + "\n\n")
	sb.WriteString(renderMarkdown(b.BriefingMarkdown))

	sb.WriteString("\n" + titleStyle.Render("PR draft") + "\n")
	fmt.Fprintf(&sb, "  Branch:  %s\n", b.PRDraft.BranchName)
	fmt.Fprintf(&sb, "  Commit:  %s\n", b.PRDraft.CommitMessage)
	fmt.Fprintf(&sb, "  Title:   %s\n", b.PRDraft.PRTitle)

	sb.WriteString("\n" + titleStyle.Render("Verify with") + "\n")
	for _, cmd := range b.TestCommands {
		sb.WriteString("  " + cmd + "\n")
	}

	sb.WriteString("\n" + titleStyle.Render("Risk notes") + "\n")
	for _, note := range b.RiskNotes {
		sb.WriteString("  " + warnStyle.Render("!") + " " + note + "\n")
	}
	return sb.String()
}

// renderMarkdown pretty-prints markdown for the terminal, falling back to
// the raw text when the renderer cannot be built.
func renderMarkdown(markdown string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
