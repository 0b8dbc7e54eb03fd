// Package model holds the shared data types that flow between pipeline
// stages. Stage outputs are handed by value from one stage to the next;
// nothing here is mutated after construction except CodeHit.WhyRelevant,
// which the locator's analysis step may rewrite.
package model

// Issue is an immutable snapshot of a GitHub issue, fetched once per run.
type Issue struct {
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	URL       string   `json:"url"`
	HTMLURL   string   `json:"html_url"`
	Labels    []string `json:"labels"`
	State     string   `json:"state"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
	Comments  int      `json:"comments"`
	User      string   `json:"user,omitempty"`
}

// Repo is repository metadata as returned by the provider.
type Repo struct {
	FullName      string         `json:"full_name"`
	Description   string         `json:"description,omitempty"`
	DefaultBranch string         `json:"default_branch"`
	HTMLURL       string         `json:"html_url"`
	CloneURL      string         `json:"clone_url"`
	Language      string         `json:"language,omitempty"`
	Languages     map[string]int `json:"languages,omitempty"`
	Stars         int            `json:"stargazers_count"`
	OpenIssues    int            `json:"open_issues_count"`
}

// ScoreBreakdown is the per-component score for an issue. Each component
// stays within its documented range: labels 0-25, clarity 0-20, activity
// 0-15, size estimate 0-20, risk penalty -20-0.
type ScoreBreakdown struct {
	Labels       int `json:"labels"`
	Clarity      int `json:"clarity"`
	Activity     int `json:"activity"`
	SizeEstimate int `json:"size_estimate"`
	RiskPenalty  int `json:"risk_penalty"`
}

// RankedIssue is an issue with its score and selection justification.
type RankedIssue struct {
	Number         int            `json:"number"`
	Title          string         `json:"title"`
	URL            string         `json:"url"`
	Labels         []string       `json:"labels"`
	ScoreTotal     int            `json:"score_total"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
	Why            []string       `json:"why"`
}

// RepoInfo is the compact repository summary carried in stage outputs.
type RepoInfo struct {
	URL           string   `json:"url"`
	DefaultBranch string   `json:"default_branch"`
	Description   string   `json:"description,omitempty"`
	Languages     []string `json:"languages,omitempty"`
}

// TriageOutput is the result of the triage stage.
type TriageOutput struct {
	Repo                RepoInfo      `json:"repo"`
	RankedIssues        []RankedIssue `json:"ranked_issues"`
	SelectedIssueNumber int           `json:"selected_issue_number"`
}

// CodeHit is one located file with context.
type CodeHit struct {
	Path        string   `json:"path"`
	Symbols     []string `json:"symbols"`
	Snippet     string   `json:"snippet"`
	WhyRelevant string   `json:"why_relevant"`
}

// LocateOutput is the result of the code-location stage.
type LocateOutput struct {
	IssueNumber      int       `json:"issue_number"`
	Keywords         []string  `json:"keywords"`
	SearchStrategy   []string  `json:"search_strategy"`
	Hits             []CodeHit `json:"hits"`
	CallTraceHint    []string  `json:"call_trace_hint"`
	Confidence       string    `json:"confidence"`
	NextFilesToCheck []string  `json:"next_files_to_check"`
}

// PRDraft is suggested pull-request content.
type PRDraft struct {
	BranchName    string `json:"branch_name"`
	CommitMessage string `json:"commit_message"`
	PRTitle       string `json:"pr_title"`
	PRBody        string `json:"pr_body"`
}

// BriefingOutput is the result of the briefing stage.
type BriefingOutput struct {
	BriefingMarkdown string   `json:"briefing_markdown"`
	PRDraft          PRDraft  `json:"pr_draft"`
	TestCommands     []string `json:"test_commands"`
	RiskNotes        []string `json:"risk_notes"`
}

// RunRecord is the append-only record persisted once per run.
type RunRecord struct {
	Timestamp       string          `json:"timestamp"`
	RepoURL         string          `json:"repo_url"`
	SelectedIssue   int             `json:"selected_issue"`
	Triage          *TriageOutput   `json:"triage,omitempty"`
	Locate          *LocateOutput   `json:"locate,omitempty"`
	Briefing        *BriefingOutput `json:"briefing,omitempty"`
	DurationSeconds float64         `json:"duration_seconds"`
	Error           string          `json:"error,omitempty"`
}
