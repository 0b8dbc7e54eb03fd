// Package pipeline coordinates the three stages end to end: fetch, triage,
// locate, brief. Provider and gateway failures before the stages fail the
// run; stage-internal gateway failures never do, because every stage
// degrades to a deterministic fallback.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"scout/internal/agent"
	"scout/internal/llm"
	"scout/internal/model"
	"scout/internal/search"
	"scout/internal/store"
)

// State identifies where a run currently is. States advance monotonically;
// a run ends in Completed or Failed.
type State int

const (
	Idle State = iota
	FetchingMetadata
	FetchingIssues
	Cloning
	StageTriage
	StageLocate
	StageBrief
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FetchingMetadata:
		return "fetching repository metadata"
	case FetchingIssues:
		return "fetching issues"
	case Cloning:
		return "cloning repository"
	case StageTriage:
		return "ranking issues"
	case StageLocate:
		return "locating relevant code"
	case StageBrief:
		return "writing briefing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Provider supplies repository data. *github.Client satisfies it; tests use
// fakes.
type Provider interface {
	Repo(ctx context.Context, url string) (model.Repo, error)
	Issues(ctx context.Context, url string, beginnerOnly bool, max int) ([]model.Issue, error)
	Issue(ctx context.Context, url string, number int) (model.Issue, error)
	Clone(ctx context.Context, url string) (string, error)
	FileTree(root string) ([]string, error)
}

// Options configure a run.
type Options struct {
	TopN         int
	MaxIssues    int
	BeginnerOnly bool
	// IssueNumber pins the target issue instead of taking the top-ranked one.
	IssueNumber int
}

// Result is the outcome of a run. Error is set only when Success is false.
type Result struct {
	Success     bool
	Error       string
	Repo        model.Repo
	Issues      []model.Issue
	TargetIssue *model.Issue
	Triage      *model.TriageOutput
	Locate      *model.LocateOutput
	Briefing    *model.BriefingOutput
	Duration    time.Duration
}

// Orchestrator wires the provider, the gateway, and the run store together.
type Orchestrator struct {
	provider      Provider
	client        llm.Client
	fastModel     string
	powerfulModel string
	runs          *store.RunStore
	logger        *zap.Logger
	notify        func(State, string)
	now           func() time.Time
}

// New creates an orchestrator. runs may be nil to skip persistence; notify
// may be nil to skip progress reporting.
func New(provider Provider, client llm.Client, fastModel, powerfulModel string, runs *store.RunStore, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		provider:      provider,
		client:        client,
		fastModel:     fastModel,
		powerfulModel: powerfulModel,
		runs:          runs,
		logger:        logger,
		now:           time.Now,
	}
}

// Notify installs a progress observer. The callback runs synchronously on
// the run's goroutine.
func (o *Orchestrator) Notify(fn func(State, string)) { o.notify = fn }

func (o *Orchestrator) report(s State, detail string) {
	o.logger.Info("pipeline state", zap.String("state", s.String()), zap.String("detail", detail))
	if o.notify != nil {
		o.notify(s, detail)
	}
}

// Run executes the full pipeline against repoURL.
func (o *Orchestrator) Run(ctx context.Context, repoURL string, opts Options) Result {
	start := o.now()
	result := o.run(ctx, repoURL, opts)
	result.Duration = o.now().Sub(start)

	if result.Success {
		o.report(Completed, "")
	} else {
		o.report(Failed, result.Error)
	}

	o.persist(repoURL, result)
	return result
}

func (o *Orchestrator) run(ctx context.Context, repoURL string, opts Options) Result {
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.MaxIssues <= 0 {
		opts.MaxIssues = 30
	}

	var result Result

	o.report(FetchingMetadata, repoURL)
	repo, err := o.provider.Repo(ctx, repoURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Repo = repo

	o.report(FetchingIssues, repo.FullName)
	issues, err := o.provider.Issues(ctx, repoURL, opts.BeginnerOnly, opts.MaxIssues)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Issues = issues

	if len(issues) == 0 {
		if opts.BeginnerOnly {
			result.Error = "no open issues with beginner-friendly labels found; retry without the beginner filter"
		} else {
			result.Error = "no open issues found"
		}
		return result
	}

	o.report(Cloning, repo.FullName)
	checkout, err := o.provider.Clone(ctx, repoURL)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	fileTree, err := o.provider.FileTree(checkout)
	if err != nil {
		o.logger.Warn("file tree listing failed", zap.Error(err))
		fileTree = nil
	}

	o.report(StageTriage, fmt.Sprintf("%d issues", len(issues)))
	triage := agent.NewTriage(o.client, o.fastModel, o.logger).Run(ctx, repo, issues, opts.TopN)
	result.Triage = &triage

	target, err := o.resolveTarget(ctx, repoURL, issues, triage, opts.IssueNumber)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.TargetIssue = &target

	o.report(StageLocate, fmt.Sprintf("issue #%d", target.Number))
	searcher := search.New(checkout, o.logger)
	located := agent.NewLocator(o.client, o.fastModel, o.logger).Run(ctx, target, searcher, fileTree)
	result.Locate = &located

	o.report(StageBrief, fmt.Sprintf("issue #%d", target.Number))
	briefing := agent.NewBriefing(o.client, o.powerfulModel, o.logger).Run(ctx, triage.Repo, target, located)
	result.Briefing = &briefing

	result.Success = true
	return result
}

// resolveTarget picks the issue to work on: an explicit number when given,
// otherwise the triage selection.
func (o *Orchestrator) resolveTarget(ctx context.Context, repoURL string, issues []model.Issue, triage model.TriageOutput, number int) (model.Issue, error) {
	if number <= 0 {
		number = triage.SelectedIssueNumber
	}
	for _, issue := range issues {
		if issue.Number == number {
			return issue, nil
		}
	}
	// An explicitly requested issue may be outside the listing window.
	return o.provider.Issue(ctx, repoURL, number)
}

// RunRank executes only the triage phase.
func (o *Orchestrator) RunRank(ctx context.Context, repoURL string, opts Options) Result {
	start := o.now()
	var result Result

	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.MaxIssues <= 0 {
		opts.MaxIssues = 30
	}

	o.report(FetchingMetadata, repoURL)
	repo, err := o.provider.Repo(ctx, repoURL)
	if err != nil {
		result.Error = err.Error()
		result.Duration = o.now().Sub(start)
		o.report(Failed, result.Error)
		return result
	}
	result.Repo = repo

	o.report(FetchingIssues, repo.FullName)
	issues, err := o.provider.Issues(ctx, repoURL, opts.BeginnerOnly, opts.MaxIssues)
	if err != nil {
		result.Error = err.Error()
		result.Duration = o.now().Sub(start)
		o.report(Failed, result.Error)
		return result
	}
	result.Issues = issues

	if len(issues) == 0 {
		if opts.BeginnerOnly {
			result.Error = "no open issues with beginner-friendly labels found; retry without the beginner filter"
		} else {
			result.Error = "no open issues found"
		}
		result.Duration = o.now().Sub(start)
		o.report(Failed, result.Error)
		return result
	}

	o.report(StageTriage, fmt.Sprintf("%d issues", len(issues)))
	triage := agent.NewTriage(o.client, o.fastModel, o.logger).Run(ctx, repo, issues, opts.TopN)
	result.Triage = &triage
	result.Success = true
	result.Duration = o.now().Sub(start)
	o.report(Completed, "")
	return result
}

// RunLocate executes the locate phase for one issue, skipping triage.
func (o *Orchestrator) RunLocate(ctx context.Context, repoURL string, issueNumber int) Result {
	start := o.now()
	var result Result

	o.report(FetchingMetadata, repoURL)
	repo, err := o.provider.Repo(ctx, repoURL)
	if err != nil {
		result.Error = err.Error()
		result.Duration = o.now().Sub(start)
		o.report(Failed, result.Error)
		return result
	}
	result.Repo = repo

	issue, err := o.provider.Issue(ctx, repoURL, issueNumber)
	if err != nil {
		result.Error = err.Error()
		result.Duration = o.now().Sub(start)
		o.report(Failed, result.Error)
		return result
	}
	result.TargetIssue = &issue

	o.report(Cloning, repo.FullName)
	checkout, err := o.provider.Clone(ctx, repoURL)
	if err != nil {
		result.Error = err.Error()
		result.Duration = o.now().Sub(start)
		o.report(Failed, result.Error)
		return result
	}
	fileTree, err := o.provider.FileTree(checkout)
	if err != nil {
		fileTree = nil
	}

	o.report(StageLocate, fmt.Sprintf("issue #%d", issue.Number))
	searcher := search.New(checkout, o.logger)
	located := agent.NewLocator(o.client, o.fastModel, o.logger).Run(ctx, issue, searcher, fileTree)
	result.Locate = &located
	result.Success = true
	result.Duration = o.now().Sub(start)
	o.report(Completed, "")
	return result
}

// RunBrief executes locate and brief for one issue.
func (o *Orchestrator) RunBrief(ctx context.Context, repoURL string, issueNumber int) Result {
	result := o.RunLocate(ctx, repoURL, issueNumber)
	if !result.Success {
		return result
	}
	start := o.now()

	o.report(StageBrief, fmt.Sprintf("issue #%d", issueNumber))
	info := repoSummary(result.Repo)
	briefing := agent.NewBriefing(o.client, o.powerfulModel, o.logger).
		Run(ctx, info, *result.TargetIssue, *result.Locate)
	result.Briefing = &briefing
	result.Duration += o.now().Sub(start)
	o.report(Completed, "")
	return result
}

// RunBriefFromRecord writes a briefing from a prior run's stored locate
// output, refetching only issue metadata. The clone and the code-location
// gateway calls are not repeated.
func (o *Orchestrator) RunBriefFromRecord(ctx context.Context, record model.RunRecord) Result {
	start := o.now()
	var result Result

	if record.Locate == nil || record.SelectedIssue <= 0 {
		result.Error = "run record has no code-location output"
		o.report(Failed, result.Error)
		return result
	}

	o.report(FetchingMetadata, record.RepoURL)
	repo, err := o.provider.Repo(ctx, record.RepoURL)
	if err != nil {
		result.Error = err.Error()
		result.Duration = o.now().Sub(start)
		o.report(Failed, result.Error)
		return result
	}
	result.Repo = repo

	issue, err := o.provider.Issue(ctx, record.RepoURL, record.SelectedIssue)
	if err != nil {
		result.Error = err.Error()
		result.Duration = o.now().Sub(start)
		o.report(Failed, result.Error)
		return result
	}
	result.TargetIssue = &issue

	located := *record.Locate
	result.Locate = &located

	info := repoSummary(repo)
	if record.Triage != nil {
		info = record.Triage.Repo
		result.Triage = record.Triage
	}

	o.report(StageBrief, fmt.Sprintf("issue #%d", issue.Number))
	briefing := agent.NewBriefing(o.client, o.powerfulModel, o.logger).Run(ctx, info, issue, located)
	result.Briefing = &briefing
	result.Success = true
	result.Duration = o.now().Sub(start)
	o.report(Completed, "")
	return result
}

func repoSummary(repo model.Repo) model.RepoInfo {
	langs := make([]string, 0, 1)
	if repo.Language != "" {
		langs = append(langs, repo.Language)
	}
	return model.RepoInfo{
		URL:           repo.HTMLURL,
		DefaultBranch: repo.DefaultBranch,
		Description:   repo.Description,
		Languages:     langs,
	}
}

// persist appends a run record. Persistence failures are logged, never
// surfaced; the run result is already in hand.
func (o *Orchestrator) persist(repoURL string, result Result) {
	if o.runs == nil {
		return
	}
	record := model.RunRecord{
		Timestamp:       o.now().Format(time.RFC3339),
		RepoURL:         repoURL,
		Triage:          result.Triage,
		Locate:          result.Locate,
		Briefing:        result.Briefing,
		DurationSeconds: result.Duration.Seconds(),
		Error:           result.Error,
	}
	if result.TargetIssue != nil {
		record.SelectedIssue = result.TargetIssue.Number
	}
	if path, err := o.runs.Save(record); err != nil {
		o.logger.Warn("persist run record failed", zap.Error(err))
	} else {
		o.logger.Info("run record saved", zap.String("path", path))
	}
}
