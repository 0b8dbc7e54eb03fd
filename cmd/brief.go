package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scout/internal/model"
	"scout/internal/pipeline"
	"scout/internal/store"
)

var flagBriefIssue int

var briefCmd = &cobra.Command{
	Use:   "brief <repo>",
	Short: "Write a contribution briefing for a specific issue",
	Long: `Writes the briefing with a PR draft. When a prior run of this
repository already located the code, its stored output is reused and only
the briefing stage runs. Without --issue, the issue selected by the most
recent run is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync()

		orch, err := newOrchestrator(logger)
		if err != nil {
			return err
		}
		orch.Notify(printProgress)

		record, found := priorRecord(args[0], flagBriefIssue)

		var result pipeline.Result
		switch {
		case found && record.Locate != nil:
			result = orch.RunBriefFromRecord(cmd.Context(), record)
		case flagBriefIssue > 0:
			result = orch.RunBrief(cmd.Context(), args[0], flagBriefIssue)
		case found:
			result = orch.RunBrief(cmd.Context(), args[0], record.SelectedIssue)
		default:
			return fmt.Errorf("no prior run found for %s; pass --issue", args[0])
		}
		if !result.Success {
			return errors.New(result.Error)
		}

		fmt.Println(renderBriefing(*result.Briefing))
		return nil
	},
}

// priorRecord finds the newest stored run for the repository, optionally
// pinned to one issue number.
func priorRecord(repoURL string, issueNumber int) (model.RunRecord, bool) {
	runs, err := store.NewRunStore(cacheDir())
	if err != nil {
		return model.RunRecord{}, false
	}
	records, err := runs.Recent(0)
	if err != nil {
		return model.RunRecord{}, false
	}
	for _, record := range records {
		if record.RepoURL != repoURL || record.SelectedIssue <= 0 {
			continue
		}
		if issueNumber > 0 && record.SelectedIssue != issueNumber {
			continue
		}
		return record, true
	}
	return model.RunRecord{}, false
}

func init() {
	briefCmd.Flags().IntVar(&flagBriefIssue, "issue", 0, "issue number to brief (default: last run's selection)")
	rootCmd.AddCommand(briefCmd)
}
