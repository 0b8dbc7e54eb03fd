package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scout/internal/pipeline"
)

var (
	flagTop          int
	flagMaxIssues    int
	flagBeginnerOnly bool
	flagIssue        int
)

var runCmd = &cobra.Command{
	Use:   "run <repo>",
	Short: "Run the full pipeline: rank issues, locate code, write a briefing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync()

		orch, err := newOrchestrator(logger)
		if err != nil {
			return err
		}
		orch.Notify(printProgress)

		result := orch.Run(cmd.Context(), args[0], pipeline.Options{
			TopN:         flagTop,
			MaxIssues:    flagMaxIssues,
			BeginnerOnly: flagBeginnerOnly,
			IssueNumber:  flagIssue,
		})
		if !result.Success {
			return errors.New(result.Error)
		}

		if result.Triage != nil {
			fmt.Println(renderTriage(*result.Triage))
		}
		if result.Locate != nil {
			fmt.Println(renderLocate(*result.Locate))
		}
		if result.Briefing != nil {
			fmt.Println(renderBriefing(*result.Briefing))
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("Done in %s", result.Duration.Round(timeRound))))
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&flagTop, "top", 5, "number of ranked issues to keep")
	runCmd.Flags().IntVar(&flagMaxIssues, "max-issues", 30, "maximum issues to fetch")
	runCmd.Flags().BoolVar(&flagBeginnerOnly, "beginner-only", false, "only consider issues with beginner-friendly labels")
	runCmd.Flags().IntVar(&flagIssue, "issue", 0, "work on this issue number instead of the top-ranked one")
	rootCmd.AddCommand(runCmd)
}
