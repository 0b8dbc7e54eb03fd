package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scout/internal/pipeline"
)

var (
	flagRankTop       int
	flagRankMax       int
	flagRankBeginners bool
)

var rankCmd = &cobra.Command{
	Use:   "rank <repo>",
	Short: "Rank a repository's open issues for beginner-friendliness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync()

		orch, err := newOrchestrator(logger)
		if err != nil {
			return err
		}
		orch.Notify(printProgress)

		result := orch.RunRank(cmd.Context(), args[0], pipeline.Options{
			TopN:         flagRankTop,
			MaxIssues:    flagRankMax,
			BeginnerOnly: flagRankBeginners,
		})
		if !result.Success {
			return errors.New(result.Error)
		}

		fmt.Println(renderTriage(*result.Triage))
		return nil
	},
}

func init() {
	rankCmd.Flags().IntVar(&flagRankTop, "top", 5, "number of ranked issues to keep")
	rankCmd.Flags().IntVar(&flagRankMax, "max-issues", 30, "maximum issues to fetch")
	rankCmd.Flags().BoolVar(&flagRankBeginners, "beginner-only", false, "only consider issues with beginner-friendly labels")
	rootCmd.AddCommand(rankCmd)
}
