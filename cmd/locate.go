package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var flagLocateIssue int

var locateCmd = &cobra.Command{
	Use:   "locate <repo>",
	Short: "Locate the code behind a specific issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagLocateIssue <= 0 {
			return errors.New("--issue is required")
		}

		logger := newLogger()
		defer logger.Sync()

		orch, err := newOrchestrator(logger)
		if err != nil {
			return err
		}
		orch.Notify(printProgress)

		result := orch.RunLocate(cmd.Context(), args[0], flagLocateIssue)
		if !result.Success {
			return errors.New(result.Error)
		}

		fmt.Println(renderLocate(*result.Locate))
		return nil
	},
}

func init() {
	locateCmd.Flags().IntVar(&flagLocateIssue, "issue", 0, "issue number to locate code for")
	rootCmd.AddCommand(locateCmd)
}
