package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"scout/internal/store"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs and cache usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		base := cacheDir()
		runs, err := store.NewRunStore(base)
		if err != nil {
			return err
		}
		records, err := runs.Recent(flagRunsLimit)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Println(dimStyle.Render("No runs recorded yet."))
		}
		for _, r := range records {
			status := successStyle.Render("ok")
			if r.Error != "" {
				status = errorStyle.Render(r.Error)
			}
			issue := "-"
			if r.SelectedIssue > 0 {
				issue = fmt.Sprintf("#%d", r.SelectedIssue)
			}
			fmt.Printf("%s  %-40s  %-6s  %5.1fs  %s\n",
				r.Timestamp, r.RepoURL, issue, r.DurationSeconds, status)
		}

		reposBytes, runsBytes := store.Size(base)
		fmt.Println()
		fmt.Println(dimStyle.Render(fmt.Sprintf("Cache: %s clones, %s run records (%s)",
			humanBytes(reposBytes), humanBytes(runsBytes), base)))
		return nil
	},
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	runsCmd.Flags().IntVar(&flagRunsLimit, "limit", 10, "maximum runs to list (0 for all)")
	rootCmd.AddCommand(runsCmd)
}
