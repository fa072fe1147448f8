package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	runsSkill string
	runsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent skill runs from the state database",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := OpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.RecentRuns(runsSkill, runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		for _, r := range runs {
			line := fmt.Sprintf("%s  %-12s %-8s %s",
				r.StartedAt.Local().Format("2006-01-02 15:04"), r.Skill, r.Status, r.Subject)
			if r.ReportPath != "" {
				line += "  " + r.ReportPath
			}
			if r.Error != "" {
				line += "  error: " + r.Error
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsSkill, "skill", "", "Only show runs for this skill")
	runsCmd.Flags().IntVar(&runsLimit, "n", 20, "Max runs to list")
	rootCmd.AddCommand(runsCmd)
}
