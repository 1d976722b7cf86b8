package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/polsim/internal/audit"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded simulation runs",
	Long: `Lists the runs recorded by 'simulate --history', newest last.
Runs comparing the same rule sets share fingerprints, even if the policies were loaded
from different locations.`,
	Example: `  polsim history --history .polsim-history.jsonl
  polsim history --history .polsim-history.jsonl --limit 5`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlag(HistoryKey, cmd.Flags().Lookup("history"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString(HistoryKey)
		if path == "" {
			return fmt.Errorf("history file not specified (use --history or %s)", HistoryKey)
		}

		records, err := audit.ReadFile(path, historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Run", "Time", "Old", "New", "Evaluated", "Denied", "Permitted", "Skipped"})
		for _, r := range records {
			t.AppendRow(table.Row{
				r.ID,
				r.Time.Local().Format("2006-01-02 15:04:05"),
				fmt.Sprintf("%s %s", truncate(r.OldPolicy, 32), faint(r.OldFingerprint)),
				fmt.Sprintf("%s %s", truncate(r.NewPolicy, 32), faint(r.NewFingerprint)),
				r.Evaluated,
				red(fmt.Sprint(r.NewlyDenied)),
				green(fmt.Sprint(r.NewlyPermitted)),
				r.Skipped,
			})
		}
		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	// bound in PreRunE, simulate shares the key
	historyCmd.Flags().String("history", "", "History file written by 'simulate --history'")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of most recent runs to show (0 for all)")
}
