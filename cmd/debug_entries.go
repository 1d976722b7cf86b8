package cmd

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/polsim/internal/core"
)

var (
	debugEntriesIdentityColumn string
	debugEntriesWhere          string
)

var debugEntriesCmd = &cobra.Command{
	Use:   "entries LOG",
	Short: "Shows how an access log is read",
	Long: `The entries command loads a CSV access log the same way 'simulate' does and prints
every entry with its attributes. Entries missing an attribute are highlighted, these are
skipped during a simulation.`,
	Example: `  polsim debug entries access_logs.csv
  polsim debug entries access_logs.csv --where 'role == "intern"'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := f.LoadEntries(args[0], debugEntriesIdentityColumn, debugEntriesWhere)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		header := table.Row{"Line", "Identity"}
		for _, attr := range core.RecognizedAttributes {
			header = append(header, attr)
		}
		t.AppendHeader(append(header, "Missing"))

		incomplete := 0
		for _, entry := range entries {
			row := table.Row{entry.Line, entry.Identity}
			for _, attr := range core.RecognizedAttributes {
				if v, ok := entry.Request.Get(attr); ok {
					row = append(row, v)
				} else {
					row = append(row, faint("(absent)"))
				}
			}
			missing := entry.Request.Missing()
			if entry.Identity == "" {
				missing = append([]string{"identity"}, missing...)
			}
			if len(missing) > 0 {
				incomplete++
			}
			t.AppendRow(append(row, yellow(strings.Join(missing, ", "))))
		}

		applyTableFormat(t)
		t.Render()
		log.Info().Msgf("Read %d entries, %d would be skipped", len(entries), incomplete)
		return nil
	},
}

func init() {
	debugCmd.AddCommand(debugEntriesCmd)

	debugEntriesCmd.Flags().StringVar(&debugEntriesIdentityColumn, "identity-column", "", "CSV column holding the user (default user_id, then identity)")
	debugEntriesCmd.Flags().StringVar(&debugEntriesWhere, "where", "", "Only show entries matching this expression")
}
