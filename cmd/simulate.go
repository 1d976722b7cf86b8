package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/polsim/internal/accesslog"
	"github.com/darmiel/polsim/internal/audit"
	"github.com/darmiel/polsim/internal/core"
	"github.com/darmiel/polsim/internal/impact"
	"github.com/darmiel/polsim/internal/report"
)

const (
	OldPolicyKey      = "simulate.old_policy"
	LogFileKey        = "simulate.log_file"
	OutputKey         = "simulate.output"
	FormatKey         = "simulate.format"
	WorkersKey        = "simulate.workers"
	IdentityColumnKey = "simulate.identity_column"
	HistoryKey        = "simulate.history"
)

var simulateWhere string

var simulateCmd = &cobra.Command{
	Use:   "simulate NEW-POLICY",
	Short: "Report who gains or loses access if a new policy replaces the current one",
	Long: `Replays every request of the access log through the current (old) policy and the
given new policy. Requests whose decision changes are grouped by user into the
newly denied and the newly permitted cohort and written as an impact report.

Log rows missing one of the attributes role, department, resource or action, or
missing the user, are skipped and listed separately.`,
	Example: `  # Compare against policies/old_policy.json and write simulation_result.txt
  polsim simulate policies/new_policy.json

  # Compare against the policy on main, print a table to stdout
  polsim simulate new.yaml --old github://acme/policies/access.yaml@main --format table --out -

  # Only replay finance traffic
  polsim simulate new.yaml --where 'department == "finance"'`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlag(HistoryKey, cmd.Flags().Lookup("history"))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := report.ParseFormat(viper.GetString(FormatKey))
		if err != nil {
			return err
		}

		oldLocation := viper.GetString(OldPolicyKey)
		oldPolicy, err := f.FetchPolicy(ctx, oldLocation)
		if err != nil {
			return fmt.Errorf("loading old policy: %w", err)
		}
		newPolicy, err := f.FetchPolicy(ctx, args[0])
		if err != nil {
			return fmt.Errorf("loading new policy: %w", err)
		}
		log.Info().Msgf("Comparing %s (%d rules) against %s (%d rules)",
			oldLocation, len(oldPolicy.Rules), args[0], len(newPolicy.Rules))

		logFile := viper.GetString(LogFileKey)
		entries, err := f.LoadEntries(logFile, viper.GetString(IdentityColumnKey), simulateWhere)
		if err != nil {
			return err
		}
		log.Info().Msgf("Replaying %d log entries from %s", len(entries), logFile)

		differ, err := impact.New(oldPolicy, newPolicy, impact.WithWorkers(viper.GetInt(WorkersKey)))
		if err != nil {
			return err
		}
		res, err := differ.Diff(ctx, entries)
		if err != nil {
			return fmt.Errorf("replaying access log: %w", err)
		}

		for _, s := range res.Skipped {
			log.Warn().
				Int("line", s.Line).
				Str("user", s.Identity).
				Strs("missing", s.Missing).
				Msg("skipped log entry with missing attributes")
		}

		if err := writeReport(viper.GetString(OutputKey), format, res); err != nil {
			return err
		}
		printSummary(res)

		recorder, err := f.Recorder()
		if err != nil {
			return err
		}
		defer func(recorder core.RunRecorder) {
			_ = recorder.Close()
		}(recorder)

		record := audit.NewRunRecord(res, oldPolicy, newPolicy)
		record.LogFile = logFile
		if simulateWhere != "" {
			record.Metadata = map[string]any{"where": simulateWhere}
		}
		if err := recorder.Log(record); err != nil {
			// the report is already written
			log.Warn().Err(err).Str("run_id", res.RunID).Msg("failed to record run history")
		}
		return nil
	},
}

func writeReport(output string, format report.Format, res *core.ImpactReport) error {
	var w io.Writer = os.Stdout
	if output != "-" && output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer func(file *os.File) {
			_ = file.Close()
		}(file)
		w = file
	}

	if err := report.Write(w, format, res); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if w != os.Stdout {
		log.Info().Str("run_id", res.RunID).Msgf("Report written to %s", output)
	}
	return nil
}

func printSummary(res *core.ImpactReport) {
	fmt.Fprintf(os.Stderr, "\n%s %s\n", bold("Simulation"), faint(res.RunID))
	fmt.Fprintf(os.Stderr, "  %-18s %d\n", faint("Evaluated:"), res.Evaluated)
	fmt.Fprintf(os.Stderr, "  %-18s %d\n", faint("Unchanged:"), res.Unchanged)
	fmt.Fprintf(os.Stderr, "  %-18s %s\n", faint("Newly denied:"),
		red(fmt.Sprintf("%d requests / %d users", res.Denied.Count(), res.Denied.Len())))
	fmt.Fprintf(os.Stderr, "  %-18s %s\n", faint("Newly permitted:"),
		green(fmt.Sprintf("%d requests / %d users", res.Permitted.Count(), res.Permitted.Len())))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(os.Stderr, "  %-18s %s\n", faint("Skipped:"), yellow(fmt.Sprint(len(res.Skipped))))
	}
	fmt.Fprintln(os.Stderr)
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	flags := simulateCmd.Flags()

	flags.StringP("old", "o", "policies/old_policy.json", "The currently deployed policy (file path or github://OWNER/REPO/PATH[@REF])")
	bindFlag(flags, OldPolicyKey, "old")

	flags.StringP("log", "l", "access_logs.csv", "CSV access log to replay")
	bindFlag(flags, LogFileKey, "log")

	flags.String("out", "simulation_result.txt", "Report file, or - for stdout")
	bindFlag(flags, OutputKey, "out")

	flags.String("format", string(report.FormatText), "Report format (text, table, json)")
	bindFlag(flags, FormatKey, "format")

	flags.IntP("workers", "w", 1, "Number of concurrent workers replaying the log")
	bindFlag(flags, WorkersKey, "workers")

	flags.String("identity-column", accesslog.DefaultIdentityColumn, "CSV column holding the user")
	bindFlag(flags, IdentityColumnKey, "identity-column")

	// bound in PreRunE, history shares the key
	flags.String("history", "", "Append a summary of this run to the given history file (JSON lines)")

	flags.StringVar(&simulateWhere, "where", "", "Only replay entries matching this expression")
}
