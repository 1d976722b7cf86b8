package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/darmiel/polsim/internal/core"
)

var policyInspectCmd = &cobra.Command{
	Use:     "inspect POLICY",
	Short:   "List the rules of a policy in evaluation order",
	Example: `  polsim policy inspect policies/new_policy.json`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := f.FetchPolicy(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(policy.Source)
		t.AppendHeader(table.Row{"#", "Rule", "Conditions", "Decision", "Reason"})

		for i, rule := range policy.Rules {
			t.AppendRow(table.Row{
				i,
				bold(rule.Label(i)),
				rule.Conditions.String(),
				paintDecision(rule.Decision),
				truncate(rule.Reason, 60),
			})
		}
		t.AppendFooter(table.Row{
			"", faint("(default)"), faint(core.Condition{}.String()), paintDecision(core.Denied), core.DefaultReason,
		})

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func paintDecision(d core.Decision) string {
	if d == core.Permitted {
		return green(string(d))
	}
	return red(string(d))
}

func init() {
	policyCmd.AddCommand(policyInspectCmd)
}
