package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darmiel/polsim/internal/core"
	"github.com/darmiel/polsim/internal/engine"
)

var whyRuleFilter string

var whyCmd = &cobra.Command{
	Use:   "why",
	Short: "Explain which rule decides a request, and why the others do not",
	Long: `Evaluates a single request against a policy and prints a detailed trace of every rule.
Useful for debugging why a request is denied or matching the wrong rule.

Attributes that are not given on the command line are absent from the request,
which never matches a condition naming them (not even an empty value).`,
	Example: `  # Why is this intern denied?
  polsim why -f policies/new_policy.json --role intern --department eng --resource db --action read

  # Show only the 'finance-export' rule
  polsim why -f policy.yaml --department finance --resource payroll --action export --rule finance-export`,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := f.LoadPolicy(cmd.Context())
		if err != nil {
			return err
		}
		eng, err := engine.New(policy)
		if err != nil {
			return err
		}

		values := make(map[string]string)
		for _, attr := range core.RecognizedAttributes {
			if cmd.Flags().Changed(attr) {
				values[attr], _ = cmd.Flags().GetString(attr)
			}
		}

		printTrace(policy.Source, eng.Trace(core.NewAttributeSet(values)))
		return nil
	},
}

func printTrace(source string, trace core.EvaluationTrace) {
	fmt.Printf("\n%s for request: %s\n", bold("Evaluation Trace"), bold(trace.Request.String()))
	fmt.Printf("%s\n", faint("policy: "+source))
	if missing := trace.Request.Missing(); len(missing) > 0 {
		fmt.Printf("%s\n", yellow(fmt.Sprintf("absent attributes: %v", missing)))
	}

	fmt.Println(faint("---------------------------------------------------"))

	for _, res := range trace.RuleResults {
		if whyRuleFilter != "" && res.RuleName != whyRuleFilter {
			continue
		}

		icon := red("✖")
		switch {
		case res.Selected:
			icon = green("✔")
		case res.Shadowed:
			icon = yellow("✔")
		}

		fmt.Printf("%s Rule: %s %s\n", icon, bold(res.RuleName), faint("→ "+string(res.Decision)))
		if res.Shadowed {
			fmt.Printf("  %s\n", yellow("matches, but an earlier rule already decided"))
		}

		for _, cond := range res.ConditionResults {
			condIcon := red("✖")
			if cond.Matched {
				condIcon = green("✔")
			}

			if cond.Expression == "(empty)" {
				fmt.Printf("    %s %s\n", condIcon, cyan(cond.Expression))
			} else {
				fmt.Printf("    %s %s\n", condIcon, cond.Expression)
			}

			if cond.Reason != "" {
				reason := cond.Reason
				if cond.Matched {
					reason = faint(reason)
				} else {
					reason = yellow(reason)
				}
				fmt.Printf("          ↳ %s\n", reason)
			}
		}

		fmt.Println()
	}

	fmt.Println("---------------------------------------------------")
	if trace.Result.IsDefault() {
		fmt.Printf("Decision: %s via default rule\n", bold(paintDecision(trace.Result.Decision)))
	} else {
		fmt.Printf("Decision: %s via rule '%s'\n",
			bold(paintDecision(trace.Result.Decision)),
			bold(trace.RuleResults[trace.Result.RuleIndex].RuleName))
	}
	fmt.Printf("Reason:   %s\n", trace.Result.Reason)
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(whyCmd)

	whyCmd.Flags().StringVarP(&f.PolicyPath, "policy", "f", "", "The policy to evaluate (file path or github:// location)")
	whyCmd.Flags().StringVarP(&whyRuleFilter, "rule", "r", "", "Filter output to specific rule name (optional)")
	for _, attr := range core.RecognizedAttributes {
		whyCmd.Flags().String(attr, "", fmt.Sprintf("The request's %s (absent if not given)", attr))
	}

	_ = whyCmd.MarkFlagRequired("policy")
}
