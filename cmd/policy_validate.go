package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/polsim/internal/validation"
)

var policyValidateCmd = &cobra.Command{
	Use:   "validate POLICY...",
	Short: "Validate one or more policy documents",
	Long: `Loads every given policy and reports configuration errors, such as a rule without
a decision or reason, together with the position of the offending rule.`,
	Example: `  polsim policy validate policies/old_policy.json policies/new_policy.json`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		invalid := 0
		for _, location := range args {
			policy, err := f.FetchPolicy(cmd.Context(), location)
			if err != nil {
				invalid++
				kind := "unreadable"
				if validation.IsConfigError(err) {
					kind = "invalid"
				}
				fmt.Printf("%s %s: %s\n", redCross, bold(location), kind)
				fmt.Printf("    %s %s\n", faint("↳"), yellow(err.Error()))
				continue
			}
			fmt.Printf("%s %s: %d rules\n", greenCheck, bold(location), len(policy.Rules))
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d policies are invalid", invalid, len(args))
		}
		log.Info().Msg("All policies are valid.")
		return nil
	},
}

func init() {
	policyCmd.AddCommand(policyValidateCmd)
}
