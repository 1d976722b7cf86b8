package cmd

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var debugParseCmd = &cobra.Command{
	Use:   "parse POLICY",
	Short: "Dumps the parsed form of a policy document",
	Long: `The parse command loads a policy (file path or github:// location), validates it
and dumps the resulting rule structures. Useful to check how conditions were read.`,
	Example: `  polsim debug parse policies/new_policy.json`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		policy, err := f.FetchPolicy(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		log.Info().Msgf("Parsed %d rules", len(policy.Rules))
		fmt.Print(spew.Sdump(policy))
		return nil
	},
}

func init() {
	debugCmd.AddCommand(debugParseCmd)
}
