package cmd

import (
	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Interact with policy documents",
	Long:  `Utilities for validating and viewing policy documents`,
}

func init() {
	rootCmd.AddCommand(policyCmd)
}
