package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/darmiel/polsim/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.GetBuildInfo()
		printInfo(&info)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printInfo(info *buildinfo.Info) {
	fmt.Println(bold("\n── polsim Build Information ──"))
	fmt.Printf("  %s:    %s\n", faint("Version"), info.Version)
	fmt.Printf("  %s:     %s\n", faint("Commit"), info.CommitHash)
	fmt.Printf("  %s:      %s\n", faint("About"), info.About)
}
