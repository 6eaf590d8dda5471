// file: cli/root.go
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "vmctl",
	Short:        "Operations tool for the CTF VM platform",
	Long:         "vmctl manages the user VM subsystem: global template config, per-challenge VM toggles and expired VM cleanup.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
