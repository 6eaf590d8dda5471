// file: cli/challenge.go
package cli

import (
	"fmt"
	"strconv"

	"CTFVM/database"
	"CTFVM/services"

	"github.com/spf13/cobra"
)

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Manage per-challenge VM availability",
}

var challengeEnableCmd = &cobra.Command{
	Use:   "enable <challenge_id>",
	Short: "Show the VM entry on a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleChallengeVM(args[0], true)
	},
}

var challengeDisableCmd = &cobra.Command{
	Use:   "disable <challenge_id>",
	Short: "Hide the VM entry on a challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleChallengeVM(args[0], false)
	},
}

func toggleChallengeVM(arg string, enabled bool) error {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid challenge id %q", arg)
	}

	database.Connect()
	store := services.NewVMStore(database.DB)

	changed, err := store.SetChallengeVM(uint32(id), enabled)
	if err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	if changed {
		fmt.Printf("OK VM %s for challenge %d\n", state, id)
	} else {
		fmt.Printf("No change: challenge %d VM already %s\n", id, state)
	}
	return nil
}

func init() {
	challengeCmd.AddCommand(challengeEnableCmd, challengeDisableCmd)
	rootCmd.AddCommand(challengeCmd)
}
