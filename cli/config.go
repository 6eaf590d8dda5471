// file: cli/config.go
package cli

import (
	"fmt"
	"strconv"

	"CTFVM/database"
	"CTFVM/services"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config <template_vmid> <name> <hours>",
	Short: "Set the global VM template configuration",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		templateID, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid template vmid %q", args[0])
		}
		hours, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil || hours == 0 {
			return fmt.Errorf("invalid duration hours %q", args[2])
		}

		database.Connect()
		store := services.NewVMStore(database.DB)
		if err := store.SaveConfig(uint32(templateID), args[1], uint(hours)); err != nil {
			return err
		}

		fmt.Printf("OK Global config: template=%d name=%s hours=%d\n", templateID, args[1], hours)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
