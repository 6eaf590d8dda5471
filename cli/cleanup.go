// file: cli/cleanup.go
package cli

import (
	"fmt"
	"log"

	"CTFVM/database"
	"CTFVM/proxmox"
	"CTFVM/services"

	"github.com/spf13/cobra"
)

// cleanupCmd 由 cron 周期性调用，无参数
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired user VMs from Proxmox and the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database.Connect()
		database.InitRedis()

		client := proxmox.NewClient(proxmox.ConfigFromEnv())
		store := services.NewVMStore(database.DB)
		cache := services.NewRedisFleetCache(database.RDB)
		svc := services.NewVMService(store, client, cache)
		reaper := services.NewReaper(store, svc)

		summary, err := reaper.Run(cmd.Context())
		if err != nil {
			return err
		}

		log.Printf("Cleanup finished: attempted=%d succeeded=%d failed=%d",
			summary.Attempted, summary.Succeeded, summary.Failed)
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d expired VMs could not be deleted", summary.Failed, summary.Attempted)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
