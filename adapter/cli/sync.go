package cli

import (
	"errors"
	"fmt"

	syncDomain "github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/spf13/cobra"
)

var syncFirst bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the local store with the server",
	Long: `Run one pass of the profile, quest, and stats sync workers.

With --first, pull everything from the server and mark it synced
without pushing any local row. Use this once after sign-in on a new
device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.SyncDispatcher == nil {
			return errors.New("sync requires an initialized application")
		}

		result := app.SyncDispatcher.RunAll(cmd.Context(), syncDomain.Trigger{IsFirstSync: syncFirst})
		if result.Err != nil {
			return fmt.Errorf("sync failed: %w", result.Err)
		}

		fmt.Printf("Sync complete: pushed=%d pulled=%d skipped=%d\n", result.Pushed, result.Pulled, result.Skipped)
		if result.Skipped > 0 {
			fmt.Println("Some rows were rejected by the server and stay pending; they retry on the next run.")
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncFirst, "first", false, "pull-only initial hydration for a fresh device")
	rootCmd.AddCommand(syncCmd)
}
