package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/questa/internal/sync/application/queries"
	syncDomain "github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Long:  `Show worker states and the local backlog still waiting for a push.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.SyncStatusHandler == nil {
			return errors.New("status requires an initialized application")
		}

		status, err := app.SyncStatusHandler.Handle(cmd.Context(), queries.SyncStatusQuery{UserID: app.CurrentUserID})
		if err != nil {
			return fmt.Errorf("failed to read sync status: %w", err)
		}

		fmt.Println("Workers:")
		for _, kind := range []syncDomain.WorkerKind{syncDomain.WorkerProfile, syncDomain.WorkerQuests, syncDomain.WorkerStats} {
			fmt.Printf("  %s: %s\n", kind, status.Workers[kind])
		}

		fmt.Println("Pending push:")
		fmt.Printf("  quests: %d\n", status.DirtyQuests)
		fmt.Printf("  stats: %d\n", status.DirtyStats)
		if status.DirtyProfile {
			fmt.Println("  profile: dirty")
		} else {
			fmt.Println("  profile: clean")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
