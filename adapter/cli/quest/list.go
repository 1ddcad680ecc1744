package quest

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/questa/adapter/cli"
	"github.com/felixgeelhaar/questa/internal/quests/application/queries"
	"github.com/spf13/cobra"
)

var (
	onlyActive bool
	onlyDirty  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List quests",
	Long: `List quests with optional filtering.

Examples:
  questa quest list            # All quests
  questa quest list --active   # Only quests scheduled for today
  questa quest list --dirty    # Only quests pending a sync push`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListQuestsHandler == nil {
			return fmt.Errorf("application not initialized - local store required")
		}

		query := queries.ListQuestsQuery{
			UserID:     app.CurrentUserID,
			OnlyActive: onlyActive,
			OnlyDirty:  onlyDirty,
		}

		ctx := cmd.Context()
		quests, err := app.ListQuestsHandler.Handle(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to list quests: %w", err)
		}

		if len(quests) == 0 {
			fmt.Println("No quests found.")
			return nil
		}

		fmt.Printf("Quests (%d):\n", len(quests))
		fmt.Println(strings.Repeat("-", 60))

		for _, q := range quests {
			marker := "[ ]"
			if q.ActiveToday {
				marker = "[*]"
			}
			syncMarker := ""
			if !q.Synced {
				syncMarker = " [UNSYNCED]"
			}

			fmt.Printf("%s %s%s\n", marker, q.Title, syncMarker)
			fmt.Printf("   ID: %s\n", q.ID.String()[:8])
			if q.Integration != "none" {
				fmt.Printf("   Integration: %s\n", q.Integration)
			}
			if !q.AllDay {
				fmt.Printf("   Window: %02d:%02d-%02d:%02d\n",
					q.WindowStart/60, q.WindowStart%60, q.WindowEnd/60, q.WindowEnd%60)
			}
			if q.RewardCoins > 0 || q.RewardXP > 0 {
				fmt.Printf("   Reward: %d coins, %d xp\n", q.RewardCoins, q.RewardXP)
			}
			if q.AutoDestruct != nil {
				fmt.Printf("   Expires: %s\n", q.AutoDestruct.Format("2006-01-02"))
			}
			fmt.Println()
		}

		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&onlyActive, "active", "a", false, "show only quests scheduled for today")
	listCmd.Flags().BoolVar(&onlyDirty, "dirty", false, "show only quests pending a sync push")
}
