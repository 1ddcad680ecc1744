package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/questa/internal/player/application/queries"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the player profile",
	Long:  `Show coins, xp, streak, inventory, and active boosts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.GetPlayerHandler == nil {
			return fmt.Errorf("application not initialized - local store required")
		}

		ctx := cmd.Context()
		profile, err := app.GetPlayerHandler.Handle(ctx, queries.GetPlayerQuery{UserID: app.CurrentUserID})
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}

		fmt.Printf("Player %s\n", profile.UserID)
		fmt.Printf("  coins: %d\n", profile.Coins)
		fmt.Printf("  xp: %d\n", profile.XP)
		fmt.Printf("  streak: %d (longest %d)\n", profile.CurrentStreak, profile.LongestStreak)
		if profile.LastCompleted != nil {
			fmt.Printf("  last completed: %s\n", profile.LastCompleted.Format("2006-01-02"))
		}
		if !profile.Synced {
			fmt.Println("  [UNSYNCED]")
		}

		if len(profile.Inventory) > 0 {
			fmt.Println("Inventory:")
			kinds := make([]string, 0, len(profile.Inventory))
			for kind := range profile.Inventory {
				kinds = append(kinds, kind)
			}
			sort.Strings(kinds)
			for _, kind := range kinds {
				fmt.Printf("  %s: %d\n", kind, profile.Inventory[kind])
			}
		}

		if len(profile.ActiveBoosts) > 0 {
			fmt.Println("Active boosts:")
			for kind, until := range profile.ActiveBoosts {
				fmt.Printf("  %s: %s remaining\n", kind, time.Until(until).Round(time.Minute))
			}
		}

		return nil
	},
}

func init() {
	AddCommand(profileCmd)
}
