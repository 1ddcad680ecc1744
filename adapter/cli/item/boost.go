package item

import (
	"fmt"

	"github.com/felixgeelhaar/questa/adapter/cli"
	"github.com/felixgeelhaar/questa/internal/player/application/commands"
	"github.com/felixgeelhaar/questa/internal/player/domain"
	"github.com/spf13/cobra"
)

var (
	boostHours  int
	boostPolicy string
)

var boostCmd = &cobra.Command{
	Use:   "boost [kind]",
	Short: "Activate a boost",
	Long: `Consume a boost item and activate its timed effect.

Examples:
  questa item boost xp_boost
  questa item boost coin_boost --hours 12 --policy replace`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ActivateBoostHandler == nil {
			return fmt.Errorf("application not initialized - local store required")
		}

		boostCmd := commands.ActivateBoostCommand{
			UserID:        app.CurrentUserID,
			Item:          domain.ItemKind(args[0]),
			DurationHours: boostHours,
			Policy:        domain.StackPolicy(boostPolicy),
		}

		ctx := cmd.Context()
		if err := app.ActivateBoostHandler.Handle(ctx, boostCmd); err != nil {
			return fmt.Errorf("failed to activate boost: %w", err)
		}

		fmt.Printf("Boost activated: %s (%dh)\n", args[0], boostHours)
		return nil
	},
}

func init() {
	boostCmd.Flags().IntVar(&boostHours, "hours", 24, "boost duration in hours")
	boostCmd.Flags().StringVar(&boostPolicy, "policy", "extend", "stacking policy when already active (extend, replace, reject)")
}
