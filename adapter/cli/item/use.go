package item

import (
	"fmt"

	"github.com/felixgeelhaar/questa/adapter/cli"
	"github.com/felixgeelhaar/questa/internal/player/application/commands"
	"github.com/felixgeelhaar/questa/internal/player/domain"
	"github.com/spf13/cobra"
)

var useCount int

var useCmd = &cobra.Command{
	Use:   "use [kind]",
	Short: "Consume an inventory item",
	Long: `Consume an item from the inventory and apply its effect.

Examples:
  questa item use streak_freezer
  questa item use xp_boost`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UseItemHandler == nil {
			return fmt.Errorf("application not initialized - local store required")
		}

		useCmd := commands.UseItemCommand{
			UserID: app.CurrentUserID,
			Item:   domain.ItemKind(args[0]),
			Count:  useCount,
		}

		ctx := cmd.Context()
		result, err := app.UseItemHandler.Handle(ctx, useCmd)
		if err != nil {
			return fmt.Errorf("failed to use item: %w", err)
		}

		fmt.Printf("Item used: %s\n", args[0])
		fmt.Printf("  remaining: %d\n", result.Remaining)
		return nil
	},
}

func init() {
	useCmd.Flags().IntVarP(&useCount, "count", "n", 1, "number of items to consume")
}
