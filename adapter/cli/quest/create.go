package quest

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/questa/adapter/cli"
	"github.com/felixgeelhaar/questa/internal/quests/application/commands"
	"github.com/felixgeelhaar/questa/internal/quests/domain"
	"github.com/spf13/cobra"
)

var (
	instructions string
	integration  string
	recurrence   string
	windowStart  int
	windowEnd    int
	autoDestruct string
	rewardCoins  int
	rewardXP     int
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new quest",
	Long: `Create a new quest with a title and optional properties.

Examples:
  questa quest create "Walk 10k steps"
  questa quest create "Morning run" --recurrence mon,wed,fri --coins 10
  questa quest create "Evening review" --window-start 1080 --window-end 1320`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateQuestHandler == nil {
			return fmt.Errorf("application not initialized - local store required")
		}

		title := args[0]

		days, err := parseRecurrence(recurrence)
		if err != nil {
			return err
		}

		createCmd := commands.CreateQuestCommand{
			UserID:       app.CurrentUserID,
			Title:        title,
			Instructions: instructions,
			Integration:  domain.IntegrationKind(integration),
			Recurrence:   days,
			Window:       domain.Window{StartMinute: windowStart, EndMinute: windowEnd},
			Reward:       domain.Reward{Coins: rewardCoins, XP: rewardXP},
		}

		if autoDestruct != "" {
			parsed, err := time.Parse("2006-01-02", autoDestruct)
			if err != nil {
				return fmt.Errorf("invalid auto-destruct date format (use YYYY-MM-DD): %w", err)
			}
			createCmd.AutoDestruct = &parsed
		}

		ctx := cmd.Context()
		result, err := app.CreateQuestHandler.Handle(ctx, createCmd)
		if err != nil {
			return fmt.Errorf("failed to create quest: %w", err)
		}

		fmt.Printf("Quest created: %s\n", result.QuestID)
		fmt.Printf("  title: %s\n", title)
		if rewardCoins > 0 || rewardXP > 0 {
			fmt.Printf("  reward: %d coins, %d xp\n", rewardCoins, rewardXP)
		}

		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&instructions, "instructions", "", "quest instructions")
	createCmd.Flags().StringVar(&integration, "integration", "none", "integration (none, health, calendar, timer)")
	createCmd.Flags().StringVarP(&recurrence, "recurrence", "r", "daily", "recurrence days (daily or mon,wed,fri)")
	createCmd.Flags().IntVar(&windowStart, "window-start", 0, "window start, minutes from midnight")
	createCmd.Flags().IntVar(&windowEnd, "window-end", 0, "window end, minutes from midnight")
	createCmd.Flags().StringVar(&autoDestruct, "auto-destruct", "", "expiry date (YYYY-MM-DD)")
	createCmd.Flags().IntVar(&rewardCoins, "coins", 0, "coin reward on completion")
	createCmd.Flags().IntVar(&rewardXP, "xp", 0, "xp reward on completion")
}
