package quest

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/questa/adapter/cli"
	"github.com/felixgeelhaar/questa/internal/quests/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete [quest-id]",
	Short: "Mark a quest as completed for today",
	Long: `Mark a quest as completed, recording the stat row and crediting
its reward.

Examples:
  questa quest complete abc123
  questa quest complete 550e8400-e29b-41d4-a716-446655440000`,
	Aliases: []string{"done"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CompleteQuestHandler == nil {
			return fmt.Errorf("application not initialized - local store required")
		}

		questID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid quest ID: %w", err)
		}

		completeCmd := commands.CompleteQuestCommand{
			QuestID: questID,
			UserID:  app.CurrentUserID,
			Date:    time.Now(),
		}

		ctx := cmd.Context()
		result, err := app.CompleteQuestHandler.Handle(ctx, completeCmd)
		if err != nil {
			return fmt.Errorf("failed to complete quest: %w", err)
		}

		fmt.Printf("Quest completed: %s\n", questID)
		fmt.Printf("  balance: %d coins, %d xp\n", result.Coins, result.XP)
		fmt.Printf("  streak: %d\n", result.Streak)
		return nil
	},
}
