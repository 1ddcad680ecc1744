package quest

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/questa/adapter/cli"
	"github.com/felixgeelhaar/questa/internal/quests/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var skipCmd = &cobra.Command{
	Use:   "skip [quest-id]",
	Short: "Record a quest as skipped for today",
	Long: `Record a skipped outcome for today. Skipping earns no reward but
keeps the stat history complete.

Examples:
  questa quest skip abc123`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SkipQuestHandler == nil {
			return fmt.Errorf("application not initialized - local store required")
		}

		questID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid quest ID: %w", err)
		}

		skipCmd := commands.SkipQuestCommand{
			QuestID: questID,
			UserID:  app.CurrentUserID,
			Date:    time.Now(),
		}

		ctx := cmd.Context()
		if err := app.SkipQuestHandler.Handle(ctx, skipCmd); err != nil {
			return fmt.Errorf("failed to skip quest: %w", err)
		}

		fmt.Printf("Quest skipped: %s\n", questID)
		return nil
	},
}
