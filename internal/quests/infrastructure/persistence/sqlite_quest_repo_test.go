package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/questa/internal/quests/domain"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/migrations"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db))
	return db
}

func TestSQLiteQuestRepository(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	newQuest := func(t *testing.T, title string) *domain.Quest {
		t.Helper()
		quest, err := domain.NewQuest(userID, title, domain.EveryDay(), domain.Window{}, domain.Reward{Coins: 5, XP: 10})
		require.NoError(t, err)
		return quest
	}

	t.Run("round-trips a quest through upsert and find", func(t *testing.T) {
		repo := NewSQLiteQuestRepository(testDB(t))

		quest := newQuest(t, "Water the plants")
		quest.SetInstructions("All of them, even the cactus")
		quest.SetIntegration(domain.IntegrationHealth)
		destruct := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
		quest.SetAutoDestruct(&destruct)
		require.NoError(t, quest.SetWindow(domain.Window{StartMinute: 8 * 60, EndMinute: 10 * 60}))

		require.NoError(t, repo.Upsert(ctx, quest, false))

		found, err := repo.FindByID(ctx, quest.ID())
		require.NoError(t, err)
		assert.Equal(t, quest.ID(), found.ID())
		assert.Equal(t, userID, found.UserID())
		assert.Equal(t, "Water the plants", found.Title())
		assert.Equal(t, "All of them, even the cactus", found.Instructions())
		assert.Equal(t, domain.IntegrationHealth, found.Integration())
		assert.Equal(t, domain.Window{StartMinute: 480, EndMinute: 600}, found.Window())
		require.NotNil(t, found.AutoDestruct())
		assert.True(t, found.AutoDestruct().Equal(destruct))
		assert.Equal(t, 5, found.Reward().Coins)
		assert.Equal(t, 10, found.Reward().XP)
		assert.False(t, found.IsSynced())
	})

	t.Run("upsert replaces the existing row", func(t *testing.T) {
		repo := NewSQLiteQuestRepository(testDB(t))

		quest := newQuest(t, "Old title")
		require.NoError(t, repo.Upsert(ctx, quest, false))

		require.NoError(t, quest.SetTitle("New title"))
		require.NoError(t, repo.Upsert(ctx, quest, false))

		found, err := repo.FindByID(ctx, quest.ID())
		require.NoError(t, err)
		assert.Equal(t, "New title", found.Title())

		all, err := repo.FindByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("mark synced removes the row from the dirty set", func(t *testing.T) {
		repo := NewSQLiteQuestRepository(testDB(t))

		quest := newQuest(t, "Dirty quest")
		require.NoError(t, repo.Upsert(ctx, quest, false))

		dirty, err := repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		require.Len(t, dirty, 1)

		require.NoError(t, repo.MarkSynced(ctx, quest.ID(), quest.UpdatedAt()))

		dirty, err = repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, dirty)
	})

	t.Run("mark synced with a stale stamp keeps a remutated row dirty", func(t *testing.T) {
		repo := NewSQLiteQuestRepository(testDB(t))

		quest := newQuest(t, "Water the plants")
		require.NoError(t, repo.Upsert(ctx, quest, false))
		seen := quest.UpdatedAt()

		// A local edit lands while the pushed snapshot is in flight.
		require.NoError(t, quest.SetTitle("Water the plants twice"))
		require.NoError(t, repo.Upsert(ctx, quest, false))

		require.NoError(t, repo.MarkSynced(ctx, quest.ID(), seen))

		dirty, err := repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		require.Len(t, dirty, 1)
		assert.Equal(t, "Water the plants twice", dirty[0].Title())

		// The next run's fresh snapshot clears it.
		require.NoError(t, repo.MarkSynced(ctx, quest.ID(), dirty[0].UpdatedAt()))
		dirty, err = repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, dirty)
	})

	t.Run("mark synced on a deleted row is a no-op", func(t *testing.T) {
		repo := NewSQLiteQuestRepository(testDB(t))
		assert.NoError(t, repo.MarkSynced(ctx, uuid.New(), time.Now()))
	})

	t.Run("upsert can write the row already synced", func(t *testing.T) {
		repo := NewSQLiteQuestRepository(testDB(t))

		quest := newQuest(t, "Pulled quest")
		require.NoError(t, repo.Upsert(ctx, quest, true))

		dirty, err := repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, dirty)

		found, err := repo.FindByID(ctx, quest.ID())
		require.NoError(t, err)
		assert.True(t, found.IsSynced())
	})

	t.Run("active on filters by recurrence and auto-destruct", func(t *testing.T) {
		repo := NewSQLiteQuestRepository(testDB(t))

		// 2026-04-06 is a Monday.
		monday := time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC)

		mondayQuest, err := domain.NewQuest(userID, "Mondays only", domain.Weekdays{time.Monday}, domain.Window{}, domain.Reward{})
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, mondayQuest, false))

		tuesdayQuest, err := domain.NewQuest(userID, "Tuesdays only", domain.Weekdays{time.Tuesday}, domain.Window{}, domain.Reward{})
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, tuesdayQuest, false))

		expired := newQuest(t, "Expired quest")
		destruct := monday.AddDate(0, 0, -7)
		expired.SetAutoDestruct(&destruct)
		require.NoError(t, repo.Upsert(ctx, expired, false))

		active, err := repo.ActiveOn(ctx, userID, monday)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, mondayQuest.ID(), active[0].ID())
	})

	t.Run("exists by title", func(t *testing.T) {
		repo := NewSQLiteQuestRepository(testDB(t))

		require.NoError(t, repo.Upsert(ctx, newQuest(t, "Unique title"), false))

		exists, err := repo.ExistsByTitle(ctx, userID, "Unique title")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByTitle(ctx, userID, "Missing title")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		repo := NewSQLiteQuestRepository(testDB(t))

		quest := newQuest(t, "Short-lived")
		require.NoError(t, repo.Upsert(ctx, quest, false))
		require.NoError(t, repo.Delete(ctx, quest.ID()))

		_, err := repo.FindByID(ctx, quest.ID())
		assert.ErrorIs(t, err, domain.ErrQuestNotFound)
	})
}
