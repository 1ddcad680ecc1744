package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/questa/internal/player/domain"
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

func TestSQLitePlayerRepository(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("round-trips the full state", func(t *testing.T) {
		repo := NewSQLitePlayerRepository(testDB(t))

		state := domain.NewPlayerState(userID)
		require.NoError(t, state.AddCoins(75))
		require.NoError(t, state.AddXP(120))
		require.NoError(t, state.AddItems(map[domain.ItemKind]int{
			domain.ItemStreakFreezer: 3,
			domain.ItemXPBoost:       1,
		}))
		state.RecordCompletion(time.Date(2026, 4, 10, 19, 0, 0, 0, time.UTC))
		require.NoError(t, state.UseItem(domain.ItemXPBoost, time.Date(2026, 4, 10, 20, 0, 0, 0, time.UTC)))

		require.NoError(t, repo.Save(ctx, state, false))

		found, err := repo.Find(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 75, found.Coins())
		assert.Equal(t, 120, found.XP())
		assert.Equal(t, 3, found.ItemCount(domain.ItemStreakFreezer))
		assert.Equal(t, 0, found.ItemCount(domain.ItemXPBoost))
		assert.Equal(t, 1, found.Streak().Current)
		assert.True(t, found.Streak().LastCompleted.Equal(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)))
		assert.True(t, found.IsBoostActive(domain.ItemXPBoost, time.Date(2026, 4, 11, 10, 0, 0, 0, time.UTC)))
		assert.False(t, found.IsSynced())
	})

	t.Run("find on a missing user reports not found", func(t *testing.T) {
		repo := NewSQLitePlayerRepository(testDB(t))

		_, err := repo.Find(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("save replaces the singleton row", func(t *testing.T) {
		repo := NewSQLitePlayerRepository(testDB(t))

		state := domain.NewPlayerState(userID)
		require.NoError(t, state.AddCoins(10))
		require.NoError(t, repo.Save(ctx, state, false))

		require.NoError(t, state.AddCoins(15))
		require.NoError(t, repo.Save(ctx, state, false))

		found, err := repo.Find(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 25, found.Coins())
	})

	t.Run("find unsynced returns nil once the row is clean", func(t *testing.T) {
		repo := NewSQLitePlayerRepository(testDB(t))

		state := domain.NewPlayerState(userID)
		require.NoError(t, state.AddCoins(5))
		require.NoError(t, repo.Save(ctx, state, false))

		dirty, err := repo.FindUnsynced(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, dirty)

		require.NoError(t, repo.MarkSynced(ctx, userID, dirty.UpdatedAt()))

		dirty, err = repo.FindUnsynced(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, dirty)

		found, err := repo.Find(ctx, userID)
		require.NoError(t, err)
		assert.True(t, found.IsSynced())
	})

	t.Run("find unsynced on a missing user returns nil", func(t *testing.T) {
		repo := NewSQLitePlayerRepository(testDB(t))

		dirty, err := repo.FindUnsynced(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, dirty)
	})

	t.Run("mark synced on a missing row is a no-op", func(t *testing.T) {
		repo := NewSQLitePlayerRepository(testDB(t))
		assert.NoError(t, repo.MarkSynced(ctx, uuid.New(), time.Now()))
	})

	t.Run("mark synced with a stale stamp keeps a remutated row dirty", func(t *testing.T) {
		repo := NewSQLitePlayerRepository(testDB(t))

		state := domain.NewPlayerState(userID)
		require.NoError(t, state.AddCoins(120))
		require.NoError(t, repo.Save(ctx, state, false))
		seen := state.UpdatedAt()

		// A credit lands while the pushed snapshot is in flight.
		require.NoError(t, state.AddCoins(50))
		require.NoError(t, repo.Save(ctx, state, false))

		require.NoError(t, repo.MarkSynced(ctx, userID, seen))

		dirty, err := repo.FindUnsynced(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, dirty)
		assert.Equal(t, 170, dirty.Coins())
	})

	t.Run("save can write the row already synced after a pull", func(t *testing.T) {
		repo := NewSQLitePlayerRepository(testDB(t))

		state := domain.NewPlayerState(userID)
		require.NoError(t, state.AddCoins(50))
		require.NoError(t, repo.Save(ctx, state, true))

		dirty, err := repo.FindUnsynced(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, dirty)
	})
}
