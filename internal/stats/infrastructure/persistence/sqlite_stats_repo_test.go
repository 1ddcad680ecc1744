package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/questa/internal/stats/domain"
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

func newRow(t *testing.T, userID, questID uuid.UUID, date time.Time, outcome domain.Outcome) *domain.StatsInfo {
	t.Helper()
	info, err := domain.NewStatsInfo(userID, questID, date, outcome)
	require.NoError(t, err)
	return info
}

func TestSQLiteStatsRepository(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	questID := uuid.New()
	date := time.Date(2026, 4, 10, 14, 0, 0, 0, time.UTC)

	t.Run("round-trips a row through upsert and find", func(t *testing.T) {
		repo := NewSQLiteStatsRepository(testDB(t))

		row := newRow(t, userID, questID, date, domain.OutcomeCompleted)
		require.NoError(t, repo.Upsert(ctx, row, false))

		found, err := repo.Find(ctx, userID, questID, date)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, userID, found.UserID)
		assert.Equal(t, questID, found.QuestID)
		assert.True(t, found.Date.Equal(domain.DateOf(date)))
		assert.Equal(t, domain.OutcomeCompleted, found.Outcome)
		assert.False(t, found.Synced)
	})

	t.Run("find on an absent composite key returns nil", func(t *testing.T) {
		repo := NewSQLiteStatsRepository(testDB(t))

		found, err := repo.Find(ctx, userID, questID, date)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("the same quest-day is one row regardless of outcome changes", func(t *testing.T) {
		repo := NewSQLiteStatsRepository(testDB(t))

		require.NoError(t, repo.Upsert(ctx, newRow(t, userID, questID, date, domain.OutcomeCompleted), false))
		require.NoError(t, repo.Upsert(ctx, newRow(t, userID, questID, date, domain.OutcomeSkipped), false))

		found, err := repo.Find(ctx, userID, questID, date)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, domain.OutcomeSkipped, found.Outcome)

		all, err := repo.FindRange(ctx, userID, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("different times on the same day hit the same row", func(t *testing.T) {
		repo := NewSQLiteStatsRepository(testDB(t))

		morning := time.Date(2026, 4, 10, 6, 0, 0, 0, time.UTC)
		evening := time.Date(2026, 4, 10, 22, 30, 0, 0, time.UTC)

		require.NoError(t, repo.Upsert(ctx, newRow(t, userID, questID, morning, domain.OutcomeCompleted), false))

		found, err := repo.Find(ctx, userID, questID, evening)
		require.NoError(t, err)
		require.NotNil(t, found)
	})

	t.Run("mark synced removes the row from the dirty set", func(t *testing.T) {
		repo := NewSQLiteStatsRepository(testDB(t))

		require.NoError(t, repo.Upsert(ctx, newRow(t, userID, questID, date, domain.OutcomeCompleted), false))

		dirty, err := repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		require.Len(t, dirty, 1)

		require.NoError(t, repo.MarkSynced(ctx, userID, questID, date, domain.OutcomeCompleted))

		dirty, err = repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, dirty)
	})

	t.Run("mark synced with a stale outcome keeps a rewritten row dirty", func(t *testing.T) {
		repo := NewSQLiteStatsRepository(testDB(t))

		require.NoError(t, repo.Upsert(ctx, newRow(t, userID, questID, date, domain.OutcomeCompleted), false))

		// The outcome is rewritten while the pushed snapshot is in flight.
		require.NoError(t, repo.Upsert(ctx, newRow(t, userID, questID, date, domain.OutcomeSkipped), false))

		require.NoError(t, repo.MarkSynced(ctx, userID, questID, date, domain.OutcomeCompleted))

		dirty, err := repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		require.Len(t, dirty, 1)
		assert.Equal(t, domain.OutcomeSkipped, dirty[0].Outcome)

		require.NoError(t, repo.MarkSynced(ctx, userID, questID, date, domain.OutcomeSkipped))
		dirty, err = repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, dirty)
	})

	t.Run("mark synced on a missing row is a no-op", func(t *testing.T) {
		repo := NewSQLiteStatsRepository(testDB(t))
		assert.NoError(t, repo.MarkSynced(ctx, userID, uuid.New(), date, domain.OutcomeCompleted))
	})

	t.Run("find range is a closed interval", func(t *testing.T) {
		repo := NewSQLiteStatsRepository(testDB(t))

		day := func(d int) time.Time { return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC) }
		for d := 1; d <= 5; d++ {
			require.NoError(t, repo.Upsert(ctx, newRow(t, userID, questID, day(d), domain.OutcomeCompleted), true))
		}

		rows, err := repo.FindRange(ctx, userID, day(2), day(4))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.True(t, rows[0].Date.Equal(day(2)))
		assert.True(t, rows[2].Date.Equal(day(4)))
	})
}
