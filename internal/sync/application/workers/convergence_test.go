package workers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/questa/internal/identity"
	playerDomain "github.com/felixgeelhaar/questa/internal/player/domain"
	playerPersistence "github.com/felixgeelhaar/questa/internal/player/infrastructure/persistence"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	questsPersistence "github.com/felixgeelhaar/questa/internal/quests/infrastructure/persistence"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/questa/internal/shared/infrastructure/migrations"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	statsPersistence "github.com/felixgeelhaar/questa/internal/stats/infrastructure/persistence"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/felixgeelhaar/questa/internal/sync/infrastructure/remote"
	"github.com/felixgeelhaar/questa/internal/sync/infrastructure/tokencache"
)

func workerDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db))
	return db
}

// A second run with no intervening local mutation must not touch the
// remote store again.
func TestSyncWorkers_SecondRunIsNoOp(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("quest worker", func(t *testing.T) {
		repo := questsPersistence.NewSQLiteQuestRepository(workerDB(t))
		store := remote.NewMemoryStore()

		quest := newSyncQuest(t, userID, "Evening walk")
		require.NoError(t, repo.Upsert(ctx, quest, false))

		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, tokencache.NewMemoryCache(), domain.NewTracker(), testLogger(),
		)

		first := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, first.Err)
		assert.Equal(t, 1, first.Pushed)

		second := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, second.Err)
		assert.Equal(t, domain.RunResult{}, second)

		questPushes, _, _ := store.PushCounts()
		assert.Equal(t, 1, questPushes)
	})

	t.Run("stats worker", func(t *testing.T) {
		repo := statsPersistence.NewSQLiteStatsRepository(workerDB(t))
		store := remote.NewMemoryStore()

		row := newStatsRow(t, userID, uuid.New(), time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC))
		require.NoError(t, repo.Upsert(ctx, row, false))

		worker := NewStatsSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, domain.NewTracker(), testLogger(),
		)

		first := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, first.Err)
		assert.Equal(t, 1, first.Pushed)

		second := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, second.Err)
		assert.Equal(t, domain.RunResult{}, second)

		_, statsPushes, _ := store.PushCounts()
		assert.Equal(t, 1, statsPushes)
	})

	t.Run("profile worker", func(t *testing.T) {
		repo := playerPersistence.NewSQLitePlayerRepository(workerDB(t))
		store := remote.NewMemoryStore()

		state := playerDomain.NewPlayerState(userID)
		require.NoError(t, state.AddCoins(30))
		require.NoError(t, repo.Save(ctx, state, false))

		worker := NewProfileSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, domain.NewTracker(), testLogger(),
		)

		first := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, first.Err)
		assert.Equal(t, 1, first.Pushed)

		second := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, second.Err)
		assert.Equal(t, domain.RunResult{}, second)

		_, _, profilePushes := store.PushCounts()
		assert.Equal(t, 1, profilePushes)
	})
}

// A local mutation landing while its row's snapshot is being pushed
// must keep the row dirty, so the next run pushes the newer state.
func TestSyncWorkers_MutationDuringPushStaysDirty(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("profile credit during push is pushed by the next run", func(t *testing.T) {
		repo := playerPersistence.NewSQLitePlayerRepository(workerDB(t))
		store := remote.NewMemoryStore()

		state := playerDomain.NewPlayerState(userID)
		require.NoError(t, state.AddCoins(120))
		require.NoError(t, repo.Save(ctx, state, false))

		credited := false
		store.PushProfileErr = func(*playerDomain.PlayerState) error {
			if credited {
				return nil
			}
			credited = true
			current, err := repo.Find(ctx, userID)
			require.NoError(t, err)
			require.NoError(t, current.AddCoins(50))
			require.NoError(t, repo.Save(ctx, current, false))
			return nil
		}

		worker := NewProfileSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, domain.NewTracker(), testLogger(),
		)

		first := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, first.Err)
		assert.Equal(t, 1, first.Pushed)

		dirty, err := repo.FindUnsynced(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, dirty, "the mid-push credit must keep the row dirty")
		assert.Equal(t, 170, dirty.Coins())

		second := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, second.Err)
		assert.Equal(t, 1, second.Pushed)

		pushed, err := store.PullProfile(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 170, pushed.Coins())

		clean, err := repo.FindUnsynced(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, clean)
	})

	t.Run("quest edit during push is pushed by the next run", func(t *testing.T) {
		repo := questsPersistence.NewSQLiteQuestRepository(workerDB(t))
		store := remote.NewMemoryStore()

		quest := newSyncQuest(t, userID, "Old title")
		require.NoError(t, repo.Upsert(ctx, quest, false))

		edited := false
		store.PushQuestErr = func(*questsDomain.Quest) error {
			if edited {
				return nil
			}
			edited = true
			current, err := repo.FindByID(ctx, quest.ID())
			require.NoError(t, err)
			require.NoError(t, current.SetTitle("Edited mid-push"))
			require.NoError(t, repo.Upsert(ctx, current, false))
			return nil
		}

		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, tokencache.NewMemoryCache(), domain.NewTracker(), testLogger(),
		)

		first := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, first.Err)
		assert.Equal(t, 1, first.Pushed)

		dirty, err := repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		require.Len(t, dirty, 1)
		assert.Equal(t, "Edited mid-push", dirty[0].Title())

		second := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, second.Err)
		assert.Equal(t, 1, second.Pushed)

		pushed, err := store.PullQuest(ctx, userID, quest.ID())
		require.NoError(t, err)
		assert.Equal(t, "Edited mid-push", pushed.Title())
	})

	t.Run("stats rewrite during push is pushed by the next run", func(t *testing.T) {
		repo := statsPersistence.NewSQLiteStatsRepository(workerDB(t))
		store := remote.NewMemoryStore()

		questID := uuid.New()
		date := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
		row := newStatsRow(t, userID, questID, date)
		require.NoError(t, repo.Upsert(ctx, row, false))

		rewritten := false
		store.PushStatsErr = func(*statsDomain.StatsInfo) error {
			if rewritten {
				return nil
			}
			rewritten = true
			skipped, err := statsDomain.NewStatsInfo(userID, questID, date, statsDomain.OutcomeSkipped)
			require.NoError(t, err)
			require.NoError(t, repo.Upsert(ctx, skipped, false))
			return nil
		}

		worker := NewStatsSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, domain.NewTracker(), testLogger(),
		)

		first := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, first.Err)
		assert.Equal(t, 1, first.Pushed)

		dirty, err := repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		require.Len(t, dirty, 1)
		assert.Equal(t, statsDomain.OutcomeSkipped, dirty[0].Outcome)

		second := worker.Run(ctx, domain.Trigger{})
		require.NoError(t, second.Err)
		assert.Equal(t, 1, second.Pushed)

		clean, err := repo.AllUnsynced(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, clean)
	})
}
