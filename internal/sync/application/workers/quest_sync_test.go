package workers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/questa/internal/identity"
	questsDomain "github.com/felixgeelhaar/questa/internal/quests/domain"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/felixgeelhaar/questa/internal/sync/infrastructure/remote"
	"github.com/felixgeelhaar/questa/internal/sync/infrastructure/tokencache"
)

// mockQuestRepo is a mock implementation of the quests domain.Repository.
type mockQuestRepo struct {
	mock.Mock
}

func (m *mockQuestRepo) Upsert(ctx context.Context, quest *questsDomain.Quest, markSynced bool) error {
	args := m.Called(ctx, quest, markSynced)
	return args.Error(0)
}

func (m *mockQuestRepo) MarkSynced(ctx context.Context, id uuid.UUID, seen time.Time) error {
	args := m.Called(ctx, id, seen)
	return args.Error(0)
}

func (m *mockQuestRepo) AllUnsynced(ctx context.Context, userID uuid.UUID) ([]*questsDomain.Quest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*questsDomain.Quest), args.Error(1)
}

func (m *mockQuestRepo) FindByID(ctx context.Context, id uuid.UUID) (*questsDomain.Quest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*questsDomain.Quest), args.Error(1)
}

func (m *mockQuestRepo) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*questsDomain.Quest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*questsDomain.Quest), args.Error(1)
}

func (m *mockQuestRepo) ActiveOn(ctx context.Context, userID uuid.UUID, date time.Time) ([]*questsDomain.Quest, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*questsDomain.Quest), args.Error(1)
}

func (m *mockQuestRepo) ExistsByTitle(ctx context.Context, userID uuid.UUID, title string) (bool, error) {
	args := m.Called(ctx, userID, title)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSession(userID uuid.UUID) *identity.Session {
	return &identity.Session{
		UserID:           userID,
		Token:            "test-token",
		AccountCreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newSyncQuest(t *testing.T, userID uuid.UUID, title string) *questsDomain.Quest {
	t.Helper()
	quest, err := questsDomain.NewQuest(userID, title, questsDomain.EveryDay(), questsDomain.Window{}, questsDomain.Reward{Coins: 5, XP: 10})
	require.NoError(t, err)
	return quest
}

func TestQuestSyncWorker_Run(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("no session is a successful no-op", func(t *testing.T) {
		repo := new(mockQuestRepo)
		tracker := domain.NewTracker()
		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(nil),
			repo,
			remote.NewMemoryStore(),
			tokencache.NewMemoryCache(),
			tracker,
			testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{})

		assert.Equal(t, domain.RunResult{}, result)
		assert.Equal(t, domain.StatusPending, tracker.Current(domain.WorkerQuests))
		repo.AssertNotCalled(t, "AllUnsynced", mock.Anything, mock.Anything)
	})

	t.Run("first sync pulls remote rows and pushes nothing", func(t *testing.T) {
		store := remote.NewMemoryStore()
		seeded := newSyncQuest(t, userID, "Morning run")
		store.SeedQuest(seeded)

		repo := new(mockQuestRepo)
		repo.On("Upsert", ctx, seeded, true).Return(nil)

		tracker := domain.NewTracker()
		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, tokencache.NewMemoryCache(), tracker, testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{IsFirstSync: true})

		require.NoError(t, result.Err)
		assert.Equal(t, 1, result.Pulled)
		assert.Equal(t, 0, result.Pushed)
		questPushes, _, _ := store.PushCounts()
		assert.Equal(t, 0, questPushes)
		assert.Equal(t, domain.StatusSuccess, tracker.Current(domain.WorkerQuests))
		repo.AssertExpectations(t)
	})

	t.Run("incremental run pushes dirty rows and marks them synced", func(t *testing.T) {
		store := remote.NewMemoryStore()
		questA := newSyncQuest(t, userID, "Stretch")
		questB := newSyncQuest(t, userID, "Read a chapter")

		repo := new(mockQuestRepo)
		repo.On("AllUnsynced", ctx, userID).Return([]*questsDomain.Quest{questA, questB}, nil)
		repo.On("MarkSynced", ctx, questA.ID(), questA.UpdatedAt()).Return(nil)
		repo.On("MarkSynced", ctx, questB.ID(), questB.UpdatedAt()).Return(nil)

		tracker := domain.NewTracker()
		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, tokencache.NewMemoryCache(), tracker, testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{})

		require.NoError(t, result.Err)
		assert.Equal(t, 2, result.Pushed)
		assert.Equal(t, 0, result.Skipped)
		assert.False(t, result.Retry)
		questPushes, _, _ := store.PushCounts()
		assert.Equal(t, 2, questPushes)
		repo.AssertExpectations(t)
	})

	t.Run("a rejected push skips that row only and requests a retry", func(t *testing.T) {
		store := remote.NewMemoryStore()
		questBad := newSyncQuest(t, userID, "Flaky quest")
		questGood := newSyncQuest(t, userID, "Solid quest")
		store.PushQuestErr = func(q *questsDomain.Quest) error {
			if q.ID() == questBad.ID() {
				return errors.New("remote rejected row")
			}
			return nil
		}

		repo := new(mockQuestRepo)
		repo.On("AllUnsynced", ctx, userID).Return([]*questsDomain.Quest{questBad, questGood}, nil)
		repo.On("MarkSynced", ctx, questGood.ID(), questGood.UpdatedAt()).Return(nil)

		tracker := domain.NewTracker()
		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, tokencache.NewMemoryCache(), tracker, testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{})

		require.NoError(t, result.Err)
		assert.Equal(t, 1, result.Pushed)
		assert.Equal(t, 1, result.Skipped)
		assert.True(t, result.Retry)
		// Skipped rows are a degraded success, not a failure.
		assert.Equal(t, domain.StatusSuccess, tracker.Current(domain.WorkerQuests))
		repo.AssertNotCalled(t, "MarkSynced", ctx, questBad.ID(), questBad.UpdatedAt())
		repo.AssertExpectations(t)
	})

	t.Run("repository read failure marks the worker failed", func(t *testing.T) {
		repo := new(mockQuestRepo)
		repo.On("AllUnsynced", ctx, userID).Return(nil, errors.New("database locked"))

		tracker := domain.NewTracker()
		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, remote.NewMemoryStore(), tokencache.NewMemoryCache(), tracker, testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{})

		require.Error(t, result.Err)
		assert.True(t, result.Retry)
		assert.Equal(t, domain.StatusFailed, tracker.Current(domain.WorkerQuests))
	})
}

func TestQuestSyncWorker_PullCanonical(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("pulls the named quest and stores it synced", func(t *testing.T) {
		store := remote.NewMemoryStore()
		remoteQuest := newSyncQuest(t, userID, "Server-edited quest")
		store.SeedQuest(remoteQuest)

		repo := new(mockQuestRepo)
		repo.On("AllUnsynced", ctx, userID).Return([]*questsDomain.Quest{}, nil)
		repo.On("Upsert", ctx, remoteQuest, true).Return(nil)

		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, tokencache.NewMemoryCache(), domain.NewTracker(), testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{PullForQuest: remoteQuest.ID()})

		require.NoError(t, result.Err)
		assert.Equal(t, 1, result.Pulled)
		repo.AssertExpectations(t)
	})

	t.Run("invalidates the cached token for integration quests", func(t *testing.T) {
		store := remote.NewMemoryStore()
		remoteQuest := newSyncQuest(t, userID, "Log workout")
		remoteQuest.SetIntegration(questsDomain.IntegrationHealth)
		store.SeedQuest(remoteQuest)

		tokens := tokencache.NewMemoryCache()
		require.NoError(t, tokens.Set(ctx, "health", "cached-token"))

		repo := new(mockQuestRepo)
		repo.On("AllUnsynced", ctx, userID).Return([]*questsDomain.Quest{}, nil)
		repo.On("Upsert", ctx, remoteQuest, true).Return(nil)

		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, tokens, domain.NewTracker(), testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{PullForQuest: remoteQuest.ID()})

		require.NoError(t, result.Err)
		token, err := tokens.Get(ctx, "health")
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("a quest deleted remotely is skipped without failing the run", func(t *testing.T) {
		repo := new(mockQuestRepo)
		repo.On("AllUnsynced", ctx, userID).Return([]*questsDomain.Quest{}, nil)

		worker := NewQuestSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, remote.NewMemoryStore(), tokencache.NewMemoryCache(), domain.NewTracker(), testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{PullForQuest: uuid.New()})

		require.NoError(t, result.Err)
		assert.Equal(t, 0, result.Pulled)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	})
}
