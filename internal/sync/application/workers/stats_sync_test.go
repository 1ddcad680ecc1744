package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/questa/internal/identity"
	statsDomain "github.com/felixgeelhaar/questa/internal/stats/domain"
	"github.com/felixgeelhaar/questa/internal/sync/domain"
	"github.com/felixgeelhaar/questa/internal/sync/infrastructure/remote"
)

// mockStatsRepo is a mock implementation of the stats domain.Repository.
type mockStatsRepo struct {
	mock.Mock
}

func (m *mockStatsRepo) Upsert(ctx context.Context, info *statsDomain.StatsInfo, markSynced bool) error {
	args := m.Called(ctx, info, markSynced)
	return args.Error(0)
}

func (m *mockStatsRepo) MarkSynced(ctx context.Context, userID, questID uuid.UUID, date time.Time, seenOutcome statsDomain.Outcome) error {
	args := m.Called(ctx, userID, questID, date, seenOutcome)
	return args.Error(0)
}

func (m *mockStatsRepo) AllUnsynced(ctx context.Context, userID uuid.UUID) ([]*statsDomain.StatsInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*statsDomain.StatsInfo), args.Error(1)
}

func (m *mockStatsRepo) Find(ctx context.Context, userID, questID uuid.UUID, date time.Time) (*statsDomain.StatsInfo, error) {
	args := m.Called(ctx, userID, questID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*statsDomain.StatsInfo), args.Error(1)
}

func (m *mockStatsRepo) FindRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*statsDomain.StatsInfo, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*statsDomain.StatsInfo), args.Error(1)
}

func newStatsRow(t *testing.T, userID, questID uuid.UUID, date time.Time) *statsDomain.StatsInfo {
	t.Helper()
	info, err := statsDomain.NewStatsInfo(userID, questID, date, statsDomain.OutcomeCompleted)
	require.NoError(t, err)
	return info
}

func TestStatsSyncWorker_Run(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	questID := uuid.New()

	t.Run("no session is a successful no-op", func(t *testing.T) {
		repo := new(mockStatsRepo)
		tracker := domain.NewTracker()
		worker := NewStatsSyncWorker(
			identity.NewStaticProvider(nil),
			repo, remote.NewMemoryStore(), tracker, testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{})

		assert.Equal(t, domain.RunResult{}, result)
		assert.Equal(t, domain.StatusPending, tracker.Current(domain.WorkerStats))
		repo.AssertNotCalled(t, "AllUnsynced", mock.Anything, mock.Anything)
	})

	t.Run("first sync pulls the account-creation-to-today range", func(t *testing.T) {
		store := remote.NewMemoryStore()
		// Session account created 2026-01-01, clock fixed at 2026-01-10.
		inRange := newStatsRow(t, userID, questID, time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC))
		tooOld := newStatsRow(t, userID, questID, time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC))
		tooNew := newStatsRow(t, userID, questID, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))
		store.SeedStats(inRange)
		store.SeedStats(tooOld)
		store.SeedStats(tooNew)

		repo := new(mockStatsRepo)
		repo.On("Upsert", ctx, inRange, true).Return(nil)

		worker := NewStatsSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, domain.NewTracker(), testLogger(),
		).WithClock(func() time.Time {
			return time.Date(2026, 1, 10, 15, 30, 0, 0, time.UTC)
		})

		result := worker.Run(ctx, domain.Trigger{IsFirstSync: true})

		require.NoError(t, result.Err)
		assert.Equal(t, 1, result.Pulled)
		_, statsPushes, _ := store.PushCounts()
		assert.Equal(t, 0, statsPushes)
		repo.AssertExpectations(t)
	})

	t.Run("incremental run pushes dirty rows and marks them synced", func(t *testing.T) {
		store := remote.NewMemoryStore()
		rowA := newStatsRow(t, userID, questID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		rowB := newStatsRow(t, userID, questID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))

		repo := new(mockStatsRepo)
		repo.On("AllUnsynced", ctx, userID).Return([]*statsDomain.StatsInfo{rowA, rowB}, nil)
		repo.On("MarkSynced", ctx, userID, questID, rowA.Date, rowA.Outcome).Return(nil)
		repo.On("MarkSynced", ctx, userID, questID, rowB.Date, rowB.Outcome).Return(nil)

		worker := NewStatsSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, domain.NewTracker(), testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{})

		require.NoError(t, result.Err)
		assert.Equal(t, 2, result.Pushed)
		assert.False(t, result.Retry)
		repo.AssertExpectations(t)
	})

	t.Run("a rejected row stays dirty without blocking the rest", func(t *testing.T) {
		store := remote.NewMemoryStore()
		rowBad := newStatsRow(t, userID, questID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		rowGood := newStatsRow(t, userID, questID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
		store.PushStatsErr = func(info *statsDomain.StatsInfo) error {
			if info.Date.Equal(rowBad.Date) {
				return errors.New("remote rejected row")
			}
			return nil
		}

		repo := new(mockStatsRepo)
		repo.On("AllUnsynced", ctx, userID).Return([]*statsDomain.StatsInfo{rowBad, rowGood}, nil)
		repo.On("MarkSynced", ctx, userID, questID, rowGood.Date, rowGood.Outcome).Return(nil)

		tracker := domain.NewTracker()
		worker := NewStatsSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, store, tracker, testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{})

		require.NoError(t, result.Err)
		assert.Equal(t, 1, result.Pushed)
		assert.Equal(t, 1, result.Skipped)
		assert.True(t, result.Retry)
		assert.Equal(t, domain.StatusSuccess, tracker.Current(domain.WorkerStats))
		repo.AssertNotCalled(t, "MarkSynced", ctx, userID, questID, rowBad.Date, rowBad.Outcome)
		repo.AssertExpectations(t)
	})

	t.Run("repository read failure marks the worker failed", func(t *testing.T) {
		repo := new(mockStatsRepo)
		repo.On("AllUnsynced", ctx, userID).Return(nil, errors.New("database locked"))

		tracker := domain.NewTracker()
		worker := NewStatsSyncWorker(
			identity.NewStaticProvider(testSession(userID)),
			repo, remote.NewMemoryStore(), tracker, testLogger(),
		)

		result := worker.Run(ctx, domain.Trigger{})

		require.Error(t, result.Err)
		assert.True(t, result.Retry)
		assert.Equal(t, domain.StatusFailed, tracker.Current(domain.WorkerStats))
	})
}
