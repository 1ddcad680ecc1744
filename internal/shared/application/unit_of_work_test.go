package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestWithUnitOfWork(t *testing.T) {
	ctx := context.Background()

	t.Run("executes the function in the transaction context and commits", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		txCtx := context.WithValue(ctx, "tx", "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)

		executed := false
		err := WithUnitOfWork(ctx, uow, func(fnCtx context.Context) error {
			executed = true
			assert.Equal(t, txCtx, fnCtx)
			return nil
		})

		require.NoError(t, err)
		assert.True(t, executed)
		uow.AssertExpectations(t)
	})

	t.Run("rolls back when the function fails", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		txCtx := context.WithValue(ctx, "tx", "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		fnErr := errors.New("function error")
		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return fnErr })

		assert.Equal(t, fnErr, err)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
		uow.AssertExpectations(t)
	})

	t.Run("a begin failure skips the function", func(t *testing.T) {
		uow := new(mockUnitOfWork)

		beginErr := errors.New("begin error")
		uow.On("Begin", ctx).Return(ctx, beginErr)

		executed := false
		err := WithUnitOfWork(ctx, uow, func(context.Context) error {
			executed = true
			return nil
		})

		assert.Equal(t, beginErr, err)
		assert.False(t, executed)
	})

	t.Run("surfaces a commit failure", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		txCtx := context.WithValue(ctx, "tx", "transaction")

		commitErr := errors.New("commit error")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(commitErr)

		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return nil })

		assert.Equal(t, commitErr, err)
	})

	t.Run("the function error wins over a rollback error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		txCtx := context.WithValue(ctx, "tx", "transaction")

		fnErr := errors.New("function error")
		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(errors.New("rollback error"))

		err := WithUnitOfWork(ctx, uow, func(context.Context) error { return fnErr })

		assert.Equal(t, fnErr, err)
	})
}
