package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverCache(t *testing.T) {
	primary := new(mockCache)
	fallback := new(mockCache)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverCache(primary, fallback, &logger)
	ctx := context.Background()
	var dest string

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Get", ctx, "a", &dest).Return(true, nil).Once()

		found, err := repo.Get(ctx, "a", &dest)
		assert.NoError(t, err)
		assert.True(t, found)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("Get", ctx, "b", &dest).Return(false, errors.New("fail")).Once()
		fallback.On("Get", ctx, "b", &dest).Return(true, nil).Once()

		found, err := repo.Get(ctx, "b", &dest)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("AlreadyDownSkipsPrimary", func(t *testing.T) {
		fallback.On("Set", ctx, "c", 1, time.Minute).Return(nil).Once()

		assert.NoError(t, repo.Set(ctx, "c", 1, time.Minute))
		fallback.AssertExpectations(t)
		primary.AssertNotCalled(t, "Set", ctx, "c", 1, time.Minute)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)
		primary.On("CheckRateLimit", ctx, "user:1", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "user:1", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)
		primary.On("Set", ctx, "d", "v", time.Hour).Return(errors.New("still fail")).Once()
		fallback.On("Set", ctx, "d", "v", time.Hour).Return(nil).Once()

		assert.NoError(t, repo.Set(ctx, "d", "v", time.Hour))
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		repo.isDown.Store(false)
		primary.On("CheckRateLimit", ctx, "user:6", 10, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "user:6", 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "user:6", 10, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
