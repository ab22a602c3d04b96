package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tourguide/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverCache serves from primary until it errors, then from fallback,
// probing primary again once per recoveryInterval.
type FailoverCache struct {
	primary  domain.Cache
	fallback domain.Cache
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverCache(primary, fallback domain.Cache, logger *zerolog.Logger) *FailoverCache {
	return &FailoverCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverCache) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Sub(r.lastCheck) > recoveryInterval
}

func (r *FailoverCache) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary cache failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}

func (r *FailoverCache) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary cache recovered")
	}
}

func (r *FailoverCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if r.usePrimary() {
		found, err := r.primary.Get(ctx, key, dest)
		if err == nil {
			r.markUp()
			return found, nil
		}
		r.markDown(err)
	}
	return r.fallback.Get(ctx, key, dest)
}

func (r *FailoverCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.usePrimary() {
		err := r.primary.Set(ctx, key, value, ttl)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.Set(ctx, key, value, ttl)
}

func (r *FailoverCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
