package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/internal/domain"
	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	pkgredis "github.com/gh900098/Mini-Game-Cursor-sub001/pkg/redis"
	"go.uber.org/zap"
)

const prizeTypeCachePrefix = "prize_types:"

// CachedPrizeTypeRepository caches tenant-scoped reads in Redis.
// Any write drops every cached entry, since a global row is visible to all tenants.
type CachedPrizeTypeRepository struct {
	PrizeTypeRepository
	redis *pkgredis.Client
	ttl   time.Duration
}

// NewCachedPrizeTypeRepository wraps next with a Redis read cache
func NewCachedPrizeTypeRepository(next PrizeTypeRepository, redis *pkgredis.Client, ttl time.Duration) *CachedPrizeTypeRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedPrizeTypeRepository{PrizeTypeRepository: next, redis: redis, ttl: ttl}
}

func activeListKey(companyID string) string {
	return fmt.Sprintf("%sactive:%s", prizeTypeCachePrefix, companyID)
}

func slugKey(slug, companyID string) string {
	return fmt.Sprintf("%sslug:%s:%s", prizeTypeCachePrefix, companyID, slug)
}

// FindActive reads through the cache
func (r *CachedPrizeTypeRepository) FindActive(ctx context.Context, companyID string) ([]*domain.PrizeType, error) {
	key := activeListKey(companyID)

	var cached []*domain.PrizeType
	if found, err := r.redis.GetJSON(ctx, key, &cached); err == nil && found {
		return cached, nil
	} else if err != nil {
		logger.Get().WarnContext(ctx, "prize type cache read failed", zap.String("key", key), zap.Error(err))
	}

	types, err := r.PrizeTypeRepository.FindActive(ctx, companyID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, types)
	return types, nil
}

// FindActiveBySlug reads through the cache. Misses are not cached.
func (r *CachedPrizeTypeRepository) FindActiveBySlug(ctx context.Context, slug, companyID string) (*domain.PrizeType, error) {
	key := slugKey(slug, companyID)

	var cached domain.PrizeType
	if found, err := r.redis.GetJSON(ctx, key, &cached); err == nil && found {
		return &cached, nil
	} else if err != nil {
		logger.Get().WarnContext(ctx, "prize type cache read failed", zap.String("key", key), zap.Error(err))
	}

	p, err := r.PrizeTypeRepository.FindActiveBySlug(ctx, slug, companyID)
	if err != nil || p == nil {
		return p, err
	}
	r.store(ctx, key, p)
	return p, nil
}

// Create writes through and invalidates
func (r *CachedPrizeTypeRepository) Create(ctx context.Context, p *domain.PrizeType) error {
	if err := r.PrizeTypeRepository.Create(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Update writes through and invalidates
func (r *CachedPrizeTypeRepository) Update(ctx context.Context, p *domain.PrizeType) error {
	if err := r.PrizeTypeRepository.Update(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Delete writes through and invalidates
func (r *CachedPrizeTypeRepository) Delete(ctx context.Context, id string) error {
	if err := r.PrizeTypeRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedPrizeTypeRepository) store(ctx context.Context, key string, v interface{}) {
	if err := r.redis.SetJSON(ctx, key, v, r.ttl); err != nil {
		logger.Get().WarnContext(ctx, "prize type cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *CachedPrizeTypeRepository) invalidate(ctx context.Context) {
	if _, err := r.redis.DeleteByPrefix(ctx, prizeTypeCachePrefix); err != nil {
		logger.Get().WarnContext(ctx, "prize type cache invalidation failed", zap.Error(err))
	}
}
