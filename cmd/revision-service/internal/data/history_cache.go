package data

import (
	"context"
	"errors"
	"time"

	"sopassistant/cmd/revision-service/internal/domain"
	"sopassistant/pkg/cache"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	statsKeyPrefix  = "revision:stats:"
	statsDefaultTTL = 10 * time.Minute
)

// CachedHistoryRepository 版本历史仓储的读穿透缓存装饰器
// 仅缓存聚合统计，版本内容始终走底层仓储；每次写入使缓存失效
type CachedHistoryRepository struct {
	inner  domain.VersionHistoryRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *log.Helper
}

// NewCachedHistoryRepository 创建带统计缓存的版本历史仓储
func NewCachedHistoryRepository(inner domain.VersionHistoryRepository, c cache.Cache, logger log.Logger) *CachedHistoryRepository {
	return &CachedHistoryRepository{
		inner:  inner,
		cache:  c,
		ttl:    statsDefaultTTL,
		logger: log.NewHelper(log.With(logger, "module", "history-cache")),
	}
}

// GetHistory 获取版本历史，统计部分优先取缓存
func (r *CachedHistoryRepository) GetHistory(ctx context.Context, documentID string) (*domain.VersionHistory, error) {
	history, err := r.inner.GetHistory(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var stats domain.HistoryStats
	cacheErr := r.cache.GetObject(ctx, statsKeyPrefix+documentID, &stats)
	switch {
	case cacheErr == nil:
		history.Stats = stats
	case errors.Is(cacheErr, cache.ErrCacheMiss):
		if err := r.cache.SetObject(ctx, statsKeyPrefix+documentID, history.Stats, r.ttl); err != nil {
			r.logger.WithContext(ctx).Warnf("failed to cache stats for doc=%s: %v", documentID, err)
		}
	default:
		// 缓存故障降级为直读
		r.logger.WithContext(ctx).Warnf("stats cache read failed for doc=%s: %v", documentID, cacheErr)
	}

	return history, nil
}

// SaveHistory 保存版本历史并刷新统计缓存
func (r *CachedHistoryRepository) SaveHistory(ctx context.Context, history *domain.VersionHistory) error {
	if err := r.inner.SaveHistory(ctx, history); err != nil {
		return err
	}

	if err := r.cache.SetObject(ctx, statsKeyPrefix+history.DocumentID, history.Stats, r.ttl); err != nil {
		r.logger.WithContext(ctx).Warnf("failed to refresh stats cache for doc=%s: %v", history.DocumentID, err)
	}
	return nil
}

// GetVersion 直接透传底层仓储
func (r *CachedHistoryRepository) GetVersion(ctx context.Context, documentID string, number domain.SemanticVersion) (*domain.Version, error) {
	return r.inner.GetVersion(ctx, documentID, number)
}

// ListVersions 直接透传底层仓储
func (r *CachedHistoryRepository) ListVersions(ctx context.Context, documentID string, limit, offset int) ([]*domain.Version, int, error) {
	return r.inner.ListVersions(ctx, documentID, limit, offset)
}
