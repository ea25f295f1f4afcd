package data

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sopassistant/cmd/revision-service/internal/domain"
	"sopassistant/pkg/cache"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCache 进程内缓存替身，可注入故障
type fakeCache struct {
	entries map[string][]byte
	sets    int
	failing bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) GetObject(ctx context.Context, key string, dest interface{}) error {
	if c.failing {
		return errors.New("connection refused")
	}
	data, ok := c.entries[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *fakeCache) SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.failing {
		return errors.New("connection refused")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.entries[key]
	return ok, nil
}

func (c *fakeCache) Close() error { return nil }

func TestCachedHistoryRepository_ReadThrough(t *testing.T) {
	inner := NewMemoryHistoryRepository()
	fake := newFakeCache()
	repo := NewCachedHistoryRepository(inner, fake, log.DefaultLogger)
	ctx := context.Background()

	history := seedHistory(t, inner, "doc-1", "1.0.0", "1.1.0")
	history.Stats = domain.HistoryStats{TotalVersions: 2, TotalChanges: 3}
	require.NoError(t, inner.SaveHistory(ctx, history))

	// 首次读：未命中并回填
	got, err := repo.GetHistory(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stats.TotalVersions)
	assert.Equal(t, 1, fake.sets)

	// 二次读：命中缓存，统计来自缓存副本
	got, err = repo.GetHistory(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stats.TotalChanges)
	assert.Equal(t, 1, fake.sets)

	// 底层未命中直接透传错误，不触碰缓存
	_, err = repo.GetHistory(ctx, "doc-missing")
	assert.ErrorIs(t, err, domain.ErrHistoryNotFound)
}

func TestCachedHistoryRepository_SaveRefreshesCache(t *testing.T) {
	inner := NewMemoryHistoryRepository()
	fake := newFakeCache()
	repo := NewCachedHistoryRepository(inner, fake, log.DefaultLogger)
	ctx := context.Background()

	history := domain.NewVersionHistory("doc-1")
	doc := &domain.DocumentSnapshot{Title: "SOP"}
	require.NoError(t, history.Append(domain.NewVersion("doc-1", domain.MustParseVersion("1.0.0"), doc, "alice")))
	history.Stats = domain.HistoryStats{TotalVersions: 1}
	require.NoError(t, repo.SaveHistory(ctx, history))

	var cached domain.HistoryStats
	require.NoError(t, fake.GetObject(ctx, "revision:stats:doc-1", &cached))
	assert.Equal(t, 1, cached.TotalVersions)

	// 追加后保存刷新缓存副本
	require.NoError(t, history.Append(domain.NewVersion("doc-1", domain.MustParseVersion("1.1.0"), doc, "alice")))
	history.Stats.TotalVersions = 2
	require.NoError(t, repo.SaveHistory(ctx, history))

	require.NoError(t, fake.GetObject(ctx, "revision:stats:doc-1", &cached))
	assert.Equal(t, 2, cached.TotalVersions)
}

func TestCachedHistoryRepository_DegradesOnCacheFailure(t *testing.T) {
	inner := NewMemoryHistoryRepository()
	fake := newFakeCache()
	fake.failing = true
	repo := NewCachedHistoryRepository(inner, fake, log.DefaultLogger)
	ctx := context.Background()

	history := seedHistory(t, inner, "doc-1", "1.0.0")
	history.Stats = domain.HistoryStats{TotalVersions: 1}
	require.NoError(t, inner.SaveHistory(ctx, history))

	// 缓存故障不影响读写路径
	got, err := repo.GetHistory(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stats.TotalVersions)

	require.NoError(t, repo.SaveHistory(ctx, history))
}

func TestCachedHistoryRepository_Passthrough(t *testing.T) {
	inner := NewMemoryHistoryRepository()
	repo := NewCachedHistoryRepository(inner, newFakeCache(), log.DefaultLogger)
	ctx := context.Background()

	seedHistory(t, inner, "doc-1", "1.0.0", "1.1.0", "2.0.0")

	v, err := repo.GetVersion(ctx, "doc-1", domain.MustParseVersion("1.1.0"))
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", v.Number.String())

	versions, total, err := repo.ListVersions(ctx, "doc-1", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, versions, 2)
}
