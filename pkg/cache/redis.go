package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache 基于 Redis 的缓存实现
type RedisCache struct {
	client  *redis.Client
	options *Options
}

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(addr, password string, db int, opts *Options) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if opts == nil {
		opts = &Options{
			DefaultTTL: 5 * time.Minute,
			Serializer: &JSONSerializer{},
		}
	}
	if opts.Serializer == nil {
		opts.Serializer = &JSONSerializer{}
	}

	return &RedisCache{
		client:  client,
		options: opts,
	}
}

// makeKey 生成带前缀的键
func (c *RedisCache) makeKey(key string) string {
	if c.options.KeyPrefix != "" {
		return fmt.Sprintf("%s:%s", c.options.KeyPrefix, key)
	}
	return key
}

// GetObject 获取对象（自动反序列化）
func (c *RedisCache) GetObject(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.makeKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return err
	}

	return c.options.Serializer.Deserialize(data, dest)
}

// SetObject 设置对象（自动序列化）
func (c *RedisCache) SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := c.options.Serializer.Serialize(value)
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = c.options.DefaultTTL
	}
	return c.client.Set(ctx, c.makeKey(key), data, ttl).Err()
}

// Delete 删除缓存
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.makeKey(key)).Err()
}

// Exists 检查键是否存在
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	result, err := c.client.Exists(ctx, c.makeKey(key)).Result()
	return result > 0, err
}

// Close 关闭 Redis 连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}
