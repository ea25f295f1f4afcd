package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// Cache 缓存接口
type Cache interface {
	// GetObject 获取对象（自动反序列化），未命中返回 ErrCacheMiss
	GetObject(ctx context.Context, key string, dest interface{}) error

	// SetObject 设置对象（自动序列化）
	SetObject(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete 删除缓存
	Delete(ctx context.Context, key string) error

	// Exists 检查键是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Close 关闭连接
	Close() error
}

// Options 缓存选项
type Options struct {
	// 默认过期时间
	DefaultTTL time.Duration

	// 键前缀
	KeyPrefix string

	// 序列化方式
	Serializer Serializer
}

// Serializer 序列化器接口
type Serializer interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte, v interface{}) error
}

// JSONSerializer JSON 序列化器
type JSONSerializer struct{}

// Serialize 序列化
func (s *JSONSerializer) Serialize(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Deserialize 反序列化
func (s *JSONSerializer) Deserialize(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
