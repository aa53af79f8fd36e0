package preference

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/shoprec/core"
)

// DefaultKeyPrefix 是多访客场景下的 key 前缀，实际 key 为 {KeyPrefix}:{VisitorID}。
const DefaultKeyPrefix = "user:preferences"

// CacheConfig 控制 Manager 在内存中保留多少访客画像。
type CacheConfig struct {
	// Size 最多缓存的访客数，超出后淘汰最久未访问的，默认 10000
	Size int `yaml:"size"`

	// TTL 画像在内存中的最长保留时间，过期后从 backend 重新加载，默认 5m。
	// 多实例共享 Redis 时，这是各实例之间画像不一致的上限。
	TTL time.Duration `yaml:"ttl"`
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.Size <= 0 {
		c.Size = 10000
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	return c
}

// Manager 为每个访客维护一个 Store，画像之间互不共享。
// 内存中只保留有限个访客（LRU + TTL），被淘汰的访客下次访问时从 backend 重新加载。
type Manager struct {
	backend   core.Store
	keyPrefix string
	opts      []Option

	stores *expirable.LRU[string, *Store]
	loads  singleflight.Group
}

// NewManager 创建访客偏好管理器。
func NewManager(backend core.Store, keyPrefix string, cache CacheConfig, opts ...Option) *Manager {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	cache = cache.withDefaults()
	return &Manager{
		backend:   backend,
		keyPrefix: keyPrefix,
		opts:      opts,
		stores:    expirable.NewLRU[string, *Store](cache.Size, nil, cache.TTL),
	}
}

// For 返回访客的 Store，不在缓存中时从 backend 加载。
// 同一访客的并发首次访问只加载一次，并拿到同一个 Store。
func (m *Manager) For(ctx context.Context, visitorID string) *Store {
	if s, ok := m.stores.Get(visitorID); ok {
		return s
	}
	v, _, _ := m.loads.Do(visitorID, func() (any, error) {
		if s, ok := m.stores.Get(visitorID); ok {
			return s, nil
		}
		// 加载结果会被其他请求复用，不能因为发起请求的访客离开而得到空画像
		s := NewStore(context.WithoutCancel(ctx), m.backend, m.keyPrefix+":"+visitorID, m.opts...)
		m.stores.Add(visitorID, s)
		return s, nil
	})
	return v.(*Store)
}

// Len 返回当前缓存的访客数。
func (m *Manager) Len() int {
	return m.stores.Len()
}

// visitorFromKey 从 {prefix}:{visitorID} 中取出访客 ID。
func visitorFromKey(key string) string {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[i+1:]
	}
	return ""
}
