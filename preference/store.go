// Package preference 维护访客的偏好画像：浏览类目、偏好价格区间、最近浏览。
//
// 偏好学习是尽力而为的增强：持久化失败只记录日志，不影响推荐结果。
package preference

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// DefaultKey 是单访客场景下的存储 key。
const DefaultKey = "userPreferences"

// Store 是单个访客的偏好画像，每次浏览都会更新并持久化。
//
// 并发：画像由互斥锁保护；持久化是 last-write-wins，不做合并。
type Store struct {
	mu      sync.Mutex
	profile *core.UserProfile

	backend     core.Store
	key         string
	historySize int
	now         func() time.Time
	logger      logging.Logger
}

// Option 配置 Store。
type Option func(*Store)

// WithHistorySize 设置最近浏览保留条数（默认 5）。
func WithHistorySize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithClock 替换时钟（测试用）。
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger 设置 Logger。
func WithLogger(l logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore 创建访客偏好 Store，并从 backend 中加载已有画像。
// backend 为 nil 时仅在内存中维护；加载失败时从空画像开始。
func NewStore(ctx context.Context, backend core.Store, key string, opts ...Option) *Store {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{
		backend:     backend,
		key:         key,
		historySize: (&core.DefaultRecommendConfig{}).HistorySize(),
		now:         time.Now,
		logger:      logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.profile = s.load(ctx)
	return s
}

// Profile 返回画像的深拷贝快照。
func (s *Store) Profile() *core.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Update 记录一次商品浏览：
//  1. 类目加入浏览类目集合
//  2. 商品放到最近浏览最前（去重后截断）
//  3. 有价格时调整偏好价格区间（首次 ±30%，之后与新区间取平均）
//  4. 更新 lastUpdated 并持久化
func (s *Store) Update(ctx context.Context, p *core.Product) {
	if p == nil {
		return
	}

	s.mu.Lock()
	now := s.now()
	s.profile.AddViewedCategory(p.Category)
	s.profile.AddRecentlyViewed(core.ViewedItem{ID: p.ID, Name: p.Name, ViewedAt: now}, s.historySize)
	s.profile.AdjustPriceRange(p.Price)
	s.profile.LastUpdated = now
	snapshot := s.profile.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

// Reset 把画像恢复为空（LastUpdated 也清零）并持久化。
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	visitorID := s.profile.VisitorID
	s.profile = core.NewUserProfile(visitorID)
	snapshot := s.profile.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
}

func (s *Store) load(ctx context.Context) *core.UserProfile {
	empty := core.NewUserProfile(visitorFromKey(s.key))
	if s.backend == nil {
		return empty
	}

	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			s.logger.Warn("load user preferences failed",
				logging.String("key", s.key),
				logging.String("store", s.backend.Name()),
				logging.Err(err))
		}
		return empty
	}

	var p core.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("decode user preferences failed",
			logging.String("key", s.key),
			logging.Err(err))
		return empty
	}
	if p.ViewedCategories == nil {
		p.ViewedCategories = make([]string, 0)
	}
	if p.RecentlyViewed == nil {
		p.RecentlyViewed = make([]core.ViewedItem, 0)
	}
	if p.VisitorID == "" {
		p.VisitorID = empty.VisitorID
	}
	return &p
}

// persist 写入 backend；失败只记录日志。
func (s *Store) persist(ctx context.Context, p *core.UserProfile) {
	if s.backend == nil {
		return
	}
	data, err := json.Marshal(p)
	if err == nil {
		err = s.backend.Set(ctx, s.key, data)
	}
	if err != nil {
		metrics.PreferencePersistErrors.Inc()
		s.logger.Warn("save user preferences failed",
			logging.String("key", s.key),
			logging.String("store", s.backend.Name()),
			logging.Err(err))
	}
}
