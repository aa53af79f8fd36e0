package recommend

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/preference"
)

// Session 是展示层使用的推荐接口：一个访客 + 一个引擎。
type Session struct {
	engine *Engine
	prefs  *preference.Store
}

// NewSession 绑定引擎与访客偏好。
func NewSession(engine *Engine, prefs *preference.Store) *Session {
	return engine.Session(prefs)
}

// GetRecommendations 为参考商品生成推荐，会先把参考商品记为一次浏览。
func (s *Session) GetRecommendations(ctx context.Context, reference *core.Product, limit int) ([]core.ScoredCandidate, error) {
	return s.engine.Recommend(ctx, s.prefs, reference, limit)
}

// UpdateUserPreferences 记录一次浏览（例如点击了某个推荐商品）。
func (s *Session) UpdateUserPreferences(ctx context.Context, p *core.Product) {
	if s.prefs == nil {
		return
	}
	s.prefs.Update(ctx, p)
}

// ResetUserPreferences 清空访客偏好。
func (s *Session) ResetUserPreferences(ctx context.Context) {
	if s.prefs == nil {
		return
	}
	s.prefs.Reset(ctx)
}

// Profile 返回访客偏好快照，没有绑定偏好时返回 nil。
func (s *Session) Profile() *core.UserProfile {
	if s.prefs == nil {
		return nil
	}
	return s.prefs.Profile()
}
