package core

import "time"

// UserProfile 是访客偏好画像的核心抽象。
//
// 一句话定义：用户画像 = 推荐 Pipeline 的"个性化信号源"
//
// 它不是某一个 Node，而是：
//   - 每次浏览商品时被更新（偏好学习）
//   - 被 Rank 阶段读取（偏好分）
//   - 被 Fallback 阶段读取（最近浏览）
//   - 按访客持久化，跨页面加载保留，不在访客之间共享
//
// 设计要点：
//
//	维度          作用
//	浏览类目      类目偏好加分
//	价格区间      价格偏好加分（滑动平均）
//	最近浏览      交叉推荐 / 去重
//	更新时间      活跃度加权
type UserProfile struct {
	VisitorID string `json:"visitorId,omitempty"`

	// 浏览过的类目（集合语义，去重）
	ViewedCategories []string `json:"viewedCategories"`

	// 偏好价格区间，首次浏览有价商品前为 nil
	PreferredPriceRange *PriceRange `json:"preferredPriceRange"`

	// 最近浏览，最新在前，按 ID 去重
	RecentlyViewed []ViewedItem `json:"recentlyViewed"`

	// 最后更新时间，从未更新过时为零值
	LastUpdated time.Time `json:"lastUpdated"`
}

// PriceRange 是闭区间 [Min, Max]。
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains 判断价格是否落在区间内（含边界）。
func (r *PriceRange) Contains(price float64) bool {
	if r == nil {
		return false
	}
	return price >= r.Min && price <= r.Max
}

// ViewedItem 是一次浏览记录。
type ViewedItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	ViewedAt time.Time `json:"viewedAt"`
}

// 价格区间系数：首次浏览取 ±30%，之后向新价格的 0.7x / 1.3x 做平均。
const (
	PriceRangeLowerFactor = 0.7
	PriceRangeUpperFactor = 1.3
)

// NewUserProfile 创建一个空画像（LastUpdated 为零值，不享受活跃度加权）。
func NewUserProfile(visitorID string) *UserProfile {
	return &UserProfile{
		VisitorID:        visitorID,
		ViewedCategories: make([]string, 0),
		RecentlyViewed:   make([]ViewedItem, 0),
	}
}

// HasViewedCategory 检查类目是否浏览过。
func (p *UserProfile) HasViewedCategory(category string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.ViewedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// AddViewedCategory 添加浏览类目（空类目与重复类目忽略）。
func (p *UserProfile) AddViewedCategory(category string) {
	if category == "" || p.HasViewedCategory(category) {
		return
	}
	p.ViewedCategories = append(p.ViewedCategories, category)
}

// AddRecentlyViewed 把浏览记录放到最前：已存在则先移除，再截断到 maxSize。
func (p *UserProfile) AddRecentlyViewed(item ViewedItem, maxSize int) {
	out := make([]ViewedItem, 0, len(p.RecentlyViewed)+1)
	out = append(out, item)
	for _, v := range p.RecentlyViewed {
		if v.ID == item.ID {
			continue
		}
		out = append(out, v)
	}
	if maxSize > 0 && len(out) > maxSize {
		out = out[:maxSize]
	}
	p.RecentlyViewed = out
}

// HasRecentlyViewed 检查商品是否在最近浏览中。
func (p *UserProfile) HasRecentlyViewed(id string) bool {
	if p == nil {
		return false
	}
	for _, v := range p.RecentlyViewed {
		if v.ID == id {
			return true
		}
	}
	return false
}

// AdjustPriceRange 按新浏览价格更新偏好价格区间。
// price <= 0 视为无价格信号，不更新。
func (p *UserProfile) AdjustPriceRange(price float64) {
	if price <= 0 {
		return
	}
	lower := price * PriceRangeLowerFactor
	upper := price * PriceRangeUpperFactor
	if p.PreferredPriceRange == nil {
		p.PreferredPriceRange = &PriceRange{Min: lower, Max: upper}
		return
	}
	p.PreferredPriceRange.Min = (p.PreferredPriceRange.Min + lower) / 2
	p.PreferredPriceRange.Max = (p.PreferredPriceRange.Max + upper) / 2
}

// Clone 深拷贝，用于给打分阶段提供只读快照。
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := &UserProfile{
		VisitorID:        p.VisitorID,
		ViewedCategories: append(make([]string, 0, len(p.ViewedCategories)), p.ViewedCategories...),
		RecentlyViewed:   append(make([]ViewedItem, 0, len(p.RecentlyViewed)), p.RecentlyViewed...),
		LastUpdated:      p.LastUpdated,
	}
	if p.PreferredPriceRange != nil {
		r := *p.PreferredPriceRange
		c.PreferredPriceRange = &r
	}
	return c
}
