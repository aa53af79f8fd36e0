package rank

import (
	"time"

	"github.com/rushteam/shoprec/core"
)

// 偏好分参数
const (
	PreferenceBase          = 0.5
	PreferenceCategoryBonus = 0.3
	PreferencePriceBonus    = 0.2
	PreferenceRecencyBoost  = 1.1
	PreferenceRecencyWindow = 7 * 24 * time.Hour
)

// PreferenceScore 计算候选商品与访客偏好的契合度。
// 活跃度加权作用于 base+bonus 的总和；从未更新过的画像不加权。
func PreferenceScore(profile *core.UserProfile, p *core.Product, now time.Time) float64 {
	score := PreferenceBase
	if profile == nil || p == nil {
		return score
	}

	if profile.HasViewedCategory(p.Category) {
		score += PreferenceCategoryBonus
	}
	if p.HasPrice() && profile.PreferredPriceRange.Contains(p.Price) {
		score += PreferencePriceBonus
	}
	if !profile.LastUpdated.IsZero() && now.Sub(profile.LastUpdated) < PreferenceRecencyWindow {
		score *= PreferenceRecencyBoost
	}
	return clamp01(score)
}
