package rank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// 兜底结果的占位分，让调用方可以把兜底与正常结果一视同仁地展示。
const (
	FallbackCategoryScore   = 0.3
	FallbackPriceScore      = 0.5
	FallbackPopularityScore = 0.2
	FallbackPreferenceScore = 0.5
	FallbackScore           = 0.5
)

// FallbackScoreNode 给兜底候选写入固定占位分并打上 fallback 标记，不改变顺序。
type FallbackScoreNode struct{}

func (n *FallbackScoreNode) Name() string        { return "rank.fallback" }
func (n *FallbackScoreNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *FallbackScoreNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Features == nil {
			it.Features = make(map[string]float64, 4)
		}
		it.Features[core.FeatureCategoryScore] = FallbackCategoryScore
		it.Features[core.FeaturePriceScore] = FallbackPriceScore
		it.Features[core.FeaturePopularityScore] = FallbackPopularityScore
		it.Features[core.FeaturePreferenceScore] = FallbackPreferenceScore
		it.Score = FallbackScore
		it.PutLabel(core.LabelFallback, utils.Label{Value: "true", Source: "fallback"})
		if it.Product != nil {
			it.PutLabel(core.LabelPriceTier, utils.Label{Value: core.PriceTier(it.Product.Price), Source: "fallback"})
		}
	}
	return items, nil
}
