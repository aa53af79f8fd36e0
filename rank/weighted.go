// Package rank 实现推荐候选的打分：四个分项打分函数，以及把它们写入 Item 并排序的 Node。
package rank

import (
	"context"
	"sort"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/model"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/utils"
)

// WeightedNode 对候选逐个计算类目/价格/热度/偏好分，写入 Features，
// 再由 Model 合成综合分，按分数降序稳定排序（同分保持目录顺序）。
// - 写入 labels：rank_model、price_tier
type WeightedNode struct {
	// Relations 为空时使用 DefaultCategoryRelations
	Relations CategoryRelations

	// Model 为空时使用 model.NewCompositeModel()
	Model model.RankModel
}

func (n *WeightedNode) Name() string        { return "rank.weighted" }
func (n *WeightedNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *WeightedNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	relations := n.Relations
	if relations == nil {
		relations = defaultRelations
	}
	m := n.Model
	if m == nil {
		m = model.NewCompositeModel()
	}

	var ref core.Product
	if rctx != nil && rctx.Reference != nil {
		ref = *rctx.Reference
	}
	var profile *core.UserProfile
	if rctx != nil {
		profile = rctx.User
	}
	now := rctx.Clock()

	for _, it := range items {
		if it == nil || it.Product == nil {
			continue
		}
		p := it.Product
		if it.Features == nil {
			it.Features = make(map[string]float64, 4)
		}
		it.Features[core.FeatureCategoryScore] = relations.Score(ref.Category, p.Category)
		it.Features[core.FeaturePriceScore] = PriceScore(ref.Price, p.Price)
		it.Features[core.FeaturePopularityScore] = PopularityScore(p.OrderedQuantity, p.Quantity)
		it.Features[core.FeaturePreferenceScore] = PreferenceScore(profile, p, now)

		score, err := m.Predict(it.Features)
		if err != nil {
			return nil, err
		}
		it.Score = score
		it.PutLabel(core.LabelRankModel, utils.Label{Value: m.Name(), Source: "rank"})
		it.PutLabel(core.LabelPriceTier, utils.Label{Value: core.PriceTier(p.Price), Source: "rank"})
	}

	sortByScore(items)
	return items, nil
}

// sortByScore 按分数降序稳定排序，nil 排到最后。
func sortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
}
