package core

import "github.com/rushteam/shoprec/pkg/utils"

// 分项得分在 Item.Features 中的 key
const (
	FeatureCategoryScore   = "category_score"
	FeaturePriceScore      = "price_score"
	FeaturePopularityScore = "popularity_score"
	FeaturePreferenceScore = "preference_score"
)

// 常用 Label key
const (
	LabelRecallSource = "recall_source"
	LabelRankModel    = "rank_model"
	LabelFallback     = "fallback"
	LabelPriceTier    = "price_tier"
	LabelFiltered     = "filtered"
)

// Item 是推荐链路中的统一承载结构：商品、特征、分数、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
type Item struct {
	ID       string
	Product  *Product
	Score    float64
	Features map[string]float64
	Labels   map[string]utils.Label
}

func NewItem(p *Product) *Item {
	it := &Item{
		Product:  p,
		Score:    0,
		Features: make(map[string]float64),
		Labels:   make(map[string]utils.Label),
	}
	if p != nil {
		it.ID = p.ID
	}
	return it
}

// NewItems 把商品列表包装成 Item 列表，nil 商品跳过。
func NewItems(products []*Product) []*Item {
	out := make([]*Item, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		out = append(out, NewItem(p))
	}
	return out
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// IsFallback 是否来自兜底策略。
func (it *Item) IsFallback() bool {
	lbl, ok := it.Labels[LabelFallback]
	return ok && lbl.Value == "true"
}

// ScoredCandidate 是对外暴露的推荐结果：商品 + 四项分项得分 + 综合得分。
type ScoredCandidate struct {
	Product             Product `json:"product"`
	CategoryScore       float64 `json:"categoryScore"`
	PriceScore          float64 `json:"priceScore"`
	PopularityScore     float64 `json:"popularityScore"`
	PreferenceScore     float64 `json:"userPreferenceScore"`
	RecommendationScore float64 `json:"recommendationScore"`
	IsFallback          bool    `json:"isFallback"`
	PriceTier           string  `json:"priceTier,omitempty"`
}

// NewScoredCandidate 从 Item 构建结果。
func NewScoredCandidate(it *Item) ScoredCandidate {
	sc := ScoredCandidate{
		CategoryScore:       it.Features[FeatureCategoryScore],
		PriceScore:          it.Features[FeaturePriceScore],
		PopularityScore:     it.Features[FeaturePopularityScore],
		PreferenceScore:     it.Features[FeaturePreferenceScore],
		RecommendationScore: it.Score,
		IsFallback:          it.IsFallback(),
	}
	if it.Product != nil {
		sc.Product = *it.Product
	}
	if lbl, ok := it.Labels[LabelPriceTier]; ok {
		sc.PriceTier = lbl.Value
	}
	return sc
}
