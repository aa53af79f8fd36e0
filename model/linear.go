package model

import (
	"fmt"

	"github.com/rushteam/shoprec/core"
)

// Term 是线性模型中的一项：特征 key 与权重。
type Term struct {
	Feature string
	Weight  float64
}

// LinearModel 是固定权重的线性加权模型：score = Σ Weight_i * Feature_i。
//
// 与逻辑回归不同，输出不过 sigmoid：各分项本身就在 [0,1]，
// 权重之和为 1 时综合分也在 [0,1]。按 Terms 的顺序累加，结果可复现。
type LinearModel struct {
	ModelName string
	Terms     []Term
}

// 综合推荐分权重
const (
	WeightCategory   = 0.40
	WeightPrice      = 0.25
	WeightPopularity = 0.20
	WeightPreference = 0.15
)

// NewCompositeModel 返回综合推荐分模型：类目 40%、价格 25%、热度 20%、偏好 15%。
func NewCompositeModel() *LinearModel {
	return &LinearModel{
		ModelName: "composite",
		Terms: []Term{
			{Feature: core.FeatureCategoryScore, Weight: WeightCategory},
			{Feature: core.FeaturePriceScore, Weight: WeightPrice},
			{Feature: core.FeaturePopularityScore, Weight: WeightPopularity},
			{Feature: core.FeaturePreferenceScore, Weight: WeightPreference},
		},
	}
}

func (m *LinearModel) Name() string {
	if m.ModelName == "" {
		return "linear"
	}
	return m.ModelName
}

// Predict 要求每一项特征都存在，缺失说明上游打分节点有问题。
func (m *LinearModel) Predict(features map[string]float64) (float64, error) {
	score := 0.0
	for _, t := range m.Terms {
		v, ok := features[t.Feature]
		if !ok {
			return 0, fmt.Errorf("model %s: missing feature %q", m.Name(), t.Feature)
		}
		score += t.Weight * v
	}
	return score, nil
}
