package model

import (
	"math"
	"testing"

	"github.com/rushteam/shoprec/core"
)

func TestCompositeModel_Predict(t *testing.T) {
	m := NewCompositeModel()

	tests := []struct {
		name     string
		features map[string]float64
		want     float64
	}{
		{
			name: "all ones",
			features: map[string]float64{
				core.FeatureCategoryScore:   1,
				core.FeaturePriceScore:      1,
				core.FeaturePopularityScore: 1,
				core.FeaturePreferenceScore: 1,
			},
			want: 1,
		},
		{
			name: "saree to kurta",
			features: map[string]float64{
				core.FeatureCategoryScore:   0.7,
				core.FeaturePriceScore:      1.0,
				core.FeaturePopularityScore: 0,
				core.FeaturePreferenceScore: 0.55,
			},
			want: 0.4*0.7 + 0.25*1.0 + 0.15*0.55,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Predict(tt.features)
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Predict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompositeModel_MissingFeature(t *testing.T) {
	m := NewCompositeModel()
	if _, err := m.Predict(map[string]float64{core.FeatureCategoryScore: 1}); err == nil {
		t.Error("缺少特征时应返回错误")
	}
}

func TestCompositeModel_WeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, term := range NewCompositeModel().Terms {
		sum += term.Weight
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("权重之和 = %v, want 1", sum)
	}
}
