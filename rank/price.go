package rank

import "math"

// PriceScoreNeutral 是任一方没有价格信号时的中性分。
const PriceScoreNeutral = 0.5

// PriceScore 按相对价差 |target-current|/current 分档打分，边界归入高分档。
// current 为参考商品价格，target 为候选商品价格；任一 <= 0 视为无价格信号。
func PriceScore(current, target float64) float64 {
	if !(current > 0) || !(target > 0) {
		return PriceScoreNeutral
	}
	diff := math.Abs(target-current) / current
	switch {
	case diff <= 0.3:
		return 1.0
	case diff <= 0.5:
		return 0.7
	case diff <= 1.0:
		return 0.4
	default:
		return 0.1
	}
}
