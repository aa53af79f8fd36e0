package rank

// PopularityScore 根据售出比例计算热度：
//
//	r = ordered / max(quantity, 1)，截断到 [0, 1]
//	有销量 ×1.2，周转率 > 0.3 再 ×1.1，最终封顶 1.0
func PopularityScore(ordered, quantity int64) float64 {
	if quantity < 1 {
		quantity = 1
	}
	turnover := float64(ordered) / float64(quantity)

	score := clamp01(turnover)
	if ordered > 0 {
		score *= 1.2
	}
	if turnover > 0.3 {
		score *= 1.1
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
