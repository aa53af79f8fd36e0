package core

// RecommendConfig 是推荐相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// DefaultLimit 返回默认推荐数量
	DefaultLimit() int

	// ProductPageLimit 返回商品详情页的推荐数量
	ProductPageLimit() int

	// HistorySize 返回最近浏览保留条数
	HistorySize() int
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultLimit() int {
	return 6
}

func (c *DefaultRecommendConfig) ProductPageLimit() int {
	return 8
}

func (c *DefaultRecommendConfig) HistorySize() int {
	return 5
}
