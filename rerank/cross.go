package rerank

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/utils"
)

// CrossRecommendNode 处理只剩两个候选的情况：
// 如果访客最近浏览过其中一个，就只推荐另一个。
//
// 按候选顺序找第一个最近浏览过的商品，保留另一个；其余情况原样返回。
type CrossRecommendNode struct {
	// Logger 为空时使用 logging.Default()
	Logger logging.Logger
}

func (n *CrossRecommendNode) Name() string {
	return "rerank.cross"
}

func (n *CrossRecommendNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *CrossRecommendNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) != 2 || rctx == nil || rctx.User == nil {
		return items, nil
	}

	for i, it := range items {
		if !rctx.User.HasRecentlyViewed(it.ID) {
			continue
		}
		other := items[1-i]
		other.PutLabel("cross_recommend", utils.Label{Value: it.ID, Source: "rerank"})

		logger := n.Logger
		if logger == nil {
			logger = logging.Default()
		}
		logger.Debug("cross recommendation",
			logging.String("viewed", it.ID),
			logging.String("recommend", other.ID))
		return []*core.Item{other}, nil
	}
	return items, nil
}
