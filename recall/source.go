// Package recall 从商品目录取候选。目录访问失败直接返回错误，不重试、不吞掉。
package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

// Source 表示一个可复用的召回源（全量目录/最新上架/热销）。
// 召回源同时实现 pipeline.Node，可以直接放在 Pipeline 的第一个位置。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// wrap 把目录商品包装成 Item 并打上召回来源标签。
func wrap(products []*core.Product, source string) []*core.Item {
	items := core.NewItems(products)
	for _, it := range items {
		it.PutLabel(core.LabelRecallSource, utils.Label{Value: source, Source: "recall"})
	}
	return items
}

func limitOf(n int, rctx *core.RecommendContext) int {
	if n > 0 {
		return n
	}
	if rctx != nil && rctx.Limit > 0 {
		return rctx.Limit
	}
	return (&core.DefaultRecommendConfig{}).DefaultLimit()
}
