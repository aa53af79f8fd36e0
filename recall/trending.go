package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// TrendingRecall 是热销召回源：按累计下单量倒序取 N 个商品。
type TrendingRecall struct {
	Catalog core.Catalog

	// N 为 0 时使用 rctx.Limit
	N int
}

func (r *TrendingRecall) Name() string        { return "recall.trending" }
func (r *TrendingRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *TrendingRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *TrendingRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	products, err := r.Catalog.ListTrendingProducts(ctx, limitOf(r.N, rctx))
	if err != nil {
		return nil, core.CatalogUnavailable(err)
	}
	return wrap(products, "trending"), nil
}

var (
	_ Source        = (*TrendingRecall)(nil)
	_ pipeline.Node = (*TrendingRecall)(nil)
)
