package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// NewestRecall 召回最新上架的商品（按创建时间倒序），用于兜底推荐。
// 取回的条数就是本次推荐数量，参考商品与缺货商品由后续过滤处理，
// 所以兜底结果可能少于 N 条。
type NewestRecall struct {
	Catalog core.Catalog

	// N 为 0 时使用 rctx.Limit
	N int
}

func (r *NewestRecall) Name() string        { return "recall.newest" }
func (r *NewestRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *NewestRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *NewestRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	products, err := r.Catalog.ListRecentProducts(ctx, limitOf(r.N, rctx))
	if err != nil {
		return nil, core.CatalogUnavailable(err)
	}
	return wrap(products, "newest"), nil
}

var (
	_ Source        = (*NewestRecall)(nil)
	_ pipeline.Node = (*NewestRecall)(nil)
)
