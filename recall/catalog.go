package recall

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
)

// CatalogRecall 召回除参考商品外的全部目录商品，排除在数据访问层完成。
type CatalogRecall struct {
	Catalog core.Catalog
}

func (r *CatalogRecall) Name() string        { return "recall.catalog" }
func (r *CatalogRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CatalogRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *CatalogRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	products, err := r.Catalog.ListProducts(ctx, rctx.ReferenceID())
	if err != nil {
		return nil, core.CatalogUnavailable(err)
	}
	return wrap(products, "catalog"), nil
}

var (
	_ Source        = (*CatalogRecall)(nil)
	_ pipeline.Node = (*CatalogRecall)(nil)
)
