package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
)

// InStockFilter 过滤剩余库存 <= 0 的商品。
type InStockFilter struct{}

func (f *InStockFilter) Name() string {
	return "filter.in_stock"
}

func (f *InStockFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || item.Product == nil {
		return true, nil
	}
	return !item.Product.InStock(), nil
}

// ExcludeReferenceFilter 过滤参考商品本身（按 ID）。
type ExcludeReferenceFilter struct{}

func (f *ExcludeReferenceFilter) Name() string {
	return "filter.exclude_reference"
}

func (f *ExcludeReferenceFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	ref := rctx.ReferenceID()
	return ref != "" && item.ID == ref, nil
}
