package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式描述"保留条件"，表达式为 false 的商品被过滤。
//
// 示例：item.price > 0.0 && item.category != "gift-card"
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式；expr 为空时返回 nil（不启用）。
func NewExprFilter(expr string) (*ExprFilter, error) {
	if expr == "" {
		return nil, nil
	}
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式。
func (f *ExprFilter) Expr() string {
	return f.prg.String()
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.prg.Evaluate(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
