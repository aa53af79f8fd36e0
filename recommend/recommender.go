// Package recommend 编排推荐链路：先偏好学习，再走个性化排序，结果为空时切换兜底策略。
package recommend

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

// Recommender 是一种推荐策略：给定请求上下文，返回有序候选。
type Recommender interface {
	Name() string
	Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// PrimaryRanker 是个性化排序策略：
//
//	目录召回（排除参考商品）→ 四项打分 + 加权排序 → 库存/表达式过滤 → Top-N
type PrimaryRanker struct {
	pipeline *pipeline.Pipeline
}

// NewPrimaryRanker 构建个性化排序链路。exprFilter 为 nil 时不启用表达式过滤。
func NewPrimaryRanker(cat core.Catalog, relations rank.CategoryRelations, exprFilter *filter.ExprFilter, logger logging.Logger) *PrimaryRanker {
	filters := []filter.Filter{&filter.ExcludeReferenceFilter{}, &filter.InStockFilter{}}
	if exprFilter != nil {
		filters = append(filters, exprFilter)
	}
	fn := filter.NewFilterNode(filters...)
	fn.Logger = logger

	return &PrimaryRanker{pipeline: &pipeline.Pipeline{
		Name:   "primary",
		Logger: logger,
		Nodes: []pipeline.Node{
			&recall.CatalogRecall{Catalog: cat},
			&rank.WeightedNode{Relations: relations},
			fn,
			&rerank.TopNNode{},
		},
	}}
}

func (r *PrimaryRanker) Name() string { return "primary" }

func (r *PrimaryRanker) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	return r.pipeline.Run(ctx, rctx, nil)
}

// FallbackRanker 是兜底策略：取最新上架的 N 个商品，排除参考商品与缺货商品，
// 两个候选时做交叉推荐，最后写入固定占位分与 fallback 标记。
type FallbackRanker struct {
	pipeline *pipeline.Pipeline
}

// NewFallbackRanker 构建兜底链路。
func NewFallbackRanker(cat core.Catalog, logger logging.Logger) *FallbackRanker {
	fn := filter.NewFilterNode(&filter.ExcludeReferenceFilter{}, &filter.InStockFilter{})
	fn.Logger = logger

	return &FallbackRanker{pipeline: &pipeline.Pipeline{
		Name:   "fallback",
		Logger: logger,
		Nodes: []pipeline.Node{
			&recall.NewestRecall{Catalog: cat},
			fn,
			&rerank.TopNNode{},
			&rerank.CrossRecommendNode{Logger: logger},
			&rank.FallbackScoreNode{},
		},
	}}
}

func (r *FallbackRanker) Name() string { return "fallback" }

func (r *FallbackRanker) Recommend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	return r.pipeline.Run(ctx, rctx, nil)
}

var (
	_ Recommender = (*PrimaryRanker)(nil)
	_ Recommender = (*FallbackRanker)(nil)
)
