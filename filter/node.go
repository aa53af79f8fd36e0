package filter

import (
	"context"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该商品就会被过滤掉；保留的商品维持原有顺序。
type FilterNode struct {
	Filters []Filter

	// Logger 为空时使用 logging.Default()
	Logger logging.Logger
}

// NewFilterNode 组合多个过滤器，nil 过滤器忽略。
func NewFilterNode(filters ...Filter) *FilterNode {
	n := &FilterNode{}
	for _, f := range filters {
		if f != nil {
			n.Filters = append(n.Filters, f)
		}
	}
	return n
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	logger := n.Logger
	if logger == nil {
		logger = logging.Default()
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filterReason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 过滤器错误时记录但不中断流程
				logger.Warn("filter error",
					logging.String("filter", f.Name()),
					logging.String("item", item.ID),
					logging.Err(err))
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			item.PutLabel(core.LabelFiltered, utils.Label{Value: "true", Source: filterReason})
			continue
		}
		out = append(out, item)
	}

	return out, nil
}
