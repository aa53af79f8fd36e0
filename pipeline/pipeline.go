package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：召回 → 过滤 → 排序 → 重排 → 后处理。
// 上一个 Node 的输出就是下一个 Node 的输入。
type Pipeline struct {
	// Name 用于日志区分不同链路（primary / fallback）
	Name  string
	Nodes []Node

	// Logger 为空时使用 logging.Default()
	Logger logging.Logger
}

// Run 依次执行所有 Node。任一 Node 出错即中止，错误附带 Node 名称返回。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.Default()
	}

	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		logger.Debug("pipeline node done",
			logging.String("pipeline", p.Name),
			logging.String("node", node.Name()),
			logging.String("kind", string(node.Kind())),
			logging.Int("in", len(cur)),
			logging.Int("out", len(next)),
			logging.Duration("cost", time.Since(start)))
		cur = next
	}
	return cur, nil
}
