package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的 CEL 表达式，编译一次、并发求值。
//
// 表达式语法（CEL 标准语法）：
//   - 商品：item.price > 0.0 / item.category == "saree" / item.remaining >= 2
//   - 分数：item.score > 0.5 / item.features.category_score == 1.0
//   - 标签：label.recall_source == "catalog"
//   - 参考商品：item.category == rctx.reference.category
//   - 存在性：label.recall_source != null
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string {
	return p.expr
}

// Evaluate 对单个 Item 求值。
func (p *Program) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	features := make(map[string]any, len(item.Features))
	for k, v := range item.Features {
		features[k] = v
	}

	it := productInput(item.Product)
	it["id"] = item.ID
	it["score"] = item.Score
	it["features"] = features

	r := map[string]any{
		"visitor_id": "",
		"scene":      "",
		"reference":  productInput(nil),
	}
	if rctx != nil {
		r["visitor_id"] = rctx.VisitorID
		r["scene"] = rctx.Scene
		r["reference"] = productInput(rctx.Reference)
	}

	return map[string]any{
		"item":  it,
		"label": labels,
		"rctx":  r,
	}
}

func productInput(p *core.Product) map[string]any {
	if p == nil {
		return map[string]any{
			"id":               "",
			"name":             "",
			"category":         "",
			"price":            0.0,
			"quantity":         int64(0),
			"ordered_quantity": int64(0),
			"remaining":        int64(0),
		}
	}
	return map[string]any{
		"id":               p.ID,
		"name":             p.Name,
		"category":         p.Category,
		"price":            p.Price,
		"quantity":         p.Quantity,
		"ordered_quantity": p.OrderedQuantity,
		"remaining":        p.Remaining(),
	}
}
