package filter

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
)

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type errFilter struct{}

func (errFilter) Name() string { return "filter.err" }
func (errFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, errors.New("broken")
}

func TestFilterNode(t *testing.T) {
	rctx := &core.RecommendContext{Reference: &core.Product{ID: "ref"}}
	catalog := []*core.Product{
		{ID: "a", Quantity: 5, OrderedQuantity: 1},
		{ID: "ref", Quantity: 5},
		{ID: "b", Quantity: 0},
		{ID: "c", Quantity: 3, OrderedQuantity: 3},
		{ID: "d", Quantity: 3, OrderedQuantity: 5},
		{ID: "e", Quantity: 1},
	}

	tests := []struct {
		name    string
		filters []Filter
		want    []string
	}{
		{"no filters", nil, []string{"a", "ref", "b", "c", "d", "e"}},
		{"in stock", []Filter{&InStockFilter{}}, []string{"a", "ref", "e"}},
		{"exclude reference", []Filter{&ExcludeReferenceFilter{}}, []string{"a", "b", "c", "d", "e"}},
		{"both", []Filter{&ExcludeReferenceFilter{}, &InStockFilter{}}, []string{"a", "e"}},
		{"error keeps item", []Filter{errFilter{}}, []string{"a", "ref", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := NewFilterNode(tt.filters...)
			out, err := node.Process(context.Background(), rctx, core.NewItems(catalog))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if got := ids(out); !equalIDs(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterNode_LabelsFilteredItems(t *testing.T) {
	items := core.NewItems([]*core.Product{{ID: "a", Quantity: 0}})
	if _, err := NewFilterNode(&InStockFilter{}).Process(context.Background(), &core.RecommendContext{}, items); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	lbl, ok := items[0].Labels[core.LabelFiltered]
	if !ok || lbl.Source != "filter.in_stock" {
		t.Errorf("filtered label = %+v", lbl)
	}
}

func TestExcludeReferenceFilter_NoReference(t *testing.T) {
	f := &ExcludeReferenceFilter{}
	drop, err := f.ShouldFilter(context.Background(), nil, core.NewItem(&core.Product{ID: "a"}))
	if err != nil || drop {
		t.Errorf("无参考商品时不应过滤: drop=%v err=%v", drop, err)
	}
}

func TestExprFilter(t *testing.T) {
	rctx := &core.RecommendContext{Reference: &core.Product{ID: "ref", Category: "saree"}}
	catalog := []*core.Product{
		{ID: "a", Category: "saree", Price: 2000, Quantity: 5},
		{ID: "b", Category: "kurta", Price: 0, Quantity: 5},
		{ID: "c", Category: "kurta", Price: 900, Quantity: 5},
	}

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"priced only", "item.price > 0.0", []string{"a", "c"}},
		{"same category as reference", "item.category == rctx.reference.category", []string{"a"}},
		{"remaining", "item.remaining >= 5", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewExprFilter(tt.expr)
			if err != nil {
				t.Fatalf("NewExprFilter() error = %v", err)
			}
			out, err := NewFilterNode(f).Process(context.Background(), rctx, core.NewItems(catalog))
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if got := ids(out); !equalIDs(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewExprFilter(t *testing.T) {
	f, err := NewExprFilter("")
	if err != nil || f != nil {
		t.Errorf("空表达式应返回 nil, nil，得到 %v, %v", f, err)
	}
	if _, err := NewExprFilter("item.price >"); err == nil {
		t.Error("语法错误应返回错误")
	}
}

// 表达式求值出错时商品保留，记录 WARN，后续过滤器照常执行。
func TestExprFilter_EvalErrorKeepsItem(t *testing.T) {
	rctx := &core.RecommendContext{Reference: &core.Product{ID: "ref"}}
	catalog := []*core.Product{
		{ID: "a", Category: "saree", Price: 2000, Quantity: 5},
		{ID: "b", Category: "kurta", Price: 900, Quantity: 0},
	}

	tests := []struct {
		name    string
		expr    string
		inStock bool
		want    []string
	}{
		{"missing field", `item.nosuch == "x"`, false, []string{"a", "b"}},
		{"non-bool result", "item.price", false, []string{"a", "b"}},
		{"later filters still run", `item.nosuch == "x"`, true, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewExprFilter(tt.expr)
			if err != nil {
				t.Fatalf("表达式应能编译通过: %v", err)
			}
			filters := []Filter{f}
			if tt.inStock {
				filters = append(filters, &InStockFilter{})
			}
			zc, logs := observer.New(zapcore.WarnLevel)
			node := NewFilterNode(filters...)
			node.Logger = logging.NewLoggerFromCore(zc)

			out, err := node.Process(context.Background(), rctx, core.NewItems(catalog))
			if err != nil {
				t.Fatalf("求值错误不应中断流程: %v", err)
			}
			if got := ids(out); !equalIDs(got, tt.want) {
				t.Errorf("Process() = %v, want %v", got, tt.want)
			}
			warns := logs.FilterMessage("filter error").All()
			if len(warns) != len(catalog) {
				t.Fatalf("每个商品应记录一条 filter error，实际 %d", len(warns))
			}
			if got := warns[0].ContextMap()["filter"]; got != "filter.expr" {
				t.Errorf("filter 字段 = %v", got)
			}
			for _, it := range out {
				if _, ok := it.Labels[core.LabelFiltered]; ok {
					t.Errorf("保留的商品 %s 不应带 filtered 标签", it.ID)
				}
			}
		})
	}
}
