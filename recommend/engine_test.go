package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/preference"
	"github.com/rushteam/shoprec/store"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func newEngine(t *testing.T, cat core.Catalog, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cat, append([]Option{WithClock(clock)}, opts...)...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func newPrefs(t *testing.T) *preference.Store {
	t.Helper()
	backend := store.NewMemoryStore()
	t.Cleanup(func() { _ = backend.Close() })
	return preference.NewStore(context.Background(), backend, "user:preferences:v1", preference.WithClock(clock))
}

func resultIDs(rs []core.ScoredCandidate) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Product.ID)
	}
	return out
}

type brokenCatalog struct {
	*catalog.MemoryCatalog
}

var errDown = errors.New("connection reset")

func (brokenCatalog) ListProducts(context.Context, string) ([]*core.Product, error) {
	return nil, errDown
}

// emptyPrimary 模拟个性化策略没有结果。
type emptyPrimary struct{}

func (emptyPrimary) Name() string { return "empty" }
func (emptyPrimary) Recommend(context.Context, *core.RecommendContext) ([]*core.Item, error) {
	return nil, nil
}

func TestEngine_SareeScenario(t *testing.T) {
	ref := &core.Product{ID: "1", Name: "Silk Saree", Category: "saree", Price: 2000, Quantity: 10, OrderedQuantity: 2}
	cat := catalog.NewMemoryCatalog(
		ref,
		&core.Product{ID: "2", Name: "Banarasi Saree", Category: "saree", Price: 2100, Quantity: 5, OrderedQuantity: 1},
		&core.Product{ID: "3", Name: "Sneakers", Category: "shoes", Price: 9000, Quantity: 0, OrderedQuantity: 0},
	)
	prefs := newPrefs(t)

	got, err := newEngine(t, cat).Recommend(context.Background(), prefs, ref, 6)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 1 || got[0].Product.ID != "2" {
		t.Fatalf("Recommend() = %v, want [2]", resultIDs(got))
	}
	r := got[0]
	if r.CategoryScore != 1.0 || r.PriceScore != 1.0 || r.IsFallback {
		t.Errorf("分项得分 = %+v", r)
	}
	// 参考商品的浏览已计入偏好：类目命中 + 价格落在区间 + 活跃加权 → 1.0
	want := 0.40*1.0 + 0.25*1.0 + 0.20*(0.2*1.2) + 0.15*1.0
	if math.Abs(r.RecommendationScore-want) > 1e-9 {
		t.Errorf("RecommendationScore = %v, want %v", r.RecommendationScore, want)
	}

	p := prefs.Profile()
	if !p.HasViewedCategory("saree") || !p.HasRecentlyViewed("1") || p.PreferredPriceRange == nil {
		t.Errorf("参考商品应先计入偏好: %+v", p)
	}
}

func TestEngine_NewVisitorNeutralPreference(t *testing.T) {
	ref := &core.Product{ID: "1", Category: "saree", Price: 2000, Quantity: 3}
	cat := catalog.NewMemoryCatalog(ref, &core.Product{ID: "9", Category: "painting", Price: 50000, Quantity: 1})
	e := newEngine(t, cat)

	got, err := e.Recommend(context.Background(), nil, ref, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 1 || got[0].PreferenceScore != 0.5 || got[0].RecommendationScore <= 0 || got[0].IsFallback {
		t.Fatalf("Recommend() = %+v", got)
	}

	// 首次浏览后画像变为活跃，无关商品只得到活跃加权
	got, err = e.Recommend(context.Background(), newPrefs(t), ref, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 1 || math.Abs(got[0].PreferenceScore-0.55) > 1e-9 {
		t.Fatalf("Recommend() = %+v", got)
	}
}

func TestEngine_NeverIncludesReferenceOrOutOfStock(t *testing.T) {
	ref := &core.Product{ID: "ref", Category: "kurta", Price: 1000, Quantity: 5}
	products := []*core.Product{ref}
	for i := 0; i < 30; i++ {
		products = append(products, &core.Product{
			ID:              fmt.Sprintf("p%02d", i),
			Category:        []string{"kurta", "saree", "art", ""}[i%4],
			Price:           float64(500 + 100*i),
			Quantity:        int64(i % 5),
			OrderedQuantity: int64(i % 3),
		})
	}
	e := newEngine(t, catalog.NewMemoryCatalog(products...))

	for _, limit := range []int{1, 3, 6, 8, 50} {
		got, err := e.Recommend(context.Background(), newPrefs(t), ref, limit)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(got) > limit {
			t.Errorf("limit=%d: len = %d", limit, len(got))
		}
		for i, r := range got {
			if r.Product.ID == ref.ID {
				t.Errorf("limit=%d: 结果包含参考商品", limit)
			}
			if r.Product.Remaining() <= 0 {
				t.Errorf("limit=%d: 结果包含缺货商品 %s", limit, r.Product.ID)
			}
			if i > 0 && got[i-1].RecommendationScore < r.RecommendationScore {
				t.Errorf("limit=%d: 结果未按分数降序", limit)
			}
		}
	}
}

func TestEngine_DefaultLimit(t *testing.T) {
	ref := &core.Product{ID: "ref", Quantity: 1}
	products := []*core.Product{ref}
	for i := 0; i < 10; i++ {
		products = append(products, &core.Product{ID: fmt.Sprintf("p%d", i), Quantity: 1})
	}
	got, err := newEngine(t, catalog.NewMemoryCatalog(products...)).Recommend(context.Background(), nil, ref, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 6 {
		t.Errorf("len = %d, want 6", len(got))
	}
}

func TestEngine_FallbackWhenNoEligibleCandidates(t *testing.T) {
	base := testNow.Add(-30 * 24 * time.Hour)
	ref := &core.Product{ID: "ref", Category: "saree", Price: 2000, Quantity: 5, CreatedAt: base.Add(5 * time.Hour)}
	cat := catalog.NewMemoryCatalog(
		ref,
		&core.Product{ID: "old", Quantity: 2, CreatedAt: base},
		&core.Product{ID: "new", Quantity: 2, CreatedAt: base.Add(4 * time.Hour)},
		&core.Product{ID: "soldout", Quantity: 2, OrderedQuantity: 2, CreatedAt: base.Add(3 * time.Hour)},
		&core.Product{ID: "mid", Quantity: 2, CreatedAt: base.Add(2 * time.Hour)},
	)
	// 个性化链路只保留价格 > 100000 的商品，必然为空
	e := newEngine(t, cat, WithFilterExpr("item.price > 100000.0"))

	got, err := e.Recommend(context.Background(), newPrefs(t), ref, 4)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	// 最新 4 个：ref, new, soldout, mid → 排除参考与缺货
	ids := resultIDs(got)
	if len(ids) != 2 || ids[0] != "new" || ids[1] != "mid" {
		t.Fatalf("Recommend() = %v, want [new mid]", ids)
	}
	for _, r := range got {
		if !r.IsFallback || r.RecommendationScore != 0.5 || r.CategoryScore != 0.3 ||
			r.PriceScore != 0.5 || r.PopularityScore != 0.2 || r.PreferenceScore != 0.5 {
			t.Errorf("兜底结果 = %+v", r)
		}
	}
}

func TestEngine_FallbackCrossRecommendation(t *testing.T) {
	base := testNow.Add(-time.Hour)
	ref := &core.Product{ID: "ref", Quantity: 5, CreatedAt: base}
	a := &core.Product{ID: "A", Name: "Dupatta", Quantity: 1, CreatedAt: base.Add(2 * time.Minute)}
	b := &core.Product{ID: "B", Name: "Blouse", Quantity: 1, CreatedAt: base.Add(time.Minute)}
	cat := catalog.NewMemoryCatalog(ref, a, b)

	prefs := newPrefs(t)
	prefs.Update(context.Background(), a)

	e := newEngine(t, cat, WithRecommenders(emptyPrimary{}, nil))
	got, err := e.Session(prefs).GetRecommendations(context.Background(), ref, 6)
	if err != nil {
		t.Fatalf("GetRecommendations() error = %v", err)
	}
	if ids := resultIDs(got); len(ids) != 1 || ids[0] != "B" {
		t.Fatalf("GetRecommendations() = %v, want [B]", ids)
	}
	if !got[0].IsFallback {
		t.Error("兜底结果应带 isFallback")
	}
}

func TestEngine_EmptyCatalogIsNotAnError(t *testing.T) {
	ref := &core.Product{ID: "ref", Quantity: 1}
	got, err := newEngine(t, catalog.NewMemoryCatalog(ref)).Recommend(context.Background(), nil, ref, 6)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Recommend() = %v, want empty", resultIDs(got))
	}
}

func TestEngine_CatalogFailurePropagates(t *testing.T) {
	ref := &core.Product{ID: "ref", Category: "saree", Quantity: 1}
	prefs := newPrefs(t)
	e := newEngine(t, brokenCatalog{catalog.NewMemoryCatalog()})

	_, err := e.Recommend(context.Background(), prefs, ref, 6)
	if !errors.Is(err, errDown) || !core.IsUnavailable(err) {
		t.Fatalf("期望目录错误，得到 %v", err)
	}
	// 偏好更新发生在取目录之前
	if !prefs.Profile().HasViewedCategory("saree") {
		t.Error("目录失败不应影响偏好更新")
	}
}

func TestEngine_InvalidInput(t *testing.T) {
	if _, err := NewEngine(nil); !core.IsInvalidInput(err) {
		t.Errorf("NewEngine(nil) = %v", err)
	}
	e := newEngine(t, catalog.NewMemoryCatalog())
	if _, err := e.Recommend(context.Background(), nil, nil, 6); !core.IsInvalidInput(err) {
		t.Errorf("Recommend(nil ref) = %v", err)
	}
	if _, err := NewEngine(catalog.NewMemoryCatalog(), WithFilterExpr("item.price >")); err == nil {
		t.Error("非法表达式应返回错误")
	}
}

func TestEngine_LogsCandidateFilter(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want int
	}{
		{"no expr", "", 0},
		{"with expr", "item.price > 0.0", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zc, logs := observer.New(zapcore.InfoLevel)
			newEngine(t, catalog.NewMemoryCatalog(),
				WithFilterExpr(tt.expr), WithLogger(logging.NewLoggerFromCore(zc)))

			entries := logs.FilterMessage("candidate filter enabled").All()
			if len(entries) != tt.want {
				t.Fatalf("应记录 %d 条过滤表达式日志，实际 %d", tt.want, len(entries))
			}
			if tt.want > 0 && entries[0].ContextMap()["expr"] != tt.expr {
				t.Errorf("expr 字段 = %v", entries[0].ContextMap()["expr"])
			}
		})
	}
}

func TestEngine_CustomCategoryRelations(t *testing.T) {
	ref := &core.Product{ID: "ref", Category: "shoes", Quantity: 1}
	cat := catalog.NewMemoryCatalog(ref, &core.Product{ID: "s", Category: "socks", Quantity: 1})
	e := newEngine(t, cat, WithCategoryRelations(map[string][]string{"shoes": {"socks"}}))

	got, err := e.Recommend(context.Background(), nil, ref, 6)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 1 || got[0].CategoryScore != 0.7 {
		t.Errorf("Recommend() = %+v", got)
	}
}

func TestEngine_Trending(t *testing.T) {
	cat := catalog.NewMemoryCatalog(
		&core.Product{ID: "a", Quantity: 10, OrderedQuantity: 3},
		&core.Product{ID: "b", Quantity: 10, OrderedQuantity: 9},
		&core.Product{ID: "c", Quantity: 5, OrderedQuantity: 5},
		&core.Product{ID: "d", Quantity: 10, OrderedQuantity: 1},
	)
	got, err := newEngine(t, cat).Trending(context.Background(), 3)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	// 取前 3：b, c, a；c 已售罄被过滤
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("Trending() = %+v", got)
	}
}

func TestSession_UpdateAndReset(t *testing.T) {
	prefs := newPrefs(t)
	s := NewSession(newEngine(t, catalog.NewMemoryCatalog()), prefs)

	s.UpdateUserPreferences(context.Background(), &core.Product{ID: "x", Category: "art", Price: 300})
	if !s.Profile().HasRecentlyViewed("x") {
		t.Error("UpdateUserPreferences 未生效")
	}
	s.ResetUserPreferences(context.Background())
	p := s.Profile()
	if len(p.RecentlyViewed) != 0 || p.PreferredPriceRange != nil || !p.LastUpdated.IsZero() {
		t.Errorf("ResetUserPreferences 后画像 = %+v", p)
	}

	var empty Session
	empty.engine = s.engine
	empty.UpdateUserPreferences(context.Background(), &core.Product{ID: "x"})
	empty.ResetUserPreferences(context.Background())
	if empty.Profile() != nil {
		t.Error("未绑定偏好时 Profile() 应为 nil")
	}
}
