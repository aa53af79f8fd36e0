package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/store"
)

// failingStore 模拟持久化层故障。
type failingStore struct {
	getErr error
	setErr error

	mu   sync.Mutex
	sets int
}

func (f *failingStore) Name() string { return "failing" }
func (f *failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, f.getErr
}
func (f *failingStore) Set(context.Context, string, []byte, ...int) error {
	f.mu.Lock()
	f.sets++
	f.mu.Unlock()
	return f.setErr
}
func (f *failingStore) Delete(context.Context, string) error { return nil }
func (f *failingStore) Close() error                         { return nil }

// ctxCheckingStore 在 ctx 已取消时拒绝读取，和网络存储的行为一致。
type ctxCheckingStore struct {
	core.Store
}

func (c *ctxCheckingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Store.Get(ctx, key)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStore_UpdateSequence(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewStore(ctx, nil, "", WithClock(fixedClock(now)))

	s.Update(ctx, &core.Product{ID: "1", Name: "Silk Saree", Category: "saree", Price: 2000})
	s.Update(ctx, &core.Product{ID: "2", Name: "Cotton Kurta", Category: "kurta", Price: 3000})

	p := s.Profile()
	if len(p.ViewedCategories) != 2 || p.ViewedCategories[0] != "saree" || p.ViewedCategories[1] != "kurta" {
		t.Errorf("ViewedCategories = %v", p.ViewedCategories)
	}
	// 首次 {1400, 2600}，第二次与 {2100, 3900} 取平均
	want := core.PriceRange{Min: 1750, Max: 3250}
	if p.PreferredPriceRange == nil || *p.PreferredPriceRange != want {
		t.Errorf("PreferredPriceRange = %+v, want %+v", p.PreferredPriceRange, want)
	}
	if len(p.RecentlyViewed) != 2 || p.RecentlyViewed[0].ID != "2" || p.RecentlyViewed[1].ID != "1" {
		t.Errorf("RecentlyViewed = %+v", p.RecentlyViewed)
	}
	if !p.LastUpdated.Equal(now) {
		t.Errorf("LastUpdated = %v, want %v", p.LastUpdated, now)
	}
}

func TestStore_UpdateTwiceMovesToFront(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, "")

	a := &core.Product{ID: "a", Category: "saree", Price: 1000}
	b := &core.Product{ID: "b", Category: "saree", Price: 1000}
	s.Update(ctx, a)
	s.Update(ctx, b)
	s.Update(ctx, a)

	p := s.Profile()
	if len(p.RecentlyViewed) != 2 {
		t.Fatalf("重复浏览不应产生重复记录: %+v", p.RecentlyViewed)
	}
	if p.RecentlyViewed[0].ID != "a" {
		t.Errorf("最近浏览的应在最前，实际 %s", p.RecentlyViewed[0].ID)
	}
	if len(p.ViewedCategories) != 1 {
		t.Errorf("类目应去重: %v", p.ViewedCategories)
	}
}

func TestStore_HistoryTruncated(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, "")
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		s.Update(ctx, &core.Product{ID: id, Category: "art"})
	}
	p := s.Profile()
	if len(p.RecentlyViewed) != 5 {
		t.Fatalf("len(RecentlyViewed) = %d, want 5", len(p.RecentlyViewed))
	}
	if p.RecentlyViewed[0].ID != "7" || p.RecentlyViewed[4].ID != "3" {
		t.Errorf("RecentlyViewed = %+v", p.RecentlyViewed)
	}
}

func TestStore_NoPriceSignal(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, "")
	s.Update(ctx, &core.Product{ID: "1", Category: "saree", Price: 0})
	if s.Profile().PreferredPriceRange != nil {
		t.Error("无价格时不应设置价格区间")
	}
	s.Update(ctx, &core.Product{ID: "2", Category: "", Price: 100})
	p := s.Profile()
	if len(p.ViewedCategories) != 1 {
		t.Errorf("空类目不应加入: %v", p.ViewedCategories)
	}
	if p.PreferredPriceRange == nil {
		t.Error("有价格时应设置价格区间")
	}
}

func TestStore_PersistAndReload(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()

	s := NewStore(ctx, backend, "user:preferences:v1")
	s.Update(ctx, &core.Product{ID: "1", Name: "Silk Saree", Category: "saree", Price: 2000})

	data, err := backend.Get(ctx, "user:preferences:v1")
	if err != nil {
		t.Fatalf("持久化失败: %v", err)
	}
	var persisted map[string]any
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("持久化数据不是 JSON: %v", err)
	}
	for _, k := range []string{"viewedCategories", "preferredPriceRange", "recentlyViewed", "lastUpdated"} {
		if _, ok := persisted[k]; !ok {
			t.Errorf("持久化数据缺少字段 %s", k)
		}
	}

	reloaded := NewStore(ctx, backend, "user:preferences:v1")
	p := reloaded.Profile()
	if !p.HasViewedCategory("saree") || !p.HasRecentlyViewed("1") {
		t.Errorf("重新加载后画像不一致: %+v", p)
	}
	if p.VisitorID != "v1" {
		t.Errorf("VisitorID = %q, want v1", p.VisitorID)
	}
}

func TestStore_CorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()
	_ = backend.Set(ctx, DefaultKey, []byte("{not json"))

	s := NewStore(ctx, backend, "", WithLogger(logging.NewNopLogger()))
	p := s.Profile()
	if len(p.ViewedCategories) != 0 || p.PreferredPriceRange != nil || len(p.RecentlyViewed) != 0 {
		t.Errorf("损坏数据应得到空画像: %+v", p)
	}
}

func TestStore_PersistFailureSwallowed(t *testing.T) {
	ctx := context.Background()
	backend := &failingStore{
		getErr: errors.New("disk unavailable"),
		setErr: errors.New("quota exceeded"),
	}
	s := NewStore(ctx, backend, "")

	s.Update(ctx, &core.Product{ID: "1", Category: "saree", Price: 500})

	if backend.sets != 1 {
		t.Errorf("sets = %d, want 1", backend.sets)
	}
	// 写入失败不影响内存中的画像
	if !s.Profile().HasViewedCategory("saree") {
		t.Error("写入失败后内存画像应保留变更")
	}
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()

	s := NewStore(ctx, backend, "")
	s.Update(ctx, &core.Product{ID: "1", Category: "saree", Price: 500})
	s.Reset(ctx)

	p := s.Profile()
	if len(p.ViewedCategories) != 0 || p.PreferredPriceRange != nil || len(p.RecentlyViewed) != 0 {
		t.Errorf("Reset 后画像应为空: %+v", p)
	}

	reloaded := NewStore(ctx, backend, "")
	if len(reloaded.Profile().RecentlyViewed) != 0 {
		t.Error("Reset 应持久化")
	}
}

func TestStore_ProfileIsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, nil, "")
	s.Update(ctx, &core.Product{ID: "1", Category: "saree", Price: 500})

	p := s.Profile()
	p.ViewedCategories[0] = "changed"
	p.PreferredPriceRange.Min = -1

	again := s.Profile()
	if again.ViewedCategories[0] != "saree" || again.PreferredPriceRange.Min < 0 {
		t.Error("Profile() 应返回深拷贝")
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()
	s := NewStore(ctx, backend, "")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Update(ctx, &core.Product{ID: string(rune('a' + i)), Category: "art", Price: float64(100 + i)})
		}(i)
	}
	wg.Wait()

	if n := len(s.Profile().RecentlyViewed); n != 5 {
		t.Errorf("len(RecentlyViewed) = %d, want 5", n)
	}
}

func TestManager_SeparateVisitors(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()
	m := NewManager(backend, "", CacheConfig{})

	m.For(ctx, "alice").Update(ctx, &core.Product{ID: "1", Category: "saree"})
	m.For(ctx, "bob").Update(ctx, &core.Product{ID: "2", Category: "painting"})

	if m.For(ctx, "alice") != m.For(ctx, "alice") {
		t.Error("同一访客应复用 Store")
	}
	if m.For(ctx, "alice").Profile().HasViewedCategory("painting") {
		t.Error("访客之间的画像不应共享")
	}
	if _, err := backend.Get(ctx, "user:preferences:bob"); err != nil {
		t.Errorf("bob 的画像应写入 user:preferences:bob: %v", err)
	}
}

func TestManager_BoundedCache(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()
	m := NewManager(backend, "", CacheConfig{Size: 100, TTL: time.Hour})

	m.For(ctx, "first").Update(ctx, &core.Product{ID: "1", Category: "saree"})
	for i := 0; i < 10000; i++ {
		m.For(ctx, fmt.Sprintf("v%d", i))
	}
	if n := m.Len(); n > 100 {
		t.Fatalf("缓存的访客数 = %d，不应超过 100", n)
	}

	// 被淘汰的访客从 backend 重新加载
	if !m.For(ctx, "first").Profile().HasViewedCategory("saree") {
		t.Error("淘汰后应从 backend 重新加载画像")
	}
}

func TestManager_ExpiredProfileReloaded(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()
	m := NewManager(backend, "", CacheConfig{TTL: 20 * time.Millisecond})

	first := m.For(ctx, "alice")

	// 另一实例写入的画像
	data, _ := json.Marshal(&core.UserProfile{ViewedCategories: []string{"jewelry"}})
	if err := backend.Set(ctx, "user:preferences:alice", data); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	again := m.For(ctx, "alice")
	if again == first {
		t.Fatal("过期后应重新加载 Store")
	}
	if !again.Profile().HasViewedCategory("jewelry") {
		t.Error("重新加载的画像应包含其他实例写入的数据")
	}
}

func TestManager_ConcurrentFirstLoad(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	defer backend.Close()
	m := NewManager(backend, "", CacheConfig{})

	const n = 16
	got := make([]*Store, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = m.For(ctx, "carol")
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatal("同一访客的并发首次访问应拿到同一个 Store")
		}
	}
}

func TestManager_LoadIgnoresCallerCancel(t *testing.T) {
	backend := store.NewMemoryStore()
	defer backend.Close()
	data, _ := json.Marshal(&core.UserProfile{ViewedCategories: []string{"saree"}})
	_ = backend.Set(context.Background(), "user:preferences:dave", data)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewManager(&ctxCheckingStore{Store: backend}, "", CacheConfig{})
	if !m.For(ctx, "dave").Profile().HasViewedCategory("saree") {
		t.Error("发起请求的 ctx 已取消时仍应加载到画像")
	}
}
