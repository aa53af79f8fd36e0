package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/shoprec/core"
)

// MemoryCatalog 是内存商品目录，用于测试、演示和单机小目录。
// 读接口返回商品副本，调用方修改不会影响目录本身。
type MemoryCatalog struct {
	mu       sync.RWMutex
	products []*core.Product
	index    map[string]int
}

// NewMemoryCatalog 按给定顺序创建目录（顺序即"目录顺序"，同分时保持）。
func NewMemoryCatalog(products ...*core.Product) *MemoryCatalog {
	c := &MemoryCatalog{index: make(map[string]int, len(products))}
	for _, p := range products {
		c.Upsert(p)
	}
	return c
}

// seedFile 是种子文件的结构，YAML 与 JSON 共用。
type seedFile struct {
	Products []RawProduct `json:"products" yaml:"products"`
}

// LoadMemoryCatalog 从种子文件加载目录，按扩展名识别 JSON（.json）或 YAML。
func LoadMemoryCatalog(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&seed); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	products, err := NormalizeAll(seed.Products)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return NewMemoryCatalog(products...), nil
}

func (c *MemoryCatalog) Name() string { return "memory" }

// Upsert 新增或覆盖商品，覆盖时保留原有位置。
func (c *MemoryCatalog) Upsert(p *core.Product) {
	if p == nil || p.ID == "" {
		return
	}
	cp := clone(p)

	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[p.ID]; ok {
		c.products[i] = cp
		return
	}
	c.index[p.ID] = len(c.products)
	c.products = append(c.products, cp)
}

// Len 返回商品数量。
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *MemoryCatalog) ListProducts(ctx context.Context, excludeID string) ([]*core.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*core.Product, 0, len(c.products))
	for _, p := range c.products {
		if excludeID != "" && p.ID == excludeID {
			continue
		}
		out = append(out, clone(p))
	}
	return out, nil
}

func (c *MemoryCatalog) ListRecentProducts(ctx context.Context, limit int) ([]*core.Product, error) {
	return c.sorted(ctx, limit, func(a, b *core.Product) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func (c *MemoryCatalog) ListTrendingProducts(ctx context.Context, limit int) ([]*core.Product, error) {
	return c.sorted(ctx, limit, func(a, b *core.Product) bool {
		return a.OrderedQuantity > b.OrderedQuantity
	})
}

func (c *MemoryCatalog) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return nil, core.ErrProductNotFound
	}
	return clone(c.products[i]), nil
}

// sorted 返回按 less 稳定排序后的前 limit 个商品，limit <= 0 表示不限。
func (c *MemoryCatalog) sorted(ctx context.Context, limit int, less func(a, b *core.Product) bool) ([]*core.Product, error) {
	all, err := c.ListProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return less(all[i], all[j]) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func clone(p *core.Product) *core.Product {
	cp := *p
	cp.ImageURLs = append([]string(nil), p.ImageURLs...)
	return &cp
}

var _ core.Catalog = (*MemoryCatalog)(nil)
