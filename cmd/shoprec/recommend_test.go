package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
)

const seedYAML = `products:
  - id: 1
    name: Silk Saree
    category: saree
    price: "₹2,000"
    quantity: 10
    ordered_quantity: 2
  - id: 2
    name: Banarasi Saree
    category: saree
    price: 2100
    quantity: 5
    ordered_quantity: 1
  - id: 3
    name: Sneakers
    category: shoes
    price: 9000
    quantity: 0
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestRunRecommend(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog = config.CatalogConfig{Type: config.CatalogMemory, SeedFile: writeSeed(t), DisableBreaker: true}

	var out bytes.Buffer
	opts := &recommendOptions{productID: "1", viewed: []string{"3", "missing"}}
	if err := runRecommend(context.Background(), cfg, opts, &out); err != nil {
		t.Fatalf("runRecommend() error = %v", err)
	}

	var results []core.ScoredCandidate
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("输出不是合法 JSON: %v\n%s", err, out.String())
	}
	if len(results) != 1 || results[0].Product.ID != "2" {
		t.Fatalf("results = %+v, want [2]", results)
	}
	if results[0].PreferenceScore <= 0.5 {
		t.Errorf("浏览过 saree 后偏好分应大于 0.5，实际 %v", results[0].PreferenceScore)
	}
}

func TestRunRecommend_UnknownProduct(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog = config.CatalogConfig{Type: config.CatalogMemory, SeedFile: writeSeed(t), DisableBreaker: true}

	var out bytes.Buffer
	err := runRecommend(context.Background(), cfg, &recommendOptions{productID: "404"}, &out)
	if err == nil {
		t.Fatal("未知商品应返回错误")
	}
	if out.Len() != 0 {
		t.Errorf("出错时不应输出结果，实际 %q", out.String())
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"serve", "recommend"} {
		if c, _, err := cmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("子命令 %s 未注册: %v", name, err)
		}
	}
	if f := cmd.PersistentFlags().Lookup("config"); f == nil || f.Shorthand != "c" {
		t.Error("缺少 --config/-c 参数")
	}
}
