// Package config 加载服务配置（YAML），并按配置构建存储、商品目录与推荐引擎。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/preference"
	"github.com/rushteam/shoprec/store"
)

// Config 是服务的完整配置。
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Log       logging.LogConfig `yaml:"log"`
	Store     StoreConfig       `yaml:"store"`
	Catalog   CatalogConfig     `yaml:"catalog"`
	Recommend RecommendConfig   `yaml:"recommend"`

	// CategoryRelations 替换内置类目关联表，为空时使用内置表
	CategoryRelations map[string][]string `yaml:"category_relations"`
}

// ServerConfig 是 HTTP 服务配置。
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// 偏好存储类型
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreBadger = "badger"
)

// StoreConfig 是访客偏好的持久化配置。
type StoreConfig struct {
	// Type: memory / redis / badger
	Type string `yaml:"type"`

	// KeyPrefix 默认 user:preferences
	KeyPrefix string `yaml:"key_prefix"`

	// Cache 是进程内访客画像缓存（LRU + TTL）
	Cache preference.CacheConfig `yaml:"cache"`

	Redis  store.RedisConfig `yaml:"redis"`
	Badger BadgerConfig      `yaml:"badger"`
}

// BadgerConfig 是嵌入式 Badger 的配置。
type BadgerConfig struct {
	// Path 为空时使用纯内存模式
	Path string `yaml:"path"`
}

// 商品目录类型
const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"
)

// CatalogConfig 是商品目录配置。
type CatalogConfig struct {
	// Type: memory / postgres
	Type string `yaml:"type"`

	// SeedFile 是内存目录的种子文件（YAML / JSON）
	SeedFile string `yaml:"seed_file"`

	Postgres catalog.PostgresConfig `yaml:"postgres"`
	Breaker  catalog.BreakerConfig  `yaml:"breaker"`

	// DisableBreaker 关闭熔断与请求合并
	DisableBreaker bool `yaml:"disable_breaker"`
}

// RecommendConfig 是推荐参数，实现 core.RecommendConfig。
type RecommendConfig struct {
	Limit     int `yaml:"default_limit"`
	PageLimit int `yaml:"product_page_limit"`
	History   int `yaml:"history_size"`

	// FilterExpr 是候选保留条件（CEL），例如 item.price > 0.0
	FilterExpr string `yaml:"filter_expr"`
}

func (c RecommendConfig) DefaultLimit() int     { return c.Limit }
func (c RecommendConfig) ProductPageLimit() int { return c.PageLimit }
func (c RecommendConfig) HistorySize() int      { return c.History }

var _ core.RecommendConfig = RecommendConfig{}

// Default 返回默认配置：内存存储 + 内存目录。
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load 读取 YAML 配置文件，填充默认值并校验。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 配置。
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	defaults := &core.DefaultRecommendConfig{}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Store.Type == "" {
		c.Store.Type = StoreMemory
	}
	if c.Catalog.Type == "" {
		c.Catalog.Type = CatalogMemory
	}
	if c.Recommend.Limit <= 0 {
		c.Recommend.Limit = defaults.DefaultLimit()
	}
	if c.Recommend.PageLimit <= 0 {
		c.Recommend.PageLimit = defaults.ProductPageLimit()
	}
	if c.Recommend.History <= 0 {
		c.Recommend.History = defaults.HistorySize()
	}
}

// Validate 校验配置。
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreMemory, StoreBadger:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("config: store.redis.addr is required")
		}
	default:
		return fmt.Errorf("config: unknown store type %q", c.Store.Type)
	}

	switch c.Catalog.Type {
	case CatalogMemory:
	case CatalogPostgres:
		if c.Catalog.Postgres.DSN == "" {
			return fmt.Errorf("config: catalog.postgres.dsn is required")
		}
	default:
		return fmt.Errorf("config: unknown catalog type %q", c.Catalog.Type)
	}

	if c.Catalog.Breaker.FailureRatio < 0 || c.Catalog.Breaker.FailureRatio > 1 {
		return fmt.Errorf("config: catalog.breaker.failure_ratio must be within [0, 1]")
	}
	for cat, related := range c.CategoryRelations {
		if cat == "" {
			return fmt.Errorf("config: category_relations has an empty category")
		}
		for _, r := range related {
			if r == "" {
				return fmt.Errorf("config: category_relations[%s] has an empty category", cat)
			}
		}
	}
	return nil
}
