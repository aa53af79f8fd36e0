package config

import (
	"context"
	"fmt"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/preference"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recommend"
	"github.com/rushteam/shoprec/store"
)

// BuildStore 按配置创建偏好存储。
func BuildStore(cfg StoreConfig) (core.Store, error) {
	switch cfg.Type {
	case StoreMemory, "":
		return store.NewMemoryStore(), nil
	case StoreRedis:
		return store.NewRedisStore(cfg.Redis)
	case StoreBadger:
		if cfg.Badger.Path == "" {
			return store.NewInMemoryBadgerStore()
		}
		return store.NewBadgerStore(cfg.Badger.Path)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

// BuildCatalog 按配置创建商品目录；返回的 closer 用于释放连接。
func BuildCatalog(ctx context.Context, cfg CatalogConfig, logger logging.Logger) (core.Catalog, func(), error) {
	var (
		cat    core.Catalog
		closer = func() {}
	)
	switch cfg.Type {
	case CatalogMemory, "":
		if cfg.SeedFile == "" {
			cat = catalog.NewMemoryCatalog()
			break
		}
		mc, err := catalog.LoadMemoryCatalog(cfg.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		cat = mc
	case CatalogPostgres:
		pc, err := catalog.NewPostgresCatalog(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cat, closer = pc, pc.Close
	default:
		return nil, nil, fmt.Errorf("unknown catalog type: %s", cfg.Type)
	}

	if !cfg.DisableBreaker {
		cat = catalog.NewResilient(cat, cfg.Breaker, logger)
	}
	return cat, closer, nil
}

// BuildPreferenceManager 创建访客偏好管理器。
func (c *Config) BuildPreferenceManager(backend core.Store, logger logging.Logger) *preference.Manager {
	return preference.NewManager(backend, c.Store.KeyPrefix, c.Store.Cache,
		preference.WithHistorySize(c.Recommend.History),
		preference.WithLogger(logger))
}

// BuildEngine 创建推荐引擎。
func (c *Config) BuildEngine(cat core.Catalog, logger logging.Logger) (*recommend.Engine, error) {
	opts := []recommend.Option{
		recommend.WithConfig(c.Recommend),
		recommend.WithFilterExpr(c.Recommend.FilterExpr),
		recommend.WithLogger(logger),
	}
	if len(c.CategoryRelations) > 0 {
		opts = append(opts, recommend.WithCategoryRelations(rank.CategoryRelations(c.CategoryRelations)))
	}
	return recommend.NewEngine(cat, opts...)
}
