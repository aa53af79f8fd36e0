package core

import "context"

// Catalog 是商品目录的领域接口，由外部数据源（Postgres / 内存等）实现。
//
// 约定：
//   - 返回的 Product 已完成归一化（价格为严格数值）
//   - 访问失败是硬错误，由调用方上报，不做自动重试
type Catalog interface {
	// Name 返回目录后端名称（用于日志/监控）
	Name() string

	// ListProducts 返回全部商品，excludeID 非空时在数据访问层排除该商品
	ListProducts(ctx context.Context, excludeID string) ([]*Product, error)

	// ListRecentProducts 按创建时间倒序返回最新的 limit 个商品
	ListRecentProducts(ctx context.Context, limit int) ([]*Product, error)

	// ListTrendingProducts 按累计下单量倒序返回 limit 个商品
	ListTrendingProducts(ctx context.Context, limit int) ([]*Product, error)

	// GetProduct 按 ID 读取单个商品，不存在时返回 ErrProductNotFound
	GetProduct(ctx context.Context, id string) (*Product, error)
}

var (
	// ErrProductNotFound 表示商品不存在
	ErrProductNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: product not found")

	// ErrCatalogUnavailable 表示商品目录不可访问
	ErrCatalogUnavailable = NewDomainError(ModuleCatalog, ErrorCodeUnavailable, "catalog: unavailable")
)

// CatalogUnavailable 将底层错误包装为 ErrCatalogUnavailable。
func CatalogUnavailable(err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) || IsNotFound(err) {
		return err
	}
	return WrapDomainError(ModuleCatalog, ErrorCodeUnavailable, "catalog: unavailable", err)
}
