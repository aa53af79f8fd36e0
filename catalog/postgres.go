package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rushteam/shoprec/core"
)

// PostgresConfig 是 Postgres 目录的连接配置。
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`

	// Table 默认 products
	Table string `yaml:"table"`

	// ConnectTimeout 建连 + Ping 的超时，默认 5s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// querier 是 PostgresCatalog 用到的最小查询接口，*pgxpool.Pool 满足它。
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCatalog 从 Postgres 的商品表读取目录。
//
// 表结构只要求以下列：id, name, category, price, image_urls, quantity,
// ordered_quantity, created_at。price 可以是 numeric 也可以是文本，
// 统一按文本读出后在 Normalize 中解析。
type PostgresCatalog struct {
	db    querier
	pool  *pgxpool.Pool
	table string
}

// NewPostgresCatalog 建立连接池并 Ping 一次。
func NewPostgresCatalog(ctx context.Context, cfg PostgresConfig) (*PostgresCatalog, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresCatalogFromPool(pool, cfg.Table), nil
}

// NewPostgresCatalogFromPool 复用已有连接池。
func NewPostgresCatalogFromPool(pool *pgxpool.Pool, table string) *PostgresCatalog {
	c := newPostgresCatalog(pool, table)
	c.pool = pool
	return c
}

func newPostgresCatalog(db querier, table string) *PostgresCatalog {
	if table == "" {
		table = "products"
	}
	return &PostgresCatalog{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
	}
}

func (c *PostgresCatalog) Name() string { return "postgres" }

// Close 关闭连接池（通过 FromPool 传入的连接池同样会被关闭）。
func (c *PostgresCatalog) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

const productColumns = `id::text, COALESCE(name, ''), COALESCE(category, ''), price::text,
	COALESCE(image_urls, ARRAY[]::text[]), COALESCE(quantity, 0)::bigint,
	COALESCE(ordered_quantity, 0)::bigint, COALESCE(created_at, 'epoch'::timestamptz)`

func (c *PostgresCatalog) ListProducts(ctx context.Context, excludeID string) ([]*core.Product, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE ($1 = '' OR id::text <> $1) ORDER BY id`, productColumns, c.table)
	return c.query(ctx, "list products", sql, excludeID)
}

func (c *PostgresCatalog) ListRecentProducts(ctx context.Context, limit int) ([]*core.Product, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC NULLS LAST, id LIMIT $1`, productColumns, c.table)
	return c.query(ctx, "list recent products", sql, limitArg(limit))
}

func (c *PostgresCatalog) ListTrendingProducts(ctx context.Context, limit int) ([]*core.Product, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s ORDER BY ordered_quantity DESC NULLS LAST, id LIMIT $1`, productColumns, c.table)
	return c.query(ctx, "list trending products", sql, limitArg(limit))
}

func (c *PostgresCatalog) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	sql := fmt.Sprintf(`SELECT %s FROM %s WHERE id::text = $1`, productColumns, c.table)
	p, err := scanProduct(c.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrProductNotFound
		}
		return nil, core.CatalogUnavailable(fmt.Errorf("get product %s: %w", id, err))
	}
	return p, nil
}

func (c *PostgresCatalog) query(ctx context.Context, op, sql string, args ...any) ([]*core.Product, error) {
	rows, err := c.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, core.CatalogUnavailable(fmt.Errorf("%s: %w", op, err))
	}
	defer rows.Close()

	out := make([]*core.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, core.CatalogUnavailable(fmt.Errorf("%s: %w", op, err))
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, core.CatalogUnavailable(fmt.Errorf("%s: %w", op, err))
	}
	return out, nil
}

// scanProduct 读取一行并归一化。
func scanProduct(row pgx.Row) (*core.Product, error) {
	var (
		raw   RawProduct
		id    string
		price *string
	)
	var quantity, ordered int64
	if err := row.Scan(&id, &raw.Name, &raw.Category, &price, &raw.ImageURLs, &quantity, &ordered, &raw.CreatedAt); err != nil {
		return nil, err
	}
	raw.ID = id
	raw.Quantity = quantity
	raw.OrderedQuantity = ordered
	if price != nil {
		raw.Price = *price
	}
	return Normalize(raw)
}

// limitArg 把 limit <= 0 映射为 NULL（LIMIT NULL 即不限）。
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

var _ core.Catalog = (*PostgresCatalog)(nil)
