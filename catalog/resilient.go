package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// BreakerConfig 是熔断器参数。
type BreakerConfig struct {
	// MaxRequests 半开状态允许的并发试探请求数，默认 3
	MaxRequests uint32 `yaml:"max_requests"`

	// Interval 关闭状态下计数清零的周期，默认 1m
	Interval time.Duration `yaml:"interval"`

	// Timeout 打开状态持续多久后进入半开，默认 30s
	Timeout time.Duration `yaml:"timeout"`

	// MinRequests 触发熔断所需的最少请求数，默认 10
	MinRequests uint32 `yaml:"min_requests"`

	// FailureRatio 失败率达到该值时熔断，默认 0.6
	FailureRatio float64 `yaml:"failure_ratio"`
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxRequests == 0 {
		c.MaxRequests = 3
	}
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MinRequests == 0 {
		c.MinRequests = 10
	}
	if c.FailureRatio <= 0 {
		c.FailureRatio = 0.6
	}
	return c
}

// Resilient 给目录加上熔断与请求合并：
//   - 相同参数的并发读取合并为一次（singleflight）
//   - 连续失败后熔断，熔断期间直接返回 ErrCatalogUnavailable
//
// 合并后的读取不随某个调用方取消而中断：取消的调用方立即返回自己的 ctx 错误，
// 其余调用方继续等待结果。不做重试：目录失败要如实上报给调用方。
type Resilient struct {
	next   core.Catalog
	cb     *gobreaker.CircuitBreaker[any]
	group  singleflight.Group
	logger logging.Logger
}

// NewResilient 包装目录。logger 为 nil 时使用 logging.Default()。
func NewResilient(next core.Catalog, cfg BreakerConfig, logger logging.Logger) *Resilient {
	if logger == nil {
		logger = logging.Default()
	}
	cfg = cfg.withDefaults()
	name := "catalog-" + next.Name()

	r := &Resilient{next: next, logger: logger}
	r.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("catalog circuit breaker state change",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()))
		},
		// 商品不存在、调用方取消都不算目录故障
		IsSuccessful: func(err error) bool {
			return err == nil || core.IsNotFound(err) ||
				errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})
	return r
}

func (r *Resilient) Name() string { return r.next.Name() }

// State 返回熔断器当前状态（closed / half-open / open）。
func (r *Resilient) State() string {
	return r.cb.State().String()
}

func (r *Resilient) ListProducts(ctx context.Context, excludeID string) ([]*core.Product, error) {
	return r.list(ctx, "list", "list:"+excludeID, func(ctx context.Context) ([]*core.Product, error) {
		return r.next.ListProducts(ctx, excludeID)
	})
}

func (r *Resilient) ListRecentProducts(ctx context.Context, limit int) ([]*core.Product, error) {
	return r.list(ctx, "recent", "recent:"+strconv.Itoa(limit), func(ctx context.Context) ([]*core.Product, error) {
		return r.next.ListRecentProducts(ctx, limit)
	})
}

func (r *Resilient) ListTrendingProducts(ctx context.Context, limit int) ([]*core.Product, error) {
	return r.list(ctx, "trending", "trending:"+strconv.Itoa(limit), func(ctx context.Context) ([]*core.Product, error) {
		return r.next.ListTrendingProducts(ctx, limit)
	})
}

func (r *Resilient) GetProduct(ctx context.Context, id string) (*core.Product, error) {
	v, err := r.do(ctx, "get", "get:"+id, func(ctx context.Context) (any, error) {
		return r.next.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	p, ok := v.(*core.Product)
	if !ok || p == nil {
		return nil, core.CatalogUnavailable(fmt.Errorf("catalog: unexpected result type %T", v))
	}
	return clone(p), nil
}

func (r *Resilient) list(ctx context.Context, op, key string, fn func(context.Context) ([]*core.Product, error)) ([]*core.Product, error) {
	v, err := r.do(ctx, op, key, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		return nil, err
	}
	products, ok := v.([]*core.Product)
	if !ok {
		return nil, core.CatalogUnavailable(fmt.Errorf("catalog: unexpected result type %T", v))
	}
	// 合并请求的调用方共享同一份结果，这里给每个调用方一份独立的切片
	return append([]*core.Product(nil), products...), nil
}

// do 合并相同 key 的读取。共享的读取使用去掉取消信号的 ctx（保留其中的值），
// 每个调用方只等待自己的 ctx。
func (r *Resilient) do(ctx context.Context, op, key string, fn func(context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key, func() (any, error) {
		return r.cb.Execute(func() (any, error) { return fn(shared) })
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	v, err := res.Val, res.Err
	if err == nil {
		return v, nil
	}
	if core.IsNotFound(err) {
		return nil, err
	}

	metrics.CatalogErrors.WithLabelValues(op).Inc()
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		r.logger.Warn("catalog request rejected by circuit breaker",
			logging.String("op", op),
			logging.String("catalog", r.next.Name()))
	}
	return nil, core.CatalogUnavailable(err)
}

var _ core.Catalog = (*Resilient)(nil)
