package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/filter"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/preference"
	"github.com/rushteam/shoprec/rank"
	"github.com/rushteam/shoprec/recall"
	"github.com/rushteam/shoprec/rerank"
)

// Engine 是推荐引擎：无状态，可被多个访客并发使用；访客状态都在 preference.Store 中。
type Engine struct {
	catalog  core.Catalog
	primary  Recommender
	fallback Recommender
	config   core.RecommendConfig
	logger   logging.Logger
	now      func() time.Time
}

type engineOptions struct {
	relations  rank.CategoryRelations
	filterExpr string
	config     core.RecommendConfig
	logger     logging.Logger
	now        func() time.Time
	primary    Recommender
	fallback   Recommender
}

// Option 配置 Engine。
type Option func(*engineOptions)

// WithCategoryRelations 替换内置类目关联表。
func WithCategoryRelations(r rank.CategoryRelations) Option {
	return func(o *engineOptions) { o.relations = r }
}

// WithFilterExpr 设置候选保留条件（CEL 表达式），空串表示不启用。
func WithFilterExpr(expr string) Option {
	return func(o *engineOptions) { o.filterExpr = expr }
}

// WithConfig 设置推荐数量等默认值。
func WithConfig(c core.RecommendConfig) Option {
	return func(o *engineOptions) { o.config = c }
}

// WithLogger 设置 Logger。
func WithLogger(l logging.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithClock 替换打分时钟（测试用）。
func WithClock(now func() time.Time) Option {
	return func(o *engineOptions) { o.now = now }
}

// WithRecommenders 替换个性化与兜底策略，nil 表示使用默认实现。
func WithRecommenders(primary, fallback Recommender) Option {
	return func(o *engineOptions) {
		o.primary = primary
		o.fallback = fallback
	}
}

// NewEngine 构建推荐引擎。表达式编译失败时返回错误。
func NewEngine(cat core.Catalog, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recommend: catalog is required")
	}
	o := engineOptions{
		config: &core.DefaultRecommendConfig{},
		logger: logging.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("recommend")

	if o.primary == nil {
		exprFilter, err := filter.NewExprFilter(o.filterExpr)
		if err != nil {
			return nil, fmt.Errorf("recommend: filter expr %q: %w", o.filterExpr, err)
		}
		if exprFilter != nil {
			logger.Info("candidate filter enabled", logging.String("expr", exprFilter.Expr()))
		}
		o.primary = NewPrimaryRanker(cat, o.relations, exprFilter, logger)
	}
	if o.fallback == nil {
		o.fallback = NewFallbackRanker(cat, logger)
	}

	return &Engine{
		catalog:  cat,
		primary:  o.primary,
		fallback: o.fallback,
		config:   o.config,
		logger:   logger,
		now:      o.now,
	}, nil
}

// Config 返回推荐默认值。
func (e *Engine) Config() core.RecommendConfig {
	return e.config
}

// Catalog 返回引擎使用的商品目录。
func (e *Engine) Catalog() core.Catalog {
	return e.catalog
}

// Recommend 为参考商品生成推荐：
//  1. 浏览参考商品本身就是偏好信号，先更新偏好（prefs 可为 nil）
//  2. 个性化排序
//  3. 结果为空时切换兜底策略
//
// limit <= 0 时使用默认推荐数量。目录访问失败返回错误，不重试；空结果不是错误。
func (e *Engine) Recommend(ctx context.Context, prefs *preference.Store, reference *core.Product, limit int) ([]core.ScoredCandidate, error) {
	if reference == nil {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recommend: reference product is required")
	}
	if limit <= 0 {
		limit = e.config.DefaultLimit()
	}
	start := time.Now()

	var profile *core.UserProfile
	if prefs != nil {
		prefs.Update(ctx, reference)
		profile = prefs.Profile()
	}

	rctx := &core.RecommendContext{
		Scene:     "product_detail",
		Reference: reference,
		User:      profile,
		Now:       e.now(),
		Limit:     limit,
	}
	if profile != nil {
		rctx.VisitorID = profile.VisitorID
	}

	path := metrics.PathPrimary
	items, err := e.primary.Recommend(ctx, rctx)
	if err == nil && len(items) == 0 {
		path = metrics.PathFallback
		e.logger.Debug("no personalized recommendations, using newest products",
			logging.String("reference", reference.ID))
		items, err = e.fallback.Recommend(ctx, rctx)
	}
	if err != nil {
		metrics.RecommendRequests.WithLabelValues(metrics.PathError).Inc()
		e.logger.Error("recommendation failed",
			logging.String("reference", reference.ID),
			logging.String("visitor", rctx.VisitorID),
			logging.String("path", path),
			logging.Err(err))
		return nil, err
	}
	if len(items) == 0 {
		path = metrics.PathEmpty
	}

	out := make([]core.ScoredCandidate, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, core.NewScoredCandidate(it))
	}

	metrics.RecommendRequests.WithLabelValues(path).Inc()
	metrics.RecommendLatency.Observe(time.Since(start).Seconds())
	e.explain(reference, rctx.VisitorID, path, out)
	return out, nil
}

// Trending 返回热销商品（按下单量倒序，只保留有库存的），limit <= 0 时使用默认数量。
func (e *Engine) Trending(ctx context.Context, limit int) ([]*core.Product, error) {
	if limit <= 0 {
		limit = e.config.DefaultLimit()
	}
	p := &pipeline.Pipeline{
		Name:   "trending",
		Logger: e.logger,
		Nodes: []pipeline.Node{
			&recall.TrendingRecall{Catalog: e.catalog},
			filter.NewFilterNode(&filter.InStockFilter{}),
			&rerank.TopNNode{},
		},
	}
	items, err := p.Run(ctx, &core.RecommendContext{Scene: "trending", Now: e.now(), Limit: limit}, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Product, 0, len(items))
	for _, it := range items {
		out = append(out, it.Product)
	}
	return out, nil
}

// Session 把引擎与一个访客的偏好绑定，提供面向展示层的接口。
func (e *Engine) Session(prefs *preference.Store) *Session {
	return &Session{engine: e, prefs: prefs}
}

type explainEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Fallback bool    `json:"fallback"`
}

// explain 在 DEBUG 级别输出推荐明细，用于排查打分问题。
func (e *Engine) explain(reference *core.Product, visitor, path string, results []core.ScoredCandidate) {
	entries := make([]explainEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, explainEntry{
			ID:       r.Product.ID,
			Name:     r.Product.Name,
			Score:    r.RecommendationScore,
			Category: r.Product.Category,
			Price:    r.Product.Price,
			Fallback: r.IsFallback,
		})
	}
	e.logger.Debug("recommendation results",
		logging.String("reference", reference.ID),
		logging.String("reference_name", reference.Name),
		logging.String("visitor", visitor),
		logging.String("path", path),
		logging.Int("count", len(entries)),
		logging.Any("results", entries))
}
