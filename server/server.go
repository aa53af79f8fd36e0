// Package server 通过 HTTP 暴露推荐、访客偏好与热销商品接口。
//
// 路由：
//
//	GET    /api/v1/products/{id}/recommendations?limit=N
//	GET    /api/v1/products/trending?limit=N
//	GET    /api/v1/preferences
//	POST   /api/v1/preferences/views   {"product_id": "..."}
//	DELETE /api/v1/preferences
//	GET    /healthz
//	GET    /metrics
//
// 访客通过 X-Visitor-ID 请求头或 visitor_id cookie 识别。
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/preference"
	"github.com/rushteam/shoprec/recommend"
)

// Server 是推荐服务的 HTTP 入口。
type Server struct {
	engine   *recommend.Engine
	prefs    *preference.Manager
	gatherer prometheus.Gatherer
	logger   logging.Logger
	cfg      config.ServerConfig
	now      func() time.Time

	http *http.Server
}

// Option 配置 Server。
type Option func(*Server)

// WithGatherer 暴露 /metrics，未设置时不注册该路由。
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithLogger 设置 Logger。
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock 替换响应时间戳的时钟。
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New 创建 Server。
func New(cfg config.ServerConfig, engine *recommend.Engine, prefs *preference.Manager, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		prefs:  prefs,
		logger: logging.Default(),
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("server")

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

// Handler 构建路由。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.accessLog)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/trending", s.handleTrending)
		r.Get("/products/{id}/recommendations", s.handleRecommendations)

		r.Route("/preferences", func(r chi.Router) {
			r.Use(s.requireVisitor)
			r.Get("/", s.handleGetPreferences)
			r.Delete("/", s.handleResetPreferences)
			r.Post("/views", s.handleRecordView)
		})
	})
	return r
}

// Start 开始监听，阻塞直到服务关闭。正常关闭时返回 nil。
func (s *Server) Start() error {
	s.logger.Info("http server listening", logging.String("addr", s.cfg.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Serve 在已有的 listener 上提供服务。
func (s *Server) Serve(l net.Listener) error {
	err := s.http.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 优雅关闭，等待进行中的请求完成，最长 ShutdownTimeout。
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	s.logger.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}

// accessLog 记录每个请求的状态码与耗时。
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Int("bytes", ww.BytesWritten()),
			logging.Duration("elapsed", time.Since(start)),
			logging.String("request_id", requestID(r)),
			logging.String("remote", r.RemoteAddr))
	})
}

func requestID(r *http.Request) string {
	return chimiddleware.GetReqID(r.Context())
}
