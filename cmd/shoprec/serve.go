package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/server"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the recommendation HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := initLogger(cfg.Log)
	if err != nil {
		return err
	}
	logger = logger.Named("shoprec")

	backend, err := config.BuildStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("close store failed", logging.Err(err))
		}
	}()

	cat, closeCatalog, err := config.BuildCatalog(ctx, cfg.Catalog, logger.Named("catalog"))
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	defer closeCatalog()

	engine, err := cfg.BuildEngine(cat, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	prefs := cfg.BuildPreferenceManager(backend, logger.Named("preference"))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(reg)

	srv := server.New(cfg.Server, engine, prefs,
		server.WithLogger(logger),
		server.WithGatherer(reg))

	logger.Info("starting shoprec",
		logging.String("version", version),
		logging.String("store", backend.Name()),
		logging.String("catalog", cat.Name()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		// 父 ctx 已取消，关闭时使用独立的 ctx
		return srv.Shutdown(context.Background())
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shoprec stopped")
	return nil
}
