package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/store"
)

type recommendOptions struct {
	seed      string
	productID string
	limit     int
	viewed    []string
}

func newRecommendCommand(root *rootOptions) *cobra.Command {
	opts := &recommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print recommendations for one product as JSON",
		Long: "Runs a single recommendation against the configured catalog (or a seed file)\n" +
			"for an in-memory visitor. --viewed replays earlier product views first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if opts.seed != "" {
				cfg.Catalog = config.CatalogConfig{Type: config.CatalogMemory, SeedFile: opts.seed, DisableBreaker: true}
			}
			return runRecommend(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.seed, "seed", "", "product seed file (YAML or JSON); overrides catalog config")
	f.StringVarP(&opts.productID, "product", "p", "", "reference product id")
	f.IntVarP(&opts.limit, "limit", "n", 0, "number of recommendations (default: recommend.default_limit)")
	f.StringSliceVar(&opts.viewed, "viewed", nil, "product ids viewed before the reference, oldest first")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func runRecommend(ctx context.Context, cfg *config.Config, opts *recommendOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// 结果输出到 stdout，日志只保留警告以上
	if cfg.Log.Level == "info" || cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	cfg.Log.OutputPaths = []string{"stderr"}
	logger, err := initLogger(cfg.Log)
	if err != nil {
		return err
	}

	cat, closeCatalog, err := config.BuildCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	defer closeCatalog()

	engine, err := cfg.BuildEngine(cat, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	backend := store.NewMemoryStore()
	defer backend.Close()
	session := engine.Session(cfg.BuildPreferenceManager(backend, logger).For(ctx, "cli"))

	for _, id := range opts.viewed {
		p, err := cat.GetProduct(ctx, id)
		if err != nil {
			if core.IsNotFound(err) {
				logger.Warn("viewed product not found, skipped", logging.String("id", id))
				continue
			}
			return err
		}
		session.UpdateUserPreferences(ctx, p)
	}

	reference, err := cat.GetProduct(ctx, opts.productID)
	if err != nil {
		if core.IsNotFound(err) {
			return fmt.Errorf("product %q not found", opts.productID)
		}
		return err
	}

	results, err := session.GetRecommendations(ctx, reference, opts.limit)
	if err != nil {
		return err
	}
	if results == nil {
		results = []core.ScoredCandidate{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return errors.Join(errors.New("encode results"), err)
	}
	return nil
}
