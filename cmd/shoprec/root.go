package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/shoprec/config"
	"github.com/rushteam/shoprec/pkg/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "shoprec",
		Short:         "Product recommendation service",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file path (YAML); defaults are used when empty")
	pf.StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCommand(opts),
		newRecommendCommand(opts),
	)
	return cmd
}

// loadConfig 读取配置文件（未指定时使用默认配置）并应用命令行覆盖。
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// initLogger 构建进程级 Logger 并设为默认。
func initLogger(cfg logging.LogConfig) (logging.Logger, error) {
	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	logging.SetDefault(logger)
	return logger, nil
}
