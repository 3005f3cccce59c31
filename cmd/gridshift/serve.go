package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/jgd-gridshift/internal/cache/redisstore"
	"github.com/mohammed-shakir/jgd-gridshift/internal/cache/snapshot"
	"github.com/mohammed-shakir/jgd-gridshift/internal/core/config"
	"github.com/mohammed-shakir/jgd-gridshift/internal/core/router"
	"github.com/mohammed-shakir/jgd-gridshift/internal/core/server"
	"github.com/mohammed-shakir/jgd-gridshift/internal/invalidation/kafkaconsumer"
	"github.com/mohammed-shakir/jgd-gridshift/internal/logger"
	"github.com/mohammed-shakir/jgd-gridshift/internal/metrics"
	"github.com/mohammed-shakir/jgd-gridshift/internal/registry"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve transformations over HTTP",
	Long: `Serve loads the par files listed in the manifest and exposes the /v1 API.
Settings come from the environment (ADDR, MANIFEST_PATH, REDIS_ADDR, ...);
flags override them.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides ADDR)")
	serveCmd.Flags().String("manifest", "", "manifest path (overrides MANIFEST_PATH)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Addr = v
	}
	if v, _ := cmd.Flags().GetString("manifest"); v != "" {
		cfg.ManifestPath = v
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "gridshift",
		Version:   Version,
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)
	slog.SetDefault(appLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manifest, err := config.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}

	opts := []registry.Option{registry.WithLogger(appLog)}
	if cfg.RedisAddr != "" {
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			// snapshots only speed up startup; serve without them
			appLog.Warn("snapshot store unavailable", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer func() { _ = rc.Close() }()
			opts = append(opts, registry.WithSnapshots(snapshot.New(rc, cfg.SnapshotTTL), cfg.SnapshotOpTO))
		}
	}
	reg, err := registry.New(manifest, cfg.RegistrySize, opts...)
	if err != nil {
		return err
	}

	appLog.Info("starting gridshift",
		"addr", cfg.Addr, "version", Version, "manifest", cfg.ManifestPath,
		"preload", len(manifest.Preload()))

	// readiness reports the preload; serving starts regardless
	go func() {
		if err := reg.Preload(ctx); err != nil {
			appLog.Error("preload failed", "err", err)
		}
	}()

	if cfg.Reload.Enabled {
		consumer := kafkaconsumer.New(kafkaconsumer.FromReload(cfg.Reload), appLog, reg)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("reload consumer stopped", "err", err)
			}
		}()
	}

	deps := server.Deps{
		Handlers: router.New(appLog, reg, transformer.Options{
			MaxIterations: cfg.MaxIterations,
			Tolerance:     cfg.Tolerance,
		}),
		Ready: reg,
	}
	if cfg.MetricsEnabled {
		p := metrics.Init(metrics.Config{Build: metrics.BuildInfo{
			Version: Version, Revision: Revision, BuildDate: BuildDate,
		}})
		deps.Metrics = p.Handler()
	}

	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	appLog.Info("shutdown complete")
	return nil
}
