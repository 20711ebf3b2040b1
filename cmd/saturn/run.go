package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"custodia-hq/saturn/pkg/cli"
	"custodia-hq/saturn/pkg/config"
	"custodia-hq/saturn/pkg/retention/dispatch"
	"custodia-hq/saturn/pkg/retention/source"
	"custodia-hq/saturn/pkg/retention/sweep"
	"custodia-hq/saturn/pkg/server"
	"custodia-hq/saturn/pkg/telemetry/health"
	"custodia-hq/saturn/pkg/telemetry/logging"
	"custodia-hq/saturn/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Saturn retention daemon",
	Long: `Start the Saturn retention daemon with the specified configuration.

The daemon loads the rule file, consumes retention events through the
evaluation queue, runs the scheduled expiration sweep, and serves the
metrics and health endpoints on the configured address.

Examples:
  # Start with default config
  saturn run

  # Start with custom config
  saturn run --config /etc/saturn/config.yaml

  # Override listen address
  saturn run --listen 0.0.0.0:8484

  # Validate config without starting the daemon
  saturn run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the daemon")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	if _, err := logging.Setup(&cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Saturn v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	comps, err := buildComponents(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer comps.Close()

	if rules, err := comps.rules.List(cmd.Context()); err == nil {
		fmt.Printf("✓ Rules loaded (%d rules from %s)\n", len(rules), cfg.Rules.FilePath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Rule file hot reload
	if cfg.Rules.Watch {
		watcher, err := source.NewWatcher(comps.source, 0)
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to watch rule file: %w", err))
		}
		defer watcher.Close()
		go func() {
			if err := watcher.Watch(ctx, func() error {
				return comps.source.Sync(comps.rules)
			}); err != nil && ctx.Err() == nil {
				slog.Error("rule watcher stopped", "error", err)
			}
		}()
		fmt.Println("✓ Rule file watcher started")
	}

	// Event dispatch and queue consumption
	dispatcher := dispatch.NewDispatcher(comps.rules, comps.queue)
	dispatcher.Register(comps.bus)

	var queueMetrics *metrics.QueueMetrics
	if comps.metrics != nil {
		queueMetrics = comps.metrics.Queue
	}
	pool := dispatch.NewPool(dispatch.PoolConfig{
		Queue:        comps.queue,
		Engine:       comps.engine,
		Repo:         comps.repo,
		Workers:      cfg.Queue.Workers,
		PollInterval: cfg.Queue.PollInterval,
		Metrics:      queueMetrics,
	})
	pool.Start(ctx)
	defer pool.Stop()
	fmt.Printf("✓ Queue workers started (%d workers)\n", cfg.Queue.Workers)

	// Scheduled expiration sweep
	if cfg.Sweep.Enabled {
		var retentionMetrics *metrics.RetentionMetrics
		if comps.metrics != nil {
			retentionMetrics = comps.metrics.Retention
		}
		sweeper := sweep.NewSweeper(sweep.Config{
			Repo:    comps.repo,
			Engine:  comps.engine,
			Timeout: cfg.Sweep.Timeout,
			Metrics: retentionMetrics,
		})
		scheduler := sweep.NewScheduler(sweeper, cfg.Sweep.Schedule)
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to start sweep scheduler: %w", err))
		}
		defer scheduler.Stop()
		fmt.Printf("✓ Sweep scheduler started (%s)\n", cfg.Sweep.Schedule)
	}

	// Admin HTTP server
	checker := health.New(5 * time.Second)
	checker.RegisterCheck("queue", func(ctx context.Context) error {
		_, err := comps.queue.Depth(ctx)
		return err
	})
	checker.RegisterCheck("rules", func(ctx context.Context) error {
		_, err := comps.rules.List(ctx)
		return err
	})

	srv := server.NewServer(&cfg.Server, &cfg.Telemetry.Metrics, comps.metrics, checker)
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	fmt.Println()
	fmt.Printf("✓ Admin server listening on %s\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Printf("✓ Health endpoints: http://%s/healthz /readyz\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Daemon stopped")
		return nil
	}
}
