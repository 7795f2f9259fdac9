// Command commandloop runs a demo robot on the command scheduler from a
// fixed-period control loop.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	command "github.com/stateforward/go-command"
	"github.com/stateforward/go-command/clock"
	"github.com/stateforward/go-command/pkg/loop"
	"github.com/stateforward/go-command/pkg/metrics"
	"github.com/stateforward/go-command/pkg/plantuml"
)

var (
	configPath  string
	runDuration time.Duration
	runAuto     bool
)

var rootCmd = &cobra.Command{
	Use:           "commandloop",
	Short:         "Run a demo robot on the command scheduler",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tick the scheduler until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loop.Load(configPath)
		if err != nil {
			return err
		}
		level, err := config.Level()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if runDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runDuration)
			defer cancel()
		}
		return run(ctx, config, logger)
	},
}

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Print the autonomous routine as a PlantUML diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		scheduler := command.NewScheduler(cmd.Context(), command.Config{Logger: logger})
		r, err := newRobot(scheduler, logger, clock.System)
		if err != nil {
			return err
		}
		return plantuml.Generate(cmd.OutOrStdout(), "autonomous", r.auto)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default loop configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), loop.DefaultYAML())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "commandloop.yaml", "Loop configuration file; defaults apply when it does not exist")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	runCmd.Flags().BoolVar(&runAuto, "auto", true, "Schedule the autonomous routine on start")
	rootCmd.AddCommand(runCmd, diagramCmd, configCmd)
}

func run(ctx context.Context, config loop.Config, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m, err := metrics.New(registry, metrics.DefaultNamespace)
	if err != nil {
		return err
	}
	if config.MetricsAddr != "" {
		server := &http.Server{Addr: config.MetricsAddr, Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{})}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer server.Close()
		logger.Info("serving metrics", "addr", config.MetricsAddr)
	}

	scheduler := command.NewScheduler(ctx, command.Config{
		Logger:   logger,
		Metrics:  m,
		Disabled: !config.Enabled,
	})
	r, err := newRobot(scheduler, logger, clock.System)
	if err != nil {
		return err
	}
	scheduler.OnFinish(func(c command.Command) {
		logger.Info("command finished", "command", c.Name())
	})
	if runAuto {
		if err := scheduler.Schedule(r.auto); errors.Is(err, command.ErrDisabled) {
			logger.Warn("autonomous routine skipped", "error", err)
		} else if err != nil {
			return err
		}
	}

	logger.Info("control loop started", "period", config.Period, "enabled", scheduler.Enabled())
	err = loop.Run(ctx, config.Period, scheduler.Run)
	scheduler.CancelAll()
	logger.Info("control loop stopped", "distance", r.drive.distance, "pieces", r.intake.pieces)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "commandloop:", err)
		os.Exit(1)
	}
}
