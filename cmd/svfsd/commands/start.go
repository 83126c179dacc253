package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittofs/internal/api"
	"github.com/marmos91/dittofs/internal/janitor"
	"github.com/marmos91/dittofs/internal/logger"
	"github.com/marmos91/dittofs/internal/telemetry"
	"github.com/marmos91/dittofs/pkg/config"
	"github.com/marmos91/dittofs/pkg/metrics"
	"github.com/marmos91/dittofs/pkg/svf"
	"github.com/marmos91/dittofs/pkg/svfs"

	// Import for its init() side effect: registers the Prometheus
	// constructor with pkg/metrics so NewSVFMetrics has something to call.
	_ "github.com/marmos91/dittofs/pkg/metrics/prometheus"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the svfsd cache server",
	Long: `Start svfsd in the foreground, serving its Sparse Virtual File System
over HTTP.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/svfsd/config.yaml.

Examples:
  # Start with defaults
  svfsd start

  # Start with a custom config file
  svfsd start --config /etc/svfsd/config.yaml

  # Override a key that the config file sets, from the environment
  SVFSD_LOGGING_LEVEL=DEBUG svfsd start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "svfsd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	fmt.Println("svfsd - Sparse Virtual File System cache server")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}

	var svfMetrics svf.Metrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		svfMetrics = metrics.NewSVFMetrics()
		logger.Info("Metrics enabled")
	} else {
		logger.Info("Metrics disabled")
	}

	svfConfig := svf.Config{OverwriteOnExit: cfg.SVFS.OverwriteOnExit}
	if cfg.SVFS.CompareForDiff != nil {
		svfConfig.CompareForDiff = *cfg.SVFS.CompareForDiff
	} else {
		svfConfig.CompareForDiff = true
	}

	system := svfs.New(svfConfig, svfMetrics)

	sweep := janitor.New(system, uint64(cfg.SVFS.DefaultByteBudget), 0)
	sweep.Start(ctx)
	defer sweep.Stop()

	server := api.NewServer(cfg, system)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		signal.Stop(sigChan)
		cancel()
	}()

	logger.Info("svfsd is running", "addr", cfg.Server.ListenAddr)
	if err := server.Start(ctx); err != nil {
		logger.Error("svfsd server error", logger.Err(err))
		return err
	}

	logger.Info("svfsd stopped gracefully")
	return nil
}
