package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pavletto/forestdata/internal/logging"
	"github.com/pavletto/forestdata/internal/observability"
)

// Set up once per process by the root command before any subcommand runs.
var (
	log             = logging.Noop()
	appCfg          Config
	metrics         *observability.Collector
	shutdownTracing func(context.Context) error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "forestdata",
	Short: "Country geospatial data preparation for deforestation risk models",
	Long: `forestdata prepares country-level inputs for deforestation risk modelling.

It provides commands to:
- download-srtm: fetch the GADM boundary and every SRTM 5x5 tile covering a country
- compute: reproject the boundary, run the data layers and build the output tree
- tiles: list the SRTM tiles covering a country or a bounding box
- serve: expose tile lookups and metrics over HTTP

Configuration can be set via flags, environment variables (FAR_*), a .env
file or a YAML file given with --config. Flags take precedence.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	finish()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("config", "", "YAML config file; keys are flag names")
	rootCmd.PersistentFlags().StringP("cache-dir", "c", ".", "Directory for GADM boundaries and SRTM tile archives")
	rootCmd.PersistentFlags().String("srtm-url-template", "", "URL template for SRTM tiles ({x} column, {y} row)")
	rootCmd.PersistentFlags().String("gadm-url-template", "", "URL template for GADM archives ({iso3})")
	rootCmd.PersistentFlags().Duration("http-timeout", 0, "Timeout for a single download (default 10m)")
	rootCmd.PersistentFlags().Bool("verify-siblings", false, "Require .shx and .dbf before trusting a cached boundary")
	rootCmd.PersistentFlags().String("extent-backend", "shapefile", "Extent reader: shapefile or gdal")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	rootCmd.PersistentFlags().Bool("tracing", false, "Enable OpenTelemetry tracing")
	rootCmd.PersistentFlags().String("tracing-exporter", "stdout", "Tracing exporter: stdout or otlp")
	rootCmd.PersistentFlags().String("otlp-endpoint", "localhost:4317", "OTLP/gRPC collector endpoint")
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	appCfg = cfg

	log = logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		With("run_id", uuid.NewString(), "command", cmd.Name())
	slog.SetDefault(log)

	metrics, err = observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	shutdownTracing, err = observability.InitTracing(cmd.Context(), observability.TracingConfig{
		Enabled:  cfg.TracingEnabled,
		Exporter: cfg.TracingExporter,
		Endpoint: cfg.OTLPEndpoint,
	}, log)
	return err
}

// finish flushes traces and writes the metrics textfile, whatever the
// outcome of the command.
func finish() {
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
	if appCfg.MetricsFile != "" && metrics != nil {
		if err := metrics.WriteTextfile(appCfg.MetricsFile); err != nil {
			log.Warn("writing metrics file failed", "path", appCfg.MetricsFile, "err", err)
		}
	}
}

// observed records the outcome of a command run in the metrics.
func observed(name string, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		metrics.ObserveRun(name, err)
		if err != nil {
			log.Error("command failed", "err", err)
		}
		return err
	}
}
