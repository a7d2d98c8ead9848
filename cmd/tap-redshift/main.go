package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-redshift/pkg/catalog"
	"github.com/ajitpratap0/tap-redshift/pkg/config"
	"github.com/ajitpratap0/tap-redshift/pkg/connector/sources/redshift"
	"github.com/ajitpratap0/tap-redshift/pkg/logger"
	"github.com/ajitpratap0/tap-redshift/pkg/message"
	"github.com/ajitpratap0/tap-redshift/pkg/metrics"
	"github.com/ajitpratap0/tap-redshift/pkg/observability"
	"github.com/ajitpratap0/tap-redshift/pkg/state"
)

var version = "0.1.0"

// options holds the command line flags of a run
type options struct {
	configFile     string
	catalogFile    string
	propertiesFile string
	stateFile      string
	discover       bool
	logLevel       string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	opts := &options{}
	root := &cobra.Command{
		Use:   "tap-redshift",
		Short: "Extract data from Amazon Redshift",
		Long: `tap-redshift discovers the tables of a Redshift schema and streams the
selected ones to stdout as SCHEMA, RECORD, STATE and ACTIVATE_VERSION messages.

Example:
  tap-redshift --config config.json --discover > catalog.json
  tap-redshift --config config.json --catalog catalog.json --state state.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	root.Flags().StringVarP(&opts.configFile, "config", "c", "", "Path to configuration JSON file (required)")
	root.Flags().BoolVarP(&opts.discover, "discover", "d", false, "Discover the schema and write a catalog to stdout")
	root.Flags().StringVar(&opts.catalogFile, "catalog", "", "Path to a catalog with the streams to sync")
	root.Flags().StringVarP(&opts.propertiesFile, "properties", "p", "", "Path to a catalog with the streams to sync (legacy name of --catalog)")
	root.Flags().StringVarP(&opts.stateFile, "state", "s", "", "Path to the state of the previous run")
	root.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	_ = root.MarkFlagRequired("config")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tap-redshift v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	if err := root.Execute(); err != nil {
		logger.Error("tap-redshift failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run executes discovery or sync as selected by opts
func run(ctx context.Context, opts *options) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogFormat}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	mode := "sync"
	if opts.discover {
		mode = "discover"
	}
	ctx = context.WithValue(ctx, logger.ModeKey, mode)
	log := logger.WithContext(ctx).With(zap.String("component", "tap-redshift"))

	catalogFile := opts.catalogFile
	if catalogFile == "" {
		catalogFile = opts.propertiesFile
	}
	if !opts.discover && catalogFile == "" {
		log.Info("No properties were selected")
		return nil
	}

	if cfg.TraceFile != "" {
		shutdown, err := startTracing(ctx, cfg.TraceFile)
		if err != nil {
			return err
		}
		defer shutdown(log)
	}
	if cfg.MetricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
				log.Warn("failed to write metrics file", zap.String("path", cfg.MetricsFile), zap.Error(err))
			}
		}()
	}

	conn, err := redshift.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			log.Warn("failed to close connection", zap.Error(err))
		}
	}()

	tap := redshift.NewTap(conn, cfg, message.NewWriter(os.Stdout), log)

	if opts.discover {
		cat, err := tap.Discover(ctx)
		if err != nil {
			return err
		}
		return cat.Write(os.Stdout)
	}

	requested, err := catalog.Load(catalogFile)
	if err != nil {
		return err
	}

	st := state.New()
	if opts.stateFile != "" {
		if st, err = state.Load(opts.stateFile); err != nil {
			return err
		}
	}

	startTime := time.Now()
	if err := tap.Sync(ctx, requested, st); err != nil {
		return err
	}
	log.Info("sync finished", zap.Duration("duration", time.Since(startTime)))
	return nil
}

// startTracing exports spans to path until the returned function is called
func startTracing(ctx context.Context, path string) (func(*zap.Logger), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}

	stop, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "tap-redshift",
		ServiceVersion: version,
		Output:         f,
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return func(log *zap.Logger) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stop(shutdownCtx); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
		_ = f.Close()
	}, nil
}
