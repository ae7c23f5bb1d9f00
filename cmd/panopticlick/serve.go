package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/panopticlick/Panopticlick-sub001/internal/config"
	"github.com/panopticlick/Panopticlick-sub001/internal/database"
	"github.com/panopticlick/Panopticlick-sub001/internal/pipeline"
	"github.com/panopticlick/Panopticlick-sub001/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the valuation engine over HTTP",
		Long: `Serve exposes the valuation engine as a JSON HTTP API.

Routes:
  GET  /healthz                      liveness probe
  GET  /metrics                      Prometheus metrics (unless --no-metrics)
  POST /api/v1/valuations            value one submission, returns the report
  GET  /api/v1/reports/{reportID}    fetch a saved report (history enabled only)

The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  # Serve on the default address with history
  panopticlick serve

  # Serve on localhost only, without history
  panopticlick serve --addr 127.0.0.1:9000 --no-save`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("addr", config.DefaultListenAddress,
		"Address to listen on")
	cmd.Flags().StringP("config", "c", "",
		"Methodology override file (default: .panopticlick in current or home directory)")
	cmd.Flags().Bool("verify-hash", false,
		"Reject payloads whose meta.hash does not match the computed digest")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum request body size in bytes")
	cmd.Flags().Int("max-connections", config.DefaultMaxConnections,
		"Maximum concurrent connections (0 for no limit)")
	cmd.Flags().Duration("read-header-timeout", config.DefaultReadHeaderTimeout,
		"Maximum time to read request headers")
	cmd.Flags().Duration("request-timeout", config.DefaultRequestTimeout,
		"Maximum time to handle one request")

	cmd.Flags().Bool("no-metrics", false,
		"Do not expose Prometheus metrics on /metrics")

	cmd.Flags().Bool("no-save", false,
		"Do not store reports in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	tables, err := loadMethodology(cfg)
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd, cfg.Verbose)
	if err != nil {
		return err
	}

	assembler := pipeline.NewAssembler(tables,
		pipeline.WithLogger(logger),
		pipeline.WithHashVerification(cfg.VerifyHash),
	)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMaxBodySize(cfg.MaxBodySize),
		server.WithRequestTimeout(cfg.RequestTimeout),
		server.WithMaxConnections(cfg.MaxConnections),
	}
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, server.WithMetrics(reg))
	}
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("history enabled", "path", db.Path())
		opts = append(opts, server.WithStore(db))
	}

	srv, err := server.New(assembler, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("listening", "addr", cfg.ListenAddress)
	return srv.ListenAndServe(ctx, cfg.ListenAddress, cfg.ReadHeaderTimeout)
}

// buildServeConfig creates a Config from the serve command flags.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.ListenAddress, err = cmd.Flags().GetString("addr"); err != nil {
		return nil, err
	}
	if cfg.VerifyHash, err = cmd.Flags().GetBool("verify-hash"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.MaxConnections, err = cmd.Flags().GetInt("max-connections"); err != nil {
		return nil, err
	}
	if cfg.ReadHeaderTimeout, err = cmd.Flags().GetDuration("read-header-timeout"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = cmd.Flags().GetDuration("request-timeout"); err != nil {
		return nil, err
	}
	noMetrics, err := cmd.Flags().GetBool("no-metrics")
	if err != nil {
		return nil, err
	}
	cfg.Metrics = !noMetrics
	if err := applyMethodologyFlag(cmd, cfg); err != nil {
		return nil, err
	}
	if err := applyDBFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
