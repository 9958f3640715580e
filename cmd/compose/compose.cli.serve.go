package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	compose "github.com/itsatony/go-compose"
)

type serveConfig struct {
	engineFlags
	listen string
}

func newServeCmd() *cobra.Command {
	cfg := &serveConfig{}
	cmd := &cobra.Command{
		Use:   CmdNameServe,
		Short: "Serve templates over HTTP",
		Long: `Serve GET requests by rendering the template named by the request
path. Paths ending in "/" render index.html. Prometheus metrics are
exposed at /metrics.`,
		Example: `  compose serve --config compose.yaml
  compose serve --dir templates --listen :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&cfg.dirs, FlagDir, FlagDirShort, nil, FlagUsageDir)
	flags.StringVarP(&cfg.configPath, FlagConfig, FlagConfigShort, "", FlagUsageConfig)
	flags.IntVar(&cfg.maxDepth, FlagMaxDepth, 0, FlagUsageMaxDepth)
	flags.StringVarP(&cfg.listen, FlagListen, FlagListenShort, "", FlagUsageListen)
	return cmd
}

func runServe(cmd *cobra.Command, sc *serveConfig) error {
	cfg, err := sc.resolveConfig()
	if err != nil {
		return err
	}
	if sc.listen != "" {
		cfg.Listen = sc.listen
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return fail(ExitCodeInputError, ErrMsgConfigFailed, err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := compose.NewMetrics(reg)
	if err != nil {
		return fail(ExitCodeError, ErrMsgEngineFailed, err)
	}

	engine, closeFn, err := openEngine(cfg, compose.WithLogger(logger), compose.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      newServeHandler(engine, cfg, reg, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.OutOrStdout(), FmtServing, srv.Addr)
		logger.Info(LogMsgServing, zap.String(LogFieldListen, srv.Addr), zap.Strings(LogFieldDirs, cfg.TemplateDirs))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fail(ExitCodeError, ErrMsgServeFailed, err)
	case <-ctx.Done():
		logger.Info(LogMsgShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fail(ExitCodeError, ErrMsgServeFailed, err)
		}
		return nil
	}
}

// newServeHandler mounts the metrics endpoint next to the template handler.
func newServeHandler(engine *compose.Engine, cfg compose.Config, reg *prometheus.Registry, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Handle(compose.DefaultMetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Mount("/", compose.NewHandler(engine,
		compose.WithCSRFHeader(cfg.CSRFHeader),
		compose.WithHandlerLogger(logger)))
	return r
}
