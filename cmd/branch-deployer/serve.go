package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"branch-deployer/internal/deploy"
	"branch-deployer/internal/kube"
	"branch-deployer/internal/metrics"
	"branch-deployer/internal/server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /?branch=&git_hash= and upsert the branch resources",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd, os.Stdout)
	if err != nil {
		return err
	}

	client, err := kube.NewClient(cfg.Connection())
	if err != nil {
		logger.Error("failed to create Kubernetes client", "error", err)
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		fatalOnce sync.Once
		fatalErr  error
	)
	onFatal := func(err error) {
		fatalOnce.Do(func() {
			fatalErr = err
			stop()
		})
	}

	deployer := deploy.New(client, cfg.Flavor(), cfg.ManifestOptions(), logger, recorder)
	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: server.New(server.Options{
			Deployer:  deployer,
			Pinger:    client,
			Namespace: cfg.Namespace,
			Logger:    logger,
			Metrics:   recorder,
			Gatherer:  reg,
			OnFatal:   onFatal,
		}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr, "namespace", cfg.Namespace, "api_flavor", cfg.APIFlavor)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			onFatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
		return err
	}

	if fatalErr != nil {
		logger.Error("http server stopped after fatal error", "error", fatalErr)
		return fatalErr
	}
	logger.Info("http server stopped")
	return nil
}
