package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"roomservice/internal/api"
	"roomservice/internal/config"
	"roomservice/internal/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	var port, metricsPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and metrics servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			if cmd.Flags().Changed("metrics-port") {
				a.cfg.Metrics.Port = metricsPort
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "API server port")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 9090, "Metrics server port")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	if !a.cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	service, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := service.Close(); err != nil {
			a.logger.Warn("service shutdown error", zap.Error(err))
		}
	}()

	var metricsServer *http.Server
	if a.cfg.Metrics.Enabled {
		metricsServer = startMetricsServer(a.cfg.Metrics, service.Metrics(), a.logger)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: api.NewServer(service, a.logger).Router,
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-hup:
				if err := service.ReloadCatalog(a.cfg.Catalog.MenuPath, a.cfg.Catalog.InventoryPath); err != nil {
					a.logger.Error("catalog reload failed", zap.Error(err))
					continue
				}
				a.logger.Info("catalog reloaded")
			case <-ctx.Done():
				return
			}
		}
	}()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}

		a.logger.Info("shutting down servers")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("API server shutdown error", zap.Error(err))
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("metrics server shutdown error", zap.Error(err))
			}
		}

		cancel()
	}()

	a.logger.Info("starting API server", zap.Int("port", a.cfg.Server.Port))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}

func startMetricsServer(cfg config.MetricsConfig, metrics *monitoring.Metrics, logger *zap.Logger) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET(cfg.Path, gin.WrapH(metrics.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: metricsRouter,
	}

	go func() {
		logger.Info("starting metrics server", zap.Int("port", cfg.Port), zap.String("path", cfg.Path))
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return metricsServer
}
