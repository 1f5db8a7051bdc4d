package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/efreitasn/matchd/internal/config"
	"github.com/efreitasn/matchd/internal/engine"
	"github.com/efreitasn/matchd/internal/handler"
	"github.com/efreitasn/matchd/internal/logging"
	"github.com/efreitasn/matchd/internal/metrics"
	"github.com/efreitasn/matchd/internal/server"
	"github.com/efreitasn/matchd/internal/service"
	"github.com/efreitasn/matchd/internal/session"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:ADMIN_PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("ADMIN_PORT")
		if port == "" {
			port = "8081"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	sessions := session.NewRegistry(cfg.OutboundQueue, m, logger.Named("session"))
	dispatcher := service.NewDispatcher(sessions, m, logger.Named("dispatch"))
	eng := engine.NewEngine(
		engine.PriceLimits{Lower: cfg.PriceLowerLimit, Upper: cfg.PriceUpperLimit},
		nil,
		dispatcher,
		m,
		logger.Named("engine"),
	)
	srv := server.New(eng, sessions, dispatcher, server.Options{
		CancelOrphans: cfg.OrphanPolicy == config.OrphanCancel,
		WriteTimeout:  cfg.WriteTimeout,
	}, m, logger.Named("server"))

	router := handler.NewRouter(eng, sessions, reg, srv, cfg.BookDepth, logger.Named("admin"))
	adminAddr := fmt.Sprintf(":%d", cfg.AdminPort)
	admin := &http.Server{
		Addr:         adminAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on order port: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		if err := srv.Serve(ctx, ln); err != nil {
			errCh <- fmt.Errorf("order listener: %w", err)
		}
	}()
	go func() {
		logger.Info("admin server starting", zap.String("addr", adminAddr))
		if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("admin server: %w", err)
		}
	}()

	logger.Info("matchd started",
		zap.Int("port", cfg.Port),
		zap.Int("admin_port", cfg.AdminPort),
		zap.Float64("price_lower_limit", cfg.PriceLowerLimit),
		zap.Float64("price_upper_limit", cfg.PriceUpperLimit),
		zap.String("orphan_policy", cfg.OrphanPolicy),
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}
	cancel()
	srv.Close()

	// Graceful shutdown: stop accepting, close admin, drop sessions.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := admin.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin shutdown error", zap.Error(err))
	}
	sessions.Close()
	srv.Wait()

	logger.Info("server stopped")
	return runErr
}
