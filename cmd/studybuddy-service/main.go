package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"studybuddy/internal/app"
	"studybuddy/internal/config"
	"studybuddy/internal/httpapi"
	"studybuddy/internal/logger"
	"studybuddy/internal/metrics"
)

func main() {
	configPath := flag.String("config", os.Getenv("STUDYBUDDY_CONFIG"), "path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	log := logger.NewLogger(cfg.App.Name, cfg.App.LogLevel)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, log, m)
	if err != nil {
		log.Entry().WithError(err).Fatal("failed to start services")
	}
	defer services.Close()

	api := httpapi.NewAPI(httpapi.Dependencies{
		Service:  services.Service,
		Sessions: services.Sessions,
		Chat:     services.Chat,
		Voice:    services.Voice,
		Uploads:  services.Uploads,
		Settings: services.Settings,
		Relay:    services.Relay,
		Logger:   log,
		Metrics:  m,
	})

	server := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.NewRouter(api, httpapi.RouterOptions{
			AllowedOrigins:  cfg.Server.AllowedOrigins,
			MaxLogBodyBytes: cfg.Server.MaxLogBodyBytes,
		}),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Entry().WithField("addr", cfg.Server.Addr).Info("studybuddy-service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Entry().WithError(err).Error("server failed")
			services.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	log.Entry().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Entry().WithError(err).Error("graceful shutdown failed")
	}
}
