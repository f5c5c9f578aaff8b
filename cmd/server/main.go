package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order-gateway/internal/config"
	"order-gateway/internal/cors"
	"order-gateway/internal/handlers"
	"order-gateway/internal/middleware"
	"order-gateway/internal/rpc"
	"order-gateway/internal/service"
	"order-gateway/pkg/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting public order gateway",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
		"forward_auth_header", cfg.Backend.ForwardAuthHeader,
		"allowed_origins", cfg.CORS.AllowedOrigins,
	)

	if !cfg.BackendConfigured() {
		// Not fatal: health stays up, but every order request will be
		// answered with 500 until BACKEND_URL and BACKEND_ANON_KEY are set.
		log.Warn("backend is not configured; order creation will fail",
			"backend_url_set", cfg.Backend.URL != "",
			"anon_key_set", cfg.Backend.AnonKey != "",
		)
	}

	// Initialize backend client and services
	backend := rpc.NewClient(cfg.Backend.URL, cfg.Backend.AnonKey, log)
	orderService := service.NewOrderService(backend)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(log)
	orderHandler := handlers.NewOrderHandler(orderService, cfg, log)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics())
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Origin policy. The allow-list is re-read from the environment on
	// every request so a deployment-time change needs no restart.
	r.Use(cors.Middleware(func() cors.Policy {
		return cors.ResolvePolicy(os.Getenv("ALLOWED_ORIGINS"))
	}, log))

	r.MethodNotAllowed(handlers.MethodNotAllowed(log))
	r.NotFound(handlers.NotFound(log))

	// Register health check endpoint
	r.Get("/health", healthHandler.ServeHTTP)

	// Prometheus metrics endpoint, opt-in
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Public order intake
	r.Post("/", orderHandler.CreateOrder)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
