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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tendant/simple-form-upload/pkg/formupload"
	"github.com/tendant/simple-form-upload/pkg/formupload/api"
	"github.com/tendant/simple-form-upload/pkg/formupload/config"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Println("Usage: server")
		fmt.Println()
		fmt.Println(config.Description())
		return
	}

	ctx := context.Background()

	// Load configuration from .env and the environment
	serverConfig, err := config.Load(
		config.WithDotEnv(),
		config.WithEnv(),
		config.WithDefaultCredentialChain(ctx),
	)
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(serverConfig))

	inspector, err := serverConfig.BuildInspector(ctx)
	if err != nil {
		slog.Error("Failed to build upload inspector", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []api.HandlerOption{api.WithMetrics(api.NewMetrics(registry))}
	if inspector != nil {
		opts = append(opts, api.WithInspector(inspector))
	}
	handler := api.NewHandler(formupload.New(serverConfig.IssuerOptions()...), serverConfig.FormConfig(), opts...)

	server := NewHTTPServer(handler, serverConfig, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Form upload server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"bucket", serverConfig.Upload.BucketName,
			"region", serverConfig.AWS.Region,
			"max_size", serverConfig.Upload.ContentLengthMax.String(),
			"tracking", inspector != nil,
		)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// HTTPServer wires the upload handler, metrics and the demo page
type HTTPServer struct {
	handler *api.Handler
	config  *config.ServerConfig
	metrics http.Handler
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(handler *api.Handler, serverConfig *config.ServerConfig, metrics http.Handler) *HTTPServer {
	return &HTTPServer{
		handler: handler,
		config:  serverConfig,
		metrics: metrics,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS for development
	if s.config.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", s.handleHealth)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Mount("/api/v1", s.handler.Routes())

	// Form layout used by the bundled demo page
	r.Get("/conv", s.handler.Conv)

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	return r
}

// HealthResponse reports liveness and what forms are issued for
type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
	Bucket      string `json:"bucket"`
	Region      string `json:"region"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:      "healthy",
		Environment: s.config.Environment,
		Bucket:      s.config.Upload.BucketName,
		Region:      s.config.AWS.Region,
	})
}
