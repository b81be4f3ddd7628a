package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/productboard/internal/cache"
	"github.com/aaravmahajanofficial/productboard/internal/config"
	"github.com/aaravmahajanofficial/productboard/internal/health"
	"github.com/aaravmahajanofficial/productboard/internal/metrics"
	repository "github.com/aaravmahajanofficial/productboard/internal/repositories"
	service "github.com/aaravmahajanofficial/productboard/internal/services"
	"github.com/aaravmahajanofficial/productboard/internal/tracing"
	"github.com/aaravmahajanofficial/productboard/internal/tui"
)

func main() {

	// Logger setup. The terminal owns stdout, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing setup
	shutdownTracing, err := tracing.Setup(ctx, &cfg.Otel)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
		}
	}()

	// Redis setup
	var listCache cache.Cache
	if cfg.Cache.Enabled {
		client, err := cache.NewRedisClient(ctx, &cfg.RedisConnect)
		if err != nil {
			// the board works without its cache
			slog.Warn("⚠️ Redis unavailable, response cache disabled", slog.String("error", err.Error()))
		} else {
			listCache = cache.NewRedisCache(client, &cfg.Cache)
			defer func() {
				if err := listCache.Close(); err != nil {
					slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
				} else {
					slog.Info("✅ Redis connection closed")
				}
			}()
		}
	}

	httpClient := repository.NewHTTPClient(cfg.API.Timeout)
	productRepo := repository.NewProductRepo(httpClient, cfg.API.BaseURL)
	board := service.NewBoardService(productRepo, listCache, service.BoardOptions{
		ItemsPerPage:      cfg.Board.ItemsPerPage,
		ResetPageOnSearch: cfg.Board.ResetPageOnSearch,
	})

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error setting up health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("board initialized", slog.String("env", cfg.Env), slog.String("api", cfg.API.BaseURL), slog.String("version", health.Version))

	// Observability server
	var server *http.Server
	if cfg.Observability.Addr != "" {
		routerMux := http.NewServeMux()
		routerMux.Handle("GET /metrics", metrics.Handler())
		routerMux.Handle("GET /health", healthHandler.Handler())

		server = &http.Server{
			Addr:              cfg.Observability.Addr,
			Handler:           routerMux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		slog.Info("🚀 Observability server is starting...", slog.String("address", cfg.Observability.Addr))

		go func() {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				slog.Error("❌ Failed to start observability server", slog.String("error", err.Error()))
			}
		}()
	}

	// Initial load; a failure shows up in the banner
	if _, err := board.Refresh(ctx); err != nil {
		slog.Warn("Initial product load failed", slog.String("error", err.Error()))
	}

	term := tui.New(board, os.Stdout, tui.WithHealth(healthHandler))
	if err := term.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("❌ Terminal stopped", slog.String("error", err.Error()))
	}

	if server != nil {
		slog.Warn("🛑 Shutting down the observability server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Server shut down gracefully. All connections closed.")
		}
	}
}
