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

	"github.com/linkhive/linkhive/api"
	"github.com/linkhive/linkhive/api/handler"
	"github.com/linkhive/linkhive/cache"
	"github.com/linkhive/linkhive/config"
	"github.com/linkhive/linkhive/enrich"
	"github.com/linkhive/linkhive/scraper"
	"github.com/linkhive/linkhive/search"
	"github.com/linkhive/linkhive/store"
	"github.com/linkhive/linkhive/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("linkhive starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"browser_enabled", cfg.Browser.Enabled,
	)

	// ── 3. Open item store ──────────────────────────────────────────
	st, err := store.Open(cfg.Store.DBPath)
	if err != nil {
		slog.Error("failed to open item store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// ── 4. Build the pipeline ───────────────────────────────────────
	// The browser launches lazily on first use; startup never waits on
	// Chromium.
	browser := scraper.NewBrowser(cfg.Browser)
	defer browser.Close()

	memory := scraper.NewDomainMemory(24 * time.Hour)
	defer memory.Stop()

	resultCache := cache.New(10_000)

	enricher := enrich.New(
		cfg.Scraper, cfg.Cache,
		scraper.NewHTTPFetcher(cfg.Scraper),
		browser,
		search.NewClient(cfg.Search),
		resultCache,
		memory,
	)

	// ── 5. Background enrichment + webhook ──────────────────────────
	listCache := handler.NewItemListCache()
	notifier := webhook.NewSender(cfg.Webhook)
	bg := enrich.NewBackground(enricher, st, notifier, listCache.Invalidate)

	// ── 6. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(enricher, browser, st, bg, listCache, cfg, startTime)

	// ── 7. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Let queued background enrichments land so items are not stuck in
	// the processing state.
	bg.Wait()

	slog.Info("linkhive stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
