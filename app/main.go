package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okhm/orbit/app/api"
	"github.com/okhm/orbit/app/cache"
	"github.com/okhm/orbit/app/cfg"
	"github.com/okhm/orbit/app/feed"
	"github.com/okhm/orbit/app/fetch"
	"github.com/okhm/orbit/app/registry"
	"github.com/okhm/orbit/app/render"
	"github.com/okhm/orbit/app/run"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Orbit", "version", appCfg.Version)

	// Registry and cache store failures are the only fatal conditions:
	// without sources there is nothing to aggregate, and without a writable
	// cache incremental runs are impossible.
	reg, err := registry.Load(appCfg.SourcesFile)
	if err != nil {
		slog.Error("Failed to load source registry", "file", appCfg.SourcesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Source registry loaded", "file", appCfg.SourcesFile, "sources", reg.Len())

	store, err := cache.Open(appCfg.CachePath)
	if err != nil {
		slog.Error("Failed to open cache store", "path", appCfg.CachePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	fetcher := fetch.NewFetcher(
		&http.Client{},
		appCfg.UserAgent,
		time.Duration(appCfg.FetchTimeout)*time.Second,
		appCfg.MaxBodySize,
	)

	coordinator := run.NewCoordinator(reg, fetcher, feed.NewParser(), store, run.Options{
		WorkerCount: appCfg.WorkerCount,
		RunTimeout:  time.Duration(appCfg.RunTimeout) * time.Second,
		WindowSize:  appCfg.WindowSize,
		MaxItems:    appCfg.MaxItems,
	})

	report, err := coordinator.Run(context.Background())
	if err != nil {
		slog.Error("Aggregation run failed", "error", err)
		os.Exit(1)
	}

	renderer := render.NewRenderer(appCfg.OutputDir)
	if err := renderer.Run(report); err != nil {
		slog.Error("Failed to write output", "dir", appCfg.OutputDir, "error", err)
		os.Exit(1)
	}

	if !appCfg.Serve {
		return
	}

	serve(store, report, appCfg)
}

// serve keeps the process alive after a run, exposing the generated site for
// preview. Shut down with SIGINT/SIGTERM.
func serve(store *cache.Store, report *run.Report, appCfg *cfg.Cfg) {
	handler := api.NewHandler(store, report)
	engine := api.NewServer(handler, appCfg.OutputDir)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Preview server started", "port", appCfg.Port, "dir", appCfg.OutputDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Preview server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Preview server shutdown error", "error", err)
	}
	slog.Info("Shutdown complete")
}
