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

	"github.com/lysyi3m/quickwatch/app/api"
	"github.com/lysyi3m/quickwatch/app/bootstrap"
	"github.com/lysyi3m/quickwatch/app/catalog"
	"github.com/lysyi3m/quickwatch/app/cfg"
	"github.com/lysyi3m/quickwatch/app/curation"
	"github.com/lysyi3m/quickwatch/app/database"
	"github.com/lysyi3m/quickwatch/app/download"
	"github.com/lysyi3m/quickwatch/app/exclusion"
	"github.com/lysyi3m/quickwatch/app/feed"
	"github.com/lysyi3m/quickwatch/app/ledger"
	"github.com/lysyi3m/quickwatch/app/media"
	"github.com/lysyi3m/quickwatch/app/sheets"
	"github.com/lysyi3m/quickwatch/app/sources"
	"github.com/lysyi3m/quickwatch/app/tasks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("QuickWatch stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := cfg.Load()
	if err != nil {
		return err
	}
	if appCfg == nil {
		// Help was shown
		return nil
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting QuickWatch", "version", appCfg.Version, "port", appCfg.Port)

	ctx := context.Background()

	db, err := database.Open(appCfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	registry := sources.NewRegistry(appCfg.SourcesDir, appCfg.DataDir)
	if err := registry.Run(); err != nil {
		return fmt.Errorf("failed to load archive sources: %w", err)
	}
	if err := registry.RegisterDefaults(appCfg.OfficialArchive, appCfg.OfficialBootstrapURL,
		appCfg.ThirdPartyArchive, appCfg.ThirdPartyBootstrapURL); err != nil {
		return fmt.Errorf("failed to register default archives: %w", err)
	}
	slog.Info("Archives registered", "count", len(registry.List()))

	var table *sheets.Client
	if appCfg.LiveFeedKind == "sheet" || appCfg.LedgerBackend == "sheet" {
		table, err = sheets.New(ctx, appCfg.SpreadsheetID, appCfg.CredentialsFile)
		if err != nil {
			return fmt.Errorf("failed to create sheets client: %w", err)
		}
	}

	normalizer := catalog.NewNormalizer()
	httpClient := &http.Client{Timeout: 60 * time.Second}

	var liveSource feed.Source
	switch appCfg.LiveFeedKind {
	case "sheet":
		liveSource = feed.NewSheetSource(table, appCfg.LiveTab, normalizer)
	default:
		liveSource = feed.NewRSSSource(appCfg.LiveFeedURLs, httpClient, feed.NewParser(), appCfg.UserAgent)
	}
	liveFeed := feed.NewCache(liveSource)

	var store exclusion.Store
	switch appCfg.ExclusionBackend {
	case "sqlite":
		store = exclusion.NewSQLiteStore(db)
	case "redis":
		client, err := exclusion.NewRedisClient(appCfg.RedisAddr, appCfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		store = exclusion.NewRedisStore(client, appCfg.RedisKey)
	default:
		store = exclusion.NewFileStore(appCfg.ExclusionFile)
	}
	slog.Info("Exclusion store ready", "backend", appCfg.ExclusionBackend)

	var movieLedger ledger.Ledger
	switch appCfg.LedgerBackend {
	case "sheet":
		movieLedger = ledger.NewSheetLedger(table, appCfg.LedgerTab)
	default:
		movieLedger = ledger.NewSQLiteLedger(db)
	}
	slog.Info("Ledger ready", "backend", appCfg.LedgerBackend)

	fetcher := media.NewYTDLP(appCfg.DownloadDir, appCfg.MediaFormat)
	coordinator := download.NewCoordinator(fetcher, movieLedger)
	controller := curation.NewController(liveFeed, store, registry, normalizer, catalog.NewFilterer(), coordinator)

	bootstrapper := bootstrap.NewBootstrapper(httpClient, appCfg.UserAgent)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "refresh_interval", appCfg.RefreshInterval)
	scheduler := tasks.NewScheduler(liveFeed, bootstrapper, registry,
		time.Duration(appCfg.RefreshInterval)*time.Second, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(controller, liveFeed, registry, fetcher, scheduler, bootstrapper, api.NewMetrics())
	server := api.NewServer(handler, appCfg.APIAccessKey)

	// Downloads run to completion inside the request, so the write timeout
	// is generous.
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return nil
}
