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

	"github.com/sidehub/sidehub/app/api"
	"github.com/sidehub/sidehub/app/cfg"
	"github.com/sidehub/sidehub/app/database"
	"github.com/sidehub/sidehub/app/source"
	"github.com/sidehub/sidehub/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was requested
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting SideHub server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := source.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "dir", appCfg.SourcesDir, "count", configCache.GetConfigCount())

	sourceRepo := database.NewSourceRepository(db)
	appRepo := database.NewAppRepository(db)
	newsRepo := database.NewNewsRepository(db)
	prefRepo := database.NewPreferenceRepository(db)

	catalogCache := source.NewCatalogCache()
	restoreCatalogs(configCache, catalogCache, sourceRepo, appRepo, newsRepo)

	httpClient := &http.Client{}
	loader := source.NewLoader(httpClient, appCfg.UserAgent)
	newsParser := source.NewNewsParser()
	extractor := source.NewArticleExtractor()

	scheduler := tasks.NewScheduler(configCache, catalogCache, sourceRepo, appRepo,
		newsRepo, httpClient, loader, newsParser, extractor)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)

	apiHandler := api.NewHandler(configCache, catalogCache, sourceRepo, appRepo,
		newsRepo, prefRepo, scheduler, httpClient, loader, newsParser, appCfg.UserAgent)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
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

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// restoreCatalogs rebuilds in-memory catalogs from the last persisted
// snapshot, so configured sources serve immediately after a restart
// instead of waiting for their first refresh.
func restoreCatalogs(configCache *source.ConfigCache, catalogCache *source.CatalogCache,
	sourceRepo database.SourceRepository, appRepo database.AppRepository,
	newsRepo database.NewsRepository) {
	restored := 0

	for name := range configCache.GetConfigs() {
		src, err := sourceRepo.GetSource(name)
		if err != nil {
			slog.Warn("Failed to read source snapshot", "source", name, "error", err)
			continue
		}
		if src == nil || src.LastFetchedAt == nil {
			continue
		}

		apps, err := appRepo.GetApps(name)
		if err != nil {
			slog.Warn("Failed to read app snapshot", "source", name, "error", err)
			continue
		}
		news, err := newsRepo.GetNews(name)
		if err != nil {
			slog.Warn("Failed to read news snapshot", "source", name, "error", err)
			continue
		}

		feed := &source.Feed{
			Name:      src.Title,
			Subtitle:  src.Subtitle,
			IconURL:   src.IconURL,
			TintColor: src.TintColor,
			Apps:      apps,
			News:      news,
		}

		catalogCache.Set(name, source.NewCatalog(feed))
		restored++
		slog.Debug("Catalog restored from snapshot", "source", name, "apps", len(apps), "news", len(news))
	}

	if restored > 0 {
		slog.Info("Catalogs restored from database", "count", restored)
	}
}
