package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/newsdesk/app/api"
	"github.com/lysyi3m/newsdesk/app/cache"
	"github.com/lysyi3m/newsdesk/app/cfg"
	"github.com/lysyi3m/newsdesk/app/daily"
	"github.com/lysyi3m/newsdesk/app/database"
	"github.com/lysyi3m/newsdesk/app/feed"
	"github.com/lysyi3m/newsdesk/app/hydrate"
	"github.com/lysyi3m/newsdesk/app/library"
	"github.com/lysyi3m/newsdesk/app/taxonomy"
	"github.com/lysyi3m/newsdesk/app/tasks"
	"github.com/lysyi3m/newsdesk/app/wp"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if config == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting newsdesk", "version", config.Version, "site", config.SiteURL, "source", config.Source)

	db, err := database.Open(config.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", config.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	migrations, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", config.DBPath, "migration_version", migrations.Version, "applied", migrations.Applied)

	store := database.NewKVStore(db, config.MaxRowBytes)

	tax, err := taxonomy.Load(config.TaxonomyFile)
	if err != nil {
		slog.Error("Failed to load taxonomy", "error", err)
		os.Exit(1)
	}
	slog.Info("Taxonomy loaded", "categories", len(tax.Flatten()), "slugged", len(tax.Slugged()), "filters", len(tax.Filters))

	httpClient := wp.NewHTTPClient(config.HTTPTimeout)
	source := newSource(config, httpClient)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	manager := cache.NewManager(store, cache.Options{
		CategoryCap:     config.CategoryCap,
		TodayCap:        config.DanasCap,
		MaxPayloadBytes: config.MaxPayloadBytes,
		TTL:             config.CategoryTTL,
	})

	dailyFetcher := daily.NewFetcher(source, store, daily.Options{
		Days:            config.DailyDays,
		PerDay:          config.DailyPerDay,
		Concurrency:     config.DailyConcurrency,
		MaxPayloadBytes: config.MaxPayloadBytes,
	})
	if dailyFetcher.Load(rootCtx) {
		slog.Info("Daily circles restored", "posts", len(dailyFetcher.Posts()))
	}

	favorites := library.NewFavorites(store, config.MaxRowBytes)
	favorites.Load(rootCtx)
	inbox := library.NewInbox(store, config.MaxRowBytes)
	inbox.Load(rootCtx)

	orchestrator := hydrate.NewOrchestrator(source, tax, manager, dailyFetcher, feed.NewFilterer(), hydrate.Options{
		EagerCount:           config.EagerCount,
		PageSize:             config.PageSize,
		CategoryTTL:          config.CategoryTTL,
		DailyRefreshInterval: config.DailyRefreshInterval,
	})

	contentFetcher := tasks.NewContentFetcher(source, httpClient, feed.NewContentExtractor(), config.UserAgent)
	contentPlanner := tasks.NewContentPlanner(favorites, contentFetcher, config.DailyRefreshInterval)

	slog.Info("Starting background scheduler", "workers", config.WorkerCount, "interval_seconds", config.SchedulerInterval)
	scheduler := tasks.NewScheduler(config.WorkerCount,
		time.Duration(config.SchedulerInterval)*time.Second, orchestrator, contentPlanner)
	orchestrator.SetQueue(scheduler)
	scheduler.Start()

	go func() {
		if err := orchestrator.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Hydration failed", "error", err)
		}
	}()

	handler := api.NewHandler(api.Deps{
		Orchestrator:   orchestrator,
		Manager:        manager,
		Daily:          dailyFetcher,
		Taxonomy:       tax,
		Favorites:      favorites,
		Inbox:          inbox,
		ContentFetcher: contentFetcher,
		SiteURL:        config.SiteURL,
		TodayLimit:     config.DanasCap,
	})
	server := api.NewServer(handler, config.APIAccessKey)

	// No write timeout: /events keeps its response open.
	httpServer := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return rootCtx },
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", config.Port)
		if config.APIAccessKey == "" {
			slog.Warn("API_ACCESS_KEY not set, mutating endpoints are open")
		}
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Cancelling the root context ends open event streams before Shutdown
	// waits on them.
	cancelRoot()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()

	// Every merge schedules its own write; let the last ones land.
	manager.Wait()

	slog.Info("Shutdown complete")
}

func newSource(config *cfg.Cfg, httpClient *http.Client) wp.Source {
	rest := wp.NewRESTClient(config.SiteURL, httpClient, config.UserAgent)
	feedClient := wp.NewFeedClient(config.SiteURL, httpClient, config.UserAgent, feed.NewParser())

	switch config.Source {
	case cfg.SourceREST:
		return rest
	case cfg.SourceRSS:
		return feedClient
	default:
		return wp.NewFallbackSource(rest, feedClient)
	}
}
